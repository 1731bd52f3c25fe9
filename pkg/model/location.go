package model

import "strconv"

// Country is a location service country record.
type Country struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Option projects the country onto a select option keyed by code.
func (c Country) Option() Option { return Option{Value: c.Code, Label: c.Name} }

// State is a state or province of a country.
type State struct {
	ID        int    `json:"id"`
	CountryID int    `json:"country_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
}

// Option projects the state onto a select option keyed by code.
func (s State) Option() Option { return Option{Value: s.Code, Label: s.Name} }

// City belongs to a country and optionally a state.
type City struct {
	ID        int    `json:"id"`
	CountryID int    `json:"country_id"`
	StateID   int    `json:"state_id,omitempty"`
	Code      string `json:"code,omitempty"`
	Name      string `json:"name"`
}

// Option projects the city onto a select option. Cities without a code use
// their name as value.
func (c City) Option() Option {
	value := c.Code
	if value == "" {
		value = c.Name
	}
	return Option{Value: value, Label: c.Name}
}

// Nationality is a nationality option tied to a country.
type Nationality struct {
	ID        int    `json:"id"`
	CountryID int    `json:"country_id"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	IsPrimary bool   `json:"is_primary"`
}

// Option projects the nationality onto a select option keyed by id.
func (n Nationality) Option() Option {
	return Option{Value: strconv.Itoa(n.ID), Label: n.Name}
}

// CountryOptions converts countries to options preserving order.
func CountryOptions(in []Country) []Option {
	out := make([]Option, 0, len(in))
	for _, c := range in {
		out = append(out, c.Option())
	}
	return out
}

// StateOptions converts states to options preserving order.
func StateOptions(in []State) []Option {
	out := make([]Option, 0, len(in))
	for _, s := range in {
		out = append(out, s.Option())
	}
	return out
}

// CityOptions converts cities to options preserving order.
func CityOptions(in []City) []Option {
	out := make([]Option, 0, len(in))
	for _, c := range in {
		out = append(out, c.Option())
	}
	return out
}

// LoadingFlags reports which cascade tiers have a fetch in flight.
type LoadingFlags struct {
	Countries bool `json:"countries"`
	States    bool `json:"states"`
	Cities    bool `json:"cities"`
}
