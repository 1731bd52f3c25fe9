// Package entity exposes the tenant (healthcare entity) defaults consumed by
// the form engine: location, locale and the nationality list used to
// preselect the entity's primary nationality.
package entity

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Locale defaults applied when the entity omits a value.
const (
	DefaultTimezone   = "UTC"
	DefaultLanguage   = "en"
	DefaultCurrency   = "USD"
	DefaultDateFormat = "YYYY-MM-DD"
)

// Entity is the entity record returned by the entity service.
type Entity struct {
	ID                    int    `json:"id"`
	Name                  string `json:"name"`
	Type                  string `json:"type"`
	Country               string `json:"country"`
	CountryID             *int   `json:"country_id"`
	State                 string `json:"state"`
	StateID               *int   `json:"state_id"`
	City                  string `json:"city"`
	CityID                *int   `json:"city_id"`
	Timezone              string `json:"timezone"`
	Language              string `json:"language"`
	Currency              string `json:"currency"`
	DateFormat            string `json:"date_format"`
	Address               string `json:"address"`
	PostalCode            string `json:"postal_code"`
	Phone                 string `json:"phone"`
	Email                 string `json:"email"`
	Website               string `json:"website"`
	RequireRoomAssignment bool   `json:"require_room_assignment"`
}

// Context is the read-only view of an entity and its nationality list.
type Context struct {
	Entity
	Nationalities []model.Nationality
}

// New builds a context. Nationalities are copied and sorted by name.
func New(e Entity, nationalities []model.Nationality) *Context {
	ctx := &Context{Entity: e}
	ctx.Nationalities = sortedNationalities(nationalities)
	return ctx
}

func sortedNationalities(in []model.Nationality) []model.Nationality {
	out := append([]model.Nationality(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// TimezoneName returns the configured timezone or UTC.
func (c *Context) TimezoneName() string {
	if c == nil || strings.TrimSpace(c.Timezone) == "" {
		return DefaultTimezone
	}
	return c.Timezone
}

// Location resolves the timezone, falling back to UTC for unknown zones.
func (c *Context) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimezoneName())
	if err != nil {
		return time.UTC
	}
	return loc
}

// LanguageCode returns the configured language or en.
func (c *Context) LanguageCode() string {
	if c == nil || strings.TrimSpace(c.Language) == "" {
		return DefaultLanguage
	}
	return c.Language
}

// CurrencyCode returns the configured currency or USD.
func (c *Context) CurrencyCode() string {
	if c == nil || strings.TrimSpace(c.Currency) == "" {
		return DefaultCurrency
	}
	return c.Currency
}

// DateLayout returns the configured date format or YYYY-MM-DD.
func (c *Context) DateLayout() string {
	if c == nil || strings.TrimSpace(c.DateFormat) == "" {
		return DefaultDateFormat
	}
	return c.DateFormat
}

// FullAddress joins the non-empty address parts.
func (c *Context) FullAddress() string {
	if c == nil {
		return ""
	}
	var parts []string
	for _, part := range []string{c.Address, c.City, c.State, c.PostalCode, c.Country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// NationalityOptions returns the nationality list as select options.
func (c *Context) NationalityOptions() []model.Option {
	if c == nil {
		return nil
	}
	out := make([]model.Option, 0, len(c.Nationalities))
	for _, n := range c.Nationalities {
		out = append(out, n.Option())
	}
	return out
}

// DefaultNationalityID returns the primary nationality of the entity's
// country, or nil when the country or list is missing.
func (c *Context) DefaultNationalityID() *int {
	if c == nil || c.CountryID == nil {
		return nil
	}
	for _, n := range c.Nationalities {
		if n.CountryID == *c.CountryID && n.IsPrimary {
			id := n.ID
			return &id
		}
	}
	return nil
}

// Defaults returns the initial values the entity contributes to new records.
// Missing data contributes nothing.
func (c *Context) Defaults() model.Record {
	out := model.Record{}
	if c == nil {
		return out
	}
	if id := c.DefaultNationalityID(); id != nil {
		out["nationality_id"] = model.String(strconv.Itoa(*id))
	}
	setText := func(name, value string) {
		if strings.TrimSpace(value) != "" {
			out[name] = model.String(value)
		}
	}
	setID := func(name string, value *int) {
		if value != nil {
			out[name] = model.Number(float64(*value))
		}
	}
	setText("country", c.Country)
	setText("state", c.State)
	setText("city", c.City)
	setID("country_id", c.CountryID)
	setID("state_id", c.StateID)
	setID("city_id", c.CityID)
	return out
}
