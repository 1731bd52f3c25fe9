package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Locations is the remote location lookup service.
type Locations struct {
	c *Client
}

// Countries lists every country.
func (l *Locations) Countries(ctx context.Context) ([]model.Country, error) {
	var out []model.Country
	if err := l.get(ctx, "/api/locations/countries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// States lists the states of countryCode.
func (l *Locations) States(ctx context.Context, countryCode string) ([]model.State, error) {
	path, err := countryPath(countryCode, "states")
	if err != nil {
		return nil, err
	}
	var out []model.State
	if err := l.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cities lists the cities of countryCode, narrowed to stateCode when set.
func (l *Locations) Cities(ctx context.Context, countryCode, stateCode string) ([]model.City, error) {
	path, err := countryPath(countryCode, "cities")
	if err != nil {
		return nil, err
	}
	var query url.Values
	if state := strings.TrimSpace(stateCode); state != "" {
		query = url.Values{"state": {state}}
	}
	var out []model.City
	if err := l.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Nationalities lists every nationality.
func (l *Locations) Nationalities(ctx context.Context) ([]model.Nationality, error) {
	var out []model.Nationality
	if err := l.get(ctx, "/api/locations/nationalities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Locations) get(ctx context.Context, path string, query url.Values, out any) error {
	var raw json.RawMessage
	if err := l.c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return err
	}
	return decodeEnvelope(raw, out, "data")
}

func countryPath(code, tail string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("client: country code: %w", ErrIDRequired)
	}
	return "/api/locations/countries/" + url.PathEscape(code) + "/" + tail, nil
}
