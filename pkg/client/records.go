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

// Records creates and updates records of one resource, e.g. patients or
// appointments.
type Records struct {
	c        *Client
	resource string
}

// Resource returns the resource name.
func (r *Records) Resource() string { return r.resource }

// Create posts record and returns the stored record.
func (r *Records) Create(ctx context.Context, record model.Record) (model.Record, error) {
	var raw json.RawMessage
	if err := r.c.do(ctx, http.MethodPost, "/api/"+r.resource+"/", nil, record, &raw); err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

// Update replaces record id and returns the stored record.
func (r *Records) Update(ctx context.Context, id string, record model.Record) (model.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("client: %s: %w", r.resource, ErrIDRequired)
	}
	var raw json.RawMessage
	path := "/api/" + r.resource + "/" + url.PathEscape(id)
	if err := r.c.do(ctx, http.MethodPut, path, nil, record, &raw); err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

// decodeRecord keeps the scalar and list members of the echoed record.
// Nested objects belong to related resources and are dropped.
func decodeRecord(raw json.RawMessage) (model.Record, error) {
	inner := envelope(raw, "data")
	if isNull(inner) {
		return model.Record{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(inner, &payload); err != nil {
		return nil, fmt.Errorf("client: decode record: %w", err)
	}
	for key, v := range payload {
		if nestedValue(v) {
			delete(payload, key)
		}
	}
	return model.RecordFromMap(payload)
}

func nestedValue(v any) bool {
	switch typed := v.(type) {
	case map[string]any:
		return true
	case []any:
		for _, item := range typed {
			if nestedValue(item) {
				return true
			}
		}
	}
	return false
}
