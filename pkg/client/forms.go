package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Forms is the remote form configuration service.
type Forms struct {
	c *Client
}

func formPath(formType string, parts ...string) (string, error) {
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return "", fmt.Errorf("client: form type: %w", ErrIDRequired)
	}
	path := "/api/forms/" + url.PathEscape(formType)
	for _, part := range parts {
		path += "/" + part
	}
	return path, nil
}

// FormTypes lists the configurable form types.
func (f *Forms) FormTypes(ctx context.Context) ([]model.FormType, error) {
	var raw json.RawMessage
	if err := f.c.do(ctx, http.MethodGet, "/api/forms/types", nil, nil, &raw); err != nil {
		return nil, err
	}
	var out []model.FormType
	if err := decodeEnvelope(raw, &out, "form_types", "data"); err != nil {
		return nil, err
	}
	return out, nil
}

// FormFields returns the descriptors of formType.
func (f *Forms) FormFields(ctx context.Context, formType string) ([]model.FieldDescriptor, error) {
	path, err := formPath(formType, "fields")
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := f.c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	var out []model.FieldDescriptor
	if err := decodeEnvelope(raw, &out, "fields", "data"); err != nil {
		return nil, err
	}
	return out, nil
}

// FormMetadata returns the full configuration of formType.
func (f *Forms) FormMetadata(ctx context.Context, formType string) (model.FormMetadata, error) {
	path, err := formPath(formType, "metadata")
	if err != nil {
		return model.FormMetadata{}, err
	}
	var raw json.RawMessage
	if err := f.c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return model.FormMetadata{}, err
	}
	var out model.FormMetadata
	if err := decodeEnvelope(raw, &out, "data"); err != nil {
		return model.FormMetadata{}, err
	}
	if out.FormType == "" {
		out.FormType = strings.TrimSpace(formType)
	}
	return out, nil
}

// UpdateFormField patches one field.
func (f *Forms) UpdateFormField(ctx context.Context, formType string, fieldID int, patch model.FieldPatch) error {
	path, err := formPath(formType, "fields", strconv.Itoa(fieldID))
	if err != nil {
		return err
	}
	return f.c.do(ctx, http.MethodPut, path, nil, patch, nil)
}

// UpdateFormFields patches several fields in one call.
func (f *Forms) UpdateFormFields(ctx context.Context, formType string, patches []model.FieldPatch) error {
	path, err := formPath(formType, "fields")
	if err != nil {
		return err
	}
	body := struct {
		Fields []model.FieldPatch `json:"fields"`
	}{Fields: patches}
	return f.c.do(ctx, http.MethodPut, path, nil, body, nil)
}

// UpdateFieldOrder rewrites sort orders.
func (f *Forms) UpdateFieldOrder(ctx context.Context, formType string, orders []model.FieldOrder) error {
	path, err := formPath(formType, "fields", "order")
	if err != nil {
		return err
	}
	body := struct {
		FieldOrders []model.FieldOrder `json:"field_orders"`
	}{FieldOrders: orders}
	return f.c.do(ctx, http.MethodPut, path, nil, body, nil)
}

// ResetFormToDefaults restores the server side defaults of formType.
func (f *Forms) ResetFormToDefaults(ctx context.Context, formType string) error {
	path, err := formPath(formType, "reset")
	if err != nil {
		return err
	}
	return f.c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func decodeEnvelope(raw json.RawMessage, out any, keys ...string) error {
	inner := envelope(raw, keys...)
	if isNull(inner) {
		return nil
	}
	if err := json.Unmarshal(inner, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
