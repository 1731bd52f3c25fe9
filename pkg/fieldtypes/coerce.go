package fieldtypes

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formkit/pkg/model"
)

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize strips markup from free text. Plain text without angle brackets
// is returned unchanged.
func Sanitize(text string) string {
	if !strings.ContainsAny(text, "<>") {
		return text
	}
	return html.UnescapeString(strictPolicy.Sanitize(text))
}

// DefaultValue returns the type-derived initial value of a field: false for
// booleans, 0 for numbers, an empty list for multiselects, the first option
// for selects and "" otherwise.
func DefaultValue(field model.FieldDescriptor) model.Value {
	tag := field.FieldType.Normalize()
	switch {
	case IsBoolean(tag):
		return model.Bool(false)
	case IsNumeric(tag):
		return model.Number(0)
	case tag == model.FieldMultiSelect:
		return model.List()
	case tag == model.FieldSelect:
		if len(field.Options) > 0 {
			return model.String(field.Options[0].Value)
		}
		return model.String("")
	default:
		return model.String("")
	}
}

// Coerce converts a raw value into the shape expected for tag. Values that
// cannot be converted are kept as text so validation can report them.
func Coerce(tag model.FieldType, raw any) (model.Value, error) {
	v, err := model.ValueOf(raw)
	if err != nil {
		return model.Null(), fmt.Errorf("fieldtypes: %w", err)
	}
	return Convert(tag, v), nil
}

// Convert reshapes an already typed value for tag.
func Convert(tag model.FieldType, v model.Value) model.Value {
	tag = tag.Normalize()
	if v.IsNull() {
		if tag == model.FieldMultiSelect {
			return model.List()
		}
		return v
	}
	switch {
	case IsBoolean(tag):
		return toBool(v)
	case IsNumeric(tag):
		return toNumber(v)
	case tag == model.FieldMultiSelect:
		return toList(v)
	case IsTextBased(tag):
		text := v.Text()
		if tag != model.FieldPassword {
			text = Sanitize(text)
		}
		return model.String(text)
	default:
		if v.Kind() == model.KindList {
			return model.String(v.Text())
		}
		return v
	}
}

// ParseInput converts text typed into an input of the given type.
func ParseInput(tag model.FieldType, text string) model.Value {
	return Convert(tag, model.String(text))
}

func toBool(v model.Value) model.Value {
	switch v.Kind() {
	case model.KindBool:
		return v
	case model.KindNumber:
		n, _ := v.Float()
		return model.Bool(n != 0)
	case model.KindList:
		return model.Bool(len(v.Items()) > 0)
	}
	switch strings.ToLower(strings.TrimSpace(v.Text())) {
	case "true", "1", "yes", "y", "on":
		return model.Bool(true)
	default:
		return model.Bool(false)
	}
}

func toNumber(v model.Value) model.Value {
	switch v.Kind() {
	case model.KindNumber:
		return v
	case model.KindBool:
		if b, _ := v.Truth(); b {
			return model.Number(1)
		}
		return model.Number(0)
	}
	text := strings.TrimSpace(v.Text())
	if text == "" {
		return model.String("")
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return model.String(text)
	}
	return model.Number(n)
}

func toList(v model.Value) model.Value {
	if v.Kind() == model.KindList {
		return v
	}
	parts := strings.Split(v.Text(), ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return model.List(items...)
}
