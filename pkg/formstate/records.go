package formstate

import (
	"context"
	"errors"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// ErrNoRecordService is returned when the controller has nothing to submit to.
var ErrNoRecordService = errors.New("formstate: record service not configured")

// RecordService persists form records and echoes back what was stored.
type RecordService interface {
	Create(ctx context.Context, record model.Record) (model.Record, error)
	Update(ctx context.Context, id string, record model.Record) (model.Record, error)
}

// RecordServiceFuncs adapts plain functions to RecordService.
type RecordServiceFuncs struct {
	CreateFunc func(ctx context.Context, record model.Record) (model.Record, error)
	UpdateFunc func(ctx context.Context, id string, record model.Record) (model.Record, error)
}

// Create implements RecordService.
func (f RecordServiceFuncs) Create(ctx context.Context, record model.Record) (model.Record, error) {
	if f.CreateFunc == nil {
		return nil, ErrNoRecordService
	}
	return f.CreateFunc(ctx, record)
}

// Update implements RecordService.
func (f RecordServiceFuncs) Update(ctx context.Context, id string, record model.Record) (model.Record, error) {
	if f.UpdateFunc == nil {
		return nil, ErrNoRecordService
	}
	return f.UpdateFunc(ctx, id, record)
}

// RecordChecker validates a whole record, returning per-field messages.
type RecordChecker interface {
	CheckRecord(record model.Record) validation.FieldErrors
}
