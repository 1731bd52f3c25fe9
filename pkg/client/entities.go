package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goliatone/go-formkit/pkg/entity"
	"github.com/goliatone/go-formkit/pkg/model"
)

// Entities is the remote healthcare entity service.
type Entities struct {
	c *Client
}

// Entity fetches one healthcare entity.
func (e *Entities) Entity(ctx context.Context, id int) (entity.Entity, error) {
	if id <= 0 {
		return entity.Entity{}, fmt.Errorf("client: entity: %w", ErrIDRequired)
	}
	var out entity.Entity
	if err := e.c.do(ctx, http.MethodGet, "/api/entities/"+strconv.Itoa(id), nil, nil, &out); err != nil {
		return entity.Entity{}, err
	}
	return out, nil
}

// Nationalities lists the nationalities offered to the entity's forms.
func (e *Entities) Nationalities(ctx context.Context) ([]model.Nationality, error) {
	return e.c.Locations().Nationalities(ctx)
}
