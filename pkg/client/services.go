package client

import (
	"github.com/goliatone/go-formkit/pkg/entity"
	"github.com/goliatone/go-formkit/pkg/formconfig"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/location"
)

var (
	_ formconfig.Service      = (*Forms)(nil)
	_ location.Service        = (*Locations)(nil)
	_ entity.Service          = (*Entities)(nil)
	_ formstate.RecordService = (*Records)(nil)
)
