package inbound

import (
	"context"

	"github.com/goalpass/goalpass/internal/journal/entity"
	"github.com/goalpass/goalpass/internal/journal/usecase"
	"github.com/goalpass/goalpass/internal/pkg/router"
)

type uc interface {
	RecordIssued(ctx context.Context, in usecase.RecordIssuedInput) error
	RecordValidated(ctx context.Context, in usecase.RecordValidatedInput) error
	ListEntries(ctx context.Context, in usecase.ListEntriesInput) ([]entity.Entry, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/otp/journal", end.ListEntries)
}
