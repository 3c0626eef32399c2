package inbound

import (
	"context"

	"github.com/goalpass/goalpass/internal/otp/usecase"
	"github.com/goalpass/goalpass/internal/pkg/router"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	Validate(ctx context.Context, in usecase.ValidateInput) error
	Peek(ctx context.Context, in usecase.PeekInput) (*usecase.PeekOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/players/:player_id/otp", end.Issue)
	r.POST("/api/v1/players/:player_id/otp/validate", end.Validate)
	r.GET("/api/v1/players/:player_id/otp", end.Peek) // diagnostic, gated by config
}
