package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goalpass/goalpass/internal/pkg/goerror"
)

type PeekInput struct {
	PlayerID string `validate:"required,playerid"`
}

type PeekOutput struct {
	PlayerID           string
	ContactAddress     string
	Code               string
	IssuedAt           time.Time
	ExpiresAt          time.Time
	GenerationAttempts int
	ValidationAttempts int
}

// Peek returns the stored record including the plaintext code. It is a
// diagnostic surface gated by modules.otp.allow_peek; when the flag is off
// the response is indistinguishable from a missing record.
func (s *Usecase) Peek(ctx context.Context, in PeekInput) (*PeekOutput, error) {
	ctx, span := s.startSpan(ctx, "Peek")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !s.cfg.GetBool("modules.otp.allow_peek") {
		return nil, goerror.NewBusiness("no active passcode", goerror.CodeNotFound)
	}

	rec, err := s.repoDB.Get(ctx, in.PlayerID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("no active passcode", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get passcode", "player_id", in.PlayerID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &PeekOutput{
		PlayerID:           rec.PlayerID,
		ContactAddress:     rec.ContactAddress,
		Code:               rec.Code,
		IssuedAt:           rec.IssuedAt,
		ExpiresAt:          rec.ExpiresAt,
		GenerationAttempts: rec.GenerationAttempts,
		ValidationAttempts: rec.ValidationAttempts,
	}, nil
}
