package usecase

import (
	"context"
	"log/slog"

	"github.com/goalpass/goalpass/internal/journal/entity"
)

type RecordValidatedInput struct {
	PlayerID           string `validate:"required,playerid"`
	ContactAddress     string `validate:"required,email"`
	Outcome            string `validate:"required"`
	ValidationAttempts int    `validate:"gte=0"`
}

// RecordValidated appends a validation event with its outcome to the journal.
func (s *Usecase) RecordValidated(ctx context.Context, in RecordValidatedInput) error {
	ctx, span := s.startSpan(ctx, "RecordValidated")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	entry := entity.Entry{
		ID:             s.uid.Generate(),
		PlayerID:       in.PlayerID,
		ContactAddress: in.ContactAddress,
		Kind:           entity.KindValidated,
		Outcome:        in.Outcome,
		Attempts:       in.ValidationAttempts,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repoDB.CreateEntry(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to repo create journal entry", "player_id", in.PlayerID, "error", err)
		return err
	}

	return nil
}
