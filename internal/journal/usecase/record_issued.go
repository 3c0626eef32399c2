package usecase

import (
	"context"
	"log/slog"

	"github.com/goalpass/goalpass/internal/journal/entity"
)

type RecordIssuedInput struct {
	PlayerID           string `validate:"required,playerid"`
	ContactAddress     string `validate:"required,email"`
	GenerationAttempts int    `validate:"gte=0"`
}

// RecordIssued appends an issuance event to the journal. Consumed messages
// with an invalid shape are dropped after logging; storage failures propagate
// so the broker can redeliver.
func (s *Usecase) RecordIssued(ctx context.Context, in RecordIssuedInput) error {
	ctx, span := s.startSpan(ctx, "RecordIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	entry := entity.Entry{
		ID:             s.uid.Generate(),
		PlayerID:       in.PlayerID,
		ContactAddress: in.ContactAddress,
		Kind:           entity.KindIssued,
		Outcome:        "issued",
		Attempts:       in.GenerationAttempts,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repoDB.CreateEntry(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to repo create journal entry", "player_id", in.PlayerID, "error", err)
		return err
	}

	return nil
}
