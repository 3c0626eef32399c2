package usecase

import (
	"context"
	"log/slog"

	"github.com/goalpass/goalpass/internal/journal/entity"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
)

type ListEntriesInput struct {
	PlayerID string `validate:"required,playerid"`
	Limit    int32  `validate:"omitempty,gte=1,lte=100"`
}

// ListEntries returns a player's journal, most recent first.
func (s *Usecase) ListEntries(ctx context.Context, in ListEntriesInput) (_ []entity.Entry, err error) {
	ctx, span := s.startSpan(ctx, "ListEntries")
	defer span.End()

	if in.Limit == 0 {
		in.Limit = 20
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	entries, err := s.repoDB.ListEntries(ctx, in.PlayerID, in.Limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list journal entries", "player_id", in.PlayerID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return entries, nil
}
