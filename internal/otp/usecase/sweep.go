package usecase

import (
	"context"
	"log/slog"

	"github.com/goalpass/goalpass/internal/pkg/goerror"
)

// SweepExpired deletes records that expired longer than the configured grace
// ago. Expiry is enforced lazily on every validation, so the sweep is storage
// hygiene only; the grace is clamped to at least one validity window so that
// recently expired records still produce expiry verdicts instead of missing
// ones.
func (s *Usecase) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer span.End()

	grace := s.cfg.GetSecond("modules.otp.sweep_grace_seconds")
	if window := s.validityWindow(); grace < window {
		grace = window
	}

	deleted, err := s.repoDB.DeleteExpired(ctx, s.clock.Now().Add(-grace))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired passcodes", "error", err)
		return 0, goerror.NewServer(err)
	}

	if deleted > 0 {
		slog.InfoContext(ctx, "swept expired passcodes", "deleted", deleted)
	}

	return deleted, nil
}
