package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/goalpass/goalpass/internal/otp/entity"
)

// Mutate runs fn inside a transaction holding the player's row lock, so two
// concurrent mutations for the same player never both observe the same
// counters. A record returned by fn is persisted even when the verdict is an
// error; the transaction only rolls back on storage failures.
func (s *DB) Mutate(ctx context.Context, playerID string, fn entity.Mutator) (err error) {
	ctx, span := s.startSpan(ctx, "Mutate")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	cur, err := scanPasscode(tx.QueryRow(ctx, queryGetForUpdate, playerID))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return s.mapError(err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		cur = nil
	}

	next, verdict := fn(cur)

	switch {
	case next != nil:
		if _, err = tx.Exec(ctx, queryUpsert,
			next.PlayerID,
			next.ContactAddress,
			next.Code,
			next.IssuedAt,
			next.ExpiresAt,
			next.GenerationAttempts,
			next.ValidationAttempts,
		); err != nil {
			return s.mapError(err)
		}
	case verdict == nil && cur != nil:
		if _, err = tx.Exec(ctx, queryDelete, playerID); err != nil {
			return s.mapError(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return verdict
}
