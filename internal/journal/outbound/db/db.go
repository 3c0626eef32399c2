package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/goalpass/goalpass/internal/journal/entity"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	queryCreate = `
		INSERT INTO otp_journal (id, player_id, contact_address, kind, outcome,
		       attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	queryList = `
		SELECT id, player_id, contact_address, kind, outcome, attempts, created_at
		FROM otp_journal
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
)

// DB is the Postgres journal store.
type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("journal.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) CreateEntry(ctx context.Context, entry entity.Entry) (err error) {
	ctx, span := s.startSpan(ctx, "CreateEntry")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreate,
		entry.ID,
		entry.PlayerID,
		entry.ContactAddress,
		int16(entry.Kind),
		entry.Outcome,
		entry.Attempts,
		entry.CreatedAt,
	)

	return s.mapError(err)
}

func (s *DB) ListEntries(ctx context.Context, playerID string, limit int32) (_ []entity.Entry, err error) {
	ctx, span := s.startSpan(ctx, "ListEntries")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryList, playerID, limit)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var entries []entity.Entry
	for rows.Next() {
		var (
			entry entity.Entry
			kind  int16
		)
		if err = rows.Scan(
			&entry.ID,
			&entry.PlayerID,
			&entry.ContactAddress,
			&kind,
			&entry.Outcome,
			&entry.Attempts,
			&entry.CreatedAt,
		); err != nil {
			return nil, s.mapError(err)
		}
		entry.Kind = entity.Kind(kind)
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return entries, nil
}
