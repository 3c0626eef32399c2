package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/goalpass/goalpass/internal/otp/entity"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	queryGet = `
		SELECT player_id, contact_address, code, issued_at, expires_at,
		       generation_attempts, validation_attempts
		FROM otp_passcodes
		WHERE player_id = $1`

	queryGetForUpdate = queryGet + ` FOR UPDATE`

	queryUpsert = `
		INSERT INTO otp_passcodes (player_id, contact_address, code, issued_at,
		       expires_at, generation_attempts, validation_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player_id) DO UPDATE SET
		       contact_address = EXCLUDED.contact_address,
		       code = EXCLUDED.code,
		       issued_at = EXCLUDED.issued_at,
		       expires_at = EXCLUDED.expires_at,
		       generation_attempts = EXCLUDED.generation_attempts,
		       validation_attempts = EXCLUDED.validation_attempts`

	queryDelete = `DELETE FROM otp_passcodes WHERE player_id = $1`

	queryDeleteExpired = `DELETE FROM otp_passcodes WHERE expires_at < $1`
)

// DB is the Postgres passcode store. Per-player mutations are serialized by
// row locks (SELECT ... FOR UPDATE) inside a transaction.
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
	return s.ins.Tracer("otp.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type row interface {
	Scan(dest ...any) error
}

func scanPasscode(r row) (*entity.Passcode, error) {
	var rec entity.Passcode
	if err := r.Scan(
		&rec.PlayerID,
		&rec.ContactAddress,
		&rec.Code,
		&rec.IssuedAt,
		&rec.ExpiresAt,
		&rec.GenerationAttempts,
		&rec.ValidationAttempts,
	); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (s *DB) Get(ctx context.Context, playerID string) (_ *entity.Passcode, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	rec, err := scanPasscode(s.conn.QueryRow(ctx, queryGet, playerID))
	if err != nil {
		return nil, s.mapError(err)
	}

	return rec, nil
}

func (s *DB) Put(ctx context.Context, rec entity.Passcode) (err error) {
	ctx, span := s.startSpan(ctx, "Put")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryUpsert,
		rec.PlayerID,
		rec.ContactAddress,
		rec.Code,
		rec.IssuedAt,
		rec.ExpiresAt,
		rec.GenerationAttempts,
		rec.ValidationAttempts,
	)

	return s.mapError(err)
}

func (s *DB) Delete(ctx context.Context, playerID string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryDelete, playerID)

	return s.mapError(err)
}

func (s *DB) DeleteExpired(ctx context.Context, olderThan time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpired")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryDeleteExpired, olderThan)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
