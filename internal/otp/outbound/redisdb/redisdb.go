package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/goalpass/goalpass/internal/otp/entity"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefix = "otp:passcode:"

	// Optimistic CAS retry budget for contended WATCH transactions.
	maxCASRetries = 5
	casRetryBase  = 5 * time.Millisecond
)

type passcodeDoc struct {
	PlayerID           string    `json:"player_id"`
	ContactAddress     string    `json:"contact_address"`
	Code               string    `json:"code"`
	IssuedAt           time.Time `json:"issued_at"`
	ExpiresAt          time.Time `json:"expires_at"`
	GenerationAttempts int       `json:"generation_attempts"`
	ValidationAttempts int       `json:"validation_attempts"`
}

// Redis is the Redis passcode store. Per-player mutations use optimistic
// concurrency: WATCH on the player's key, re-run on TxFailedErr with a
// bounded fibonacci backoff.
type Redis struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func New(client *redis.Client, ins instrument.Instrumentation) *Redis {
	return &Redis{client: client, ins: ins}
}

func (s *Redis) key(playerID string) string {
	return keyPrefix + playerID
}

// ttl keeps the key around for one extra validity window past expiry so a
// late validation sees an expired verdict instead of a missing record.
func (s *Redis) ttl(rec *entity.Passcode) time.Duration {
	window := rec.ExpiresAt.Sub(rec.IssuedAt)
	ttl := time.Until(rec.ExpiresAt) + window
	if ttl < time.Second {
		ttl = time.Second
	}

	return ttl
}

func (s *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.redisdb").Start(ctx, name)
}

func (s *Redis) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func decode(data []byte) (*entity.Passcode, error) {
	var doc passcodeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return &entity.Passcode{
		PlayerID:           doc.PlayerID,
		ContactAddress:     doc.ContactAddress,
		Code:               doc.Code,
		IssuedAt:           doc.IssuedAt,
		ExpiresAt:          doc.ExpiresAt,
		GenerationAttempts: doc.GenerationAttempts,
		ValidationAttempts: doc.ValidationAttempts,
	}, nil
}

func encode(rec *entity.Passcode) ([]byte, error) {
	return json.Marshal(passcodeDoc{
		PlayerID:           rec.PlayerID,
		ContactAddress:     rec.ContactAddress,
		Code:               rec.Code,
		IssuedAt:           rec.IssuedAt,
		ExpiresAt:          rec.ExpiresAt,
		GenerationAttempts: rec.GenerationAttempts,
		ValidationAttempts: rec.ValidationAttempts,
	})
}

func (s *Redis) Get(ctx context.Context, playerID string) (_ *entity.Passcode, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	data, err := s.client.Get(ctx, s.key(playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return decode(data)
}

func (s *Redis) Put(ctx context.Context, rec entity.Passcode) (err error) {
	ctx, span := s.startSpan(ctx, "Put")
	defer func() { s.endSpan(span, err) }()

	data, err := encode(&rec)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(rec.PlayerID), data, s.ttl(&rec)).Err()
}

func (s *Redis) Mutate(ctx context.Context, playerID string, fn entity.Mutator) (err error) {
	ctx, span := s.startSpan(ctx, "Mutate")
	defer func() { s.endSpan(span, err) }()

	key := s.key(playerID)

	var verdict error
	err = retry.Do(ctx, retry.WithMaxRetries(maxCASRetries, retry.NewFibonacci(casRetryBase)),
		func(ctx context.Context) error {
			verdict = nil

			err := s.client.Watch(ctx, func(tx *redis.Tx) error {
				var cur *entity.Passcode

				data, err := tx.Get(ctx, key).Bytes()
				if err != nil && !errors.Is(err, redis.Nil) {
					return err
				}
				if err == nil {
					if cur, err = decode(data); err != nil {
						return err
					}
				}

				next, v := fn(cur)
				verdict = v

				switch {
				case next != nil:
					enc, err := encode(next)
					if err != nil {
						return err
					}
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Set(ctx, key, enc, s.ttl(next))
						return nil
					})
					return err

				case v == nil && cur != nil:
					_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					return err

				default:
					return nil
				}
			}, key)
			if errors.Is(err, redis.TxFailedErr) {
				return retry.RetryableError(err)
			}

			return err
		})
	if err != nil {
		return err
	}

	return verdict
}

func (s *Redis) Delete(ctx context.Context, playerID string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	return s.client.Del(ctx, s.key(playerID)).Err()
}

// DeleteExpired scans stored records and removes those expired before
// olderThan. Key TTLs already bound retention; the scan only tightens it.
func (s *Redis) DeleteExpired(ctx context.Context, olderThan time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpired")
	defer func() { s.endSpan(span, err) }()

	var deleted int64
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return deleted, err
		}

		rec, err := decode(data)
		if err != nil || !rec.ExpiresAt.Before(olderThan) {
			continue
		}

		if err := s.client.Del(ctx, key).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}

	return deleted, nil
}
