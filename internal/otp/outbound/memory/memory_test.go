package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goalpass/goalpass/internal/otp/entity"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
)

func newRecord(playerID string) entity.Passcode {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	return entity.Passcode{
		PlayerID:           playerID,
		ContactAddress:     "a@b.com",
		Code:               "482193",
		IssuedAt:           now,
		ExpiresAt:          now.Add(5 * time.Minute),
		GenerationAttempts: 1,
	}
}

func TestGetAbsent(t *testing.T) {
	store := New(instrument.NewNoop())

	_, err := store.Get(context.Background(), "nobody")
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutGetDelete(t *testing.T) {
	store := New(instrument.NewNoop())
	ctx := context.Background()

	rec := newRecord("p1")
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got != rec {
		t.Fatalf("roundtrip mismatch: %+v != %+v", *got, rec)
	}

	// Returned record is a copy; mutating it must not affect storage.
	got.Code = "000000"
	again, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Code != rec.Code {
		t.Fatalf("store leaked a mutable reference")
	}

	if err := store.Delete(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "p1"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMutatePersistsRecordAlongsideVerdict(t *testing.T) {
	store := New(instrument.NewNoop())
	ctx := context.Background()

	if err := store.Put(ctx, newRecord("p1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	verdict := errors.New("incorrect")
	err := store.Mutate(ctx, "p1", func(cur *entity.Passcode) (*entity.Passcode, error) {
		next := *cur
		next.ValidationAttempts++
		return &next, verdict
	})
	if !errors.Is(err, verdict) {
		t.Fatalf("expected verdict returned, got %v", err)
	}

	rec, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ValidationAttempts != 1 {
		t.Fatalf("expected increment persisted with verdict, got %d", rec.ValidationAttempts)
	}
}

func TestMutateNilVerdictLeavesUntouched(t *testing.T) {
	store := New(instrument.NewNoop())
	ctx := context.Background()

	rec := newRecord("p1")
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	verdict := errors.New("locked")
	err := store.Mutate(ctx, "p1", func(*entity.Passcode) (*entity.Passcode, error) {
		return nil, verdict
	})
	if !errors.Is(err, verdict) {
		t.Fatalf("expected verdict returned, got %v", err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got != rec {
		t.Fatalf("record changed by a verdict-only mutation")
	}
}

func TestMutateNilNilDeletes(t *testing.T) {
	store := New(instrument.NewNoop())
	ctx := context.Background()

	if err := store.Put(ctx, newRecord("p1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	err := store.Mutate(ctx, "p1", func(*entity.Passcode) (*entity.Passcode, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	if _, err := store.Get(ctx, "p1"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected record consumed, got %v", err)
	}
}

func TestMutateAbsentRecord(t *testing.T) {
	store := New(instrument.NewNoop())
	ctx := context.Background()

	sawNil := false
	err := store.Mutate(ctx, "p1", func(cur *entity.Passcode) (*entity.Passcode, error) {
		sawNil = cur == nil
		rec := newRecord("p1")
		return &rec, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if !sawNil {
		t.Fatalf("expected nil current record for absent key")
	}

	if _, err := store.Get(ctx, "p1"); err != nil {
		t.Fatalf("expected record created, got %v", err)
	}
}

func TestMutateConcurrentIncrements(t *testing.T) {
	store := New(instrument.NewNoop())
	ctx := context.Background()

	if err := store.Put(ctx, newRecord("p1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			_ = store.Mutate(ctx, "p1", func(cur *entity.Passcode) (*entity.Passcode, error) {
				next := *cur
				next.ValidationAttempts++
				return &next, nil
			})
		})
	}
	wg.Wait()

	rec, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ValidationAttempts != n {
		t.Fatalf("lost updates: expected %d, got %d", n, rec.ValidationAttempts)
	}
}

func TestDeleteExpired(t *testing.T) {
	store := New(instrument.NewNoop())
	ctx := context.Background()

	fresh := newRecord("fresh")
	stale := newRecord("stale")
	stale.ExpiresAt = fresh.ExpiresAt.Add(-time.Hour)

	if err := store.Put(ctx, fresh); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, stale); err != nil {
		t.Fatalf("put: %v", err)
	}

	deleted, err := store.DeleteExpired(ctx, fresh.ExpiresAt)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	if _, err := store.Get(ctx, "stale"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected stale record gone, got %v", err)
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Fatalf("expected fresh record kept, got %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	store := New(instrument.NewNoop())
	ctx := context.Background()

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := store.Get(ctx, "p1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := store.Put(ctx, newRecord("p1")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	err := store.Mutate(ctx, "p1", func(cur *entity.Passcode) (*entity.Passcode, error) {
		return cur, nil
	})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
