package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goalpass/goalpass/internal/journal/entity"
	"github.com/goalpass/goalpass/internal/pkg/clock"
	"github.com/goalpass/goalpass/internal/pkg/config"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"github.com/goalpass/goalpass/internal/pkg/validator"
)

type fakeRepo struct {
	entries   []entity.Entry
	createErr error
	listErr   error
}

func (f *fakeRepo) CreateEntry(_ context.Context, entry entity.Entry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, entry)

	return nil
}

func (f *fakeRepo) ListEntries(_ context.Context, playerID string, limit int32) ([]entity.Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []entity.Entry
	for _, e := range f.entries {
		if e.PlayerID == playerID && int32(len(out)) < limit {
			out = append(out, e)
		}
	}

	return out, nil
}

type seqID struct{ n int64 }

func (s *seqID) Generate() int64 {
	s.n++
	return s.n
}

func newTestUsecase(t *testing.T, repo *fakeRepo) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  journal:\n    enabled: true\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	return New(Dependency{
		RepoDB:     repo,
		Validator:  v10,
		Config:     cfg,
		UID:        &seqID{},
		Clock:      clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Instrument: instrument.NewNoop(),
	})
}

func TestRecordIssued(t *testing.T) {
	repo := &fakeRepo{}
	uc := newTestUsecase(t, repo)

	err := uc.RecordIssued(context.Background(), RecordIssuedInput{
		PlayerID:           "p1",
		ContactAddress:     "a@b.com",
		GenerationAttempts: 1,
	})
	if err != nil {
		t.Fatalf("record issued: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.Kind != entity.KindIssued || entry.Outcome != "issued" || entry.ID != 1 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestRecordIssuedDropsInvalidPayload(t *testing.T) {
	repo := &fakeRepo{}
	uc := newTestUsecase(t, repo)

	// Malformed payloads are logged and dropped, not redelivered.
	err := uc.RecordIssued(context.Background(), RecordIssuedInput{PlayerID: "", ContactAddress: "bad"})
	if err != nil {
		t.Fatalf("expected nil for invalid payload, got %v", err)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(repo.entries))
	}
}

func TestRecordValidatedPropagatesStorageFailure(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("db down")}
	uc := newTestUsecase(t, repo)

	err := uc.RecordValidated(context.Background(), RecordValidatedInput{
		PlayerID:           "p1",
		ContactAddress:     "a@b.com",
		Outcome:            "mismatch",
		ValidationAttempts: 1,
	})
	if !errors.Is(err, repo.createErr) {
		t.Fatalf("expected storage error propagated, got %v", err)
	}
}

func TestListEntries(t *testing.T) {
	repo := &fakeRepo{}
	uc := newTestUsecase(t, repo)

	for range 3 {
		if err := uc.RecordValidated(context.Background(), RecordValidatedInput{
			PlayerID:           "p1",
			ContactAddress:     "a@b.com",
			Outcome:            "mismatch",
			ValidationAttempts: 1,
		}); err != nil {
			t.Fatalf("record validated: %v", err)
		}
	}

	entries, err := uc.ListEntries(context.Background(), ListEntriesInput{PlayerID: "p1", Limit: 2})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit applied, got %d entries", len(entries))
	}

	if _, err := uc.ListEntries(context.Background(), ListEntriesInput{PlayerID: ""}); err == nil {
		t.Fatalf("expected validation error for empty player id")
	}
}
