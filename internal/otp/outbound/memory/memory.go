package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goalpass/goalpass/internal/otp/entity"
	"github.com/goalpass/goalpass/internal/pkg/goerror"
	"github.com/goalpass/goalpass/internal/pkg/instrument"
	"go.uber.org/atomic"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("passcode store is closed")

// Store is the in-memory passcode store, used for local runs and as the
// reference implementation of the store semantics. Mutations for the same
// player are serialized on a per-key mutex; different players never contend.
type Store struct {
	ins    instrument.Instrumentation
	closed atomic.Bool

	mu   sync.Mutex
	recs map[string]entity.Passcode
	keys map[string]*sync.Mutex
}

func New(ins instrument.Instrumentation) *Store {
	return &Store{
		ins:  ins,
		recs: make(map[string]entity.Passcode),
		keys: make(map[string]*sync.Mutex),
	}
}

func (s *Store) keyLock(playerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.keys[playerID]
	if !ok {
		lock = &sync.Mutex{}
		s.keys[playerID] = lock
	}

	return lock
}

func (s *Store) Get(ctx context.Context, playerID string) (*entity.Passcode, error) {
	_, span := s.ins.Tracer("otp.outbound.memory").Start(ctx, "Get")
	defer span.End()

	if s.closed.Load() {
		return nil, ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[playerID]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &rec, nil
}

func (s *Store) Put(ctx context.Context, rec entity.Passcode) error {
	_, span := s.ins.Tracer("otp.outbound.memory").Start(ctx, "Put")
	defer span.End()

	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.recs[rec.PlayerID] = rec

	return nil
}

func (s *Store) Mutate(ctx context.Context, playerID string, fn entity.Mutator) error {
	_, span := s.ins.Tracer("otp.outbound.memory").Start(ctx, "Mutate")
	defer span.End()

	if s.closed.Load() {
		return ErrClosed
	}

	lock := s.keyLock(playerID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	rec, ok := s.recs[playerID]
	s.mu.Unlock()

	var cur *entity.Passcode
	if ok {
		cp := rec
		cur = &cp
	}

	next, verdict := fn(cur)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case next != nil:
		s.recs[playerID] = *next
	case verdict == nil && ok:
		delete(s.recs, playerID)
	}

	return verdict
}

func (s *Store) Delete(ctx context.Context, playerID string) error {
	_, span := s.ins.Tracer("otp.outbound.memory").Start(ctx, "Delete")
	defer span.End()

	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.recs, playerID)

	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	_, span := s.ins.Tracer("otp.outbound.memory").Start(ctx, "DeleteExpired")
	defer span.End()

	if s.closed.Load() {
		return 0, ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, rec := range s.recs {
		if rec.ExpiresAt.Before(olderThan) {
			delete(s.recs, id)
			deleted++
		}
	}

	return deleted, nil
}

// Close marks the store closed; subsequent operations return ErrClosed.
func (s *Store) Close() error {
	s.closed.Store(true)

	return nil
}
