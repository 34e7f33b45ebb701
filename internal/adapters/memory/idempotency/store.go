package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/ports/out/clock"
	"github.com/brightdesk/room-booking-api/internal/ports/out/idempotency"
)

// Store is an in-memory implementation of idempotency.Store.
// It is safe for concurrent use.
//
// Concurrent duplicates block on a per-entry channel that the reservation
// holder closes on Complete or Fail. Expired entries (including pending ones
// abandoned by a crashed holder) are purged lazily on access.
type Store struct {
	mu  sync.Mutex
	m   map[idempotency.Key]*entry
	clk clock.Clock
	ttl time.Duration
}

type entry struct {
	fingerprint string
	state       idempotency.State
	bookingID   domain.BookingID
	createdAt   time.Time
	expiresAt   time.Time

	// done is closed when the pending reservation finishes.
	done chan struct{}
}

func NewStore(clk clock.Clock, ttl time.Duration) *Store {
	return &Store{
		m:   make(map[idempotency.Key]*entry),
		clk: clk,
		ttl: ttl,
	}
}

func (s *Store) Reserve(ctx context.Context, key idempotency.Key, fingerprint string) (idempotency.Result, error) {
	for {
		s.mu.Lock()
		purged := s.purgeLocked(key)

		e, ok := s.m[key]
		if !ok {
			now := s.clk.Now()
			s.m[key] = &entry{
				fingerprint: fingerprint,
				state:       idempotency.StatePending,
				createdAt:   now,
				expiresAt:   now.Add(s.ttl),
				done:        make(chan struct{}),
			}
			s.mu.Unlock()
			return idempotency.Result{Outcome: idempotency.OutcomeReserved, Takeover: purged}, nil
		}

		if e.fingerprint != fingerprint {
			s.mu.Unlock()
			return idempotency.Result{}, idempotency.ErrKeyReused
		}

		switch e.state {
		case idempotency.StateCompleted:
			id := e.bookingID
			s.mu.Unlock()
			return idempotency.Result{Outcome: idempotency.OutcomeReplay, BookingID: id}, nil
		case idempotency.StateFailed:
			// Take over the reservation so the retry runs a fresh attempt.
			now := s.clk.Now()
			e.state = idempotency.StatePending
			e.createdAt = now
			e.expiresAt = now.Add(s.ttl)
			e.done = make(chan struct{})
			s.mu.Unlock()
			return idempotency.Result{Outcome: idempotency.OutcomeReserved, Takeover: true}, nil
		default:
			done := e.done
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return idempotency.Result{}, ctx.Err()
			case <-done:
				// Holder finished (or its entry expired); re-inspect.
			}
		}
	}
}

func (s *Store) Complete(ctx context.Context, key idempotency.Key, bookingID domain.BookingID) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(key)
	e, ok := s.m[key]
	if !ok || e.state != idempotency.StatePending {
		return idempotency.ErrNotReserved
	}
	e.state = idempotency.StateCompleted
	e.bookingID = bookingID
	close(e.done)
	return nil
}

func (s *Store) Fail(ctx context.Context, key idempotency.Key) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(key)
	e, ok := s.m[key]
	if !ok || e.state != idempotency.StatePending {
		return idempotency.ErrNotReserved
	}
	e.state = idempotency.StateFailed
	close(e.done)
	return nil
}

// purgeLocked drops the entry for key if its retention window has passed,
// waking any waiters so they re-reserve. It reports whether an entry was
// dropped. Caller holds s.mu.
func (s *Store) purgeLocked(key idempotency.Key) bool {
	e, ok := s.m[key]
	if !ok {
		return false
	}
	if e.expiresAt.After(s.clk.Now()) {
		return false
	}
	if e.state == idempotency.StatePending {
		close(e.done)
	}
	delete(s.m, key)
	return true
}
