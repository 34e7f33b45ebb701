package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/brightdesk/room-booking-api/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

type State string

const (
	StatePending   State = "PENDING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

type Outcome string

const (
	// OutcomeReserved means the caller holds the key and must finish with
	// Complete or Fail.
	OutcomeReserved Outcome = "RESERVED"

	// OutcomeReplay means an identical request already completed; BookingID
	// carries its result.
	OutcomeReplay Outcome = "REPLAY"
)

// Result is the outcome of a Reserve call. BookingID is set only for
// OutcomeReplay.
//
// Takeover is set only with OutcomeReserved: the reservation displaced an
// earlier record for the key (FAILED, or past its retention window) instead
// of creating a fresh one. A displaced PENDING record means a prior holder
// died mid-flight and may have committed work; callers use the flag to
// reconcile with that work rather than conflict against it.
type Result struct {
	Outcome   Outcome
	BookingID domain.BookingID
	Takeover  bool
}

// Record is the stored state for one key. A key maps to exactly one record;
// the fingerprint is immutable once recorded.
type Record struct {
	Key         Key
	Fingerprint string
	State       State
	BookingID   domain.BookingID
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// ErrKeyReused is returned when a key is presented with a fingerprint that
// differs from the one it was first recorded with. This is a client key
// collision, not a scheduling conflict.
var ErrKeyReused = errors.New("idempotency key reused with a different request")

// ErrNotReserved is returned by Complete/Fail when the key has no pending
// reservation (never reserved, expired, or already finished).
var ErrNotReserved = errors.New("idempotency key is not reserved")

// Store is the reserve/complete/fail protocol backing idempotent creation.
//
// Reserve is atomic with respect to concurrent callers presenting the same
// key: exactly one obtains OutcomeReserved while its reservation is pending.
// A caller that finds the key pending blocks until the holder calls Complete
// (then replays) or Fail (then takes over the reservation), honoring ctx
// cancellation. Records expire after the store's retention window; expiry is
// advisory — a re-presented key after expiry is treated as fresh.
type Store interface {
	Reserve(ctx context.Context, key Key, fingerprint string) (Result, error)
	Complete(ctx context.Context, key Key, bookingID domain.BookingID) error
	Fail(ctx context.Context, key Key) error
}
