package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/ports/out/clock"
	"github.com/brightdesk/room-booking-api/internal/ports/out/idempotency"
)

// pollInterval paces waiters watching a pending reservation held by another
// process. The memory adapter can wake waiters directly; across processes we
// poll.
const pollInterval = 100 * time.Millisecond

// Store is a Postgres implementation of idempotency.Store.
//
// Reservation is a single conditional upsert: it wins the row when the key is
// absent, expired, or FAILED with the same fingerprint. Everything else is
// decided from a follow-up read.
type Store struct {
	pool *pgxpool.Pool
	clk  clock.Clock
	ttl  time.Duration
}

func NewStore(pool *pgxpool.Pool, clk clock.Clock, ttl time.Duration) *Store {
	return &Store{pool: pool, clk: clk, ttl: ttl}
}

func (s *Store) Reserve(ctx context.Context, key idempotency.Key, fingerprint string) (idempotency.Result, error) {
	if s.pool == nil {
		return idempotency.Result{}, errors.New("nil postgres pool")
	}
	for {
		now := s.clk.Now()

		// xmax is zero on a freshly inserted row and non-zero when the upsert
		// displaced an existing record, which is exactly the takeover signal.
		var takeover bool
		err := s.pool.QueryRow(ctx, `
			INSERT INTO idempotency_keys (key, fingerprint, state, booking_id, created_at, expires_at)
			VALUES ($1, $2, 'PENDING', NULL, $3, $4)
			ON CONFLICT (key) DO UPDATE
			SET fingerprint = EXCLUDED.fingerprint,
			    state = 'PENDING',
			    booking_id = NULL,
			    created_at = EXCLUDED.created_at,
			    expires_at = EXCLUDED.expires_at
			WHERE idempotency_keys.expires_at <= EXCLUDED.created_at
			   OR (idempotency_keys.state = 'FAILED' AND idempotency_keys.fingerprint = EXCLUDED.fingerprint)
			RETURNING (xmax <> 0)
		`, string(key), fingerprint, now, now.Add(s.ttl)).Scan(&takeover)
		if err == nil {
			return idempotency.Result{Outcome: idempotency.OutcomeReserved, Takeover: takeover}, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return idempotency.Result{}, err
		}
		// Lost the upsert to a live record; decide from a follow-up read.

		var (
			storedFP  string
			state     string
			bookingID *string
		)
		err = s.pool.QueryRow(ctx, `
			SELECT fingerprint, state, booking_id
			FROM idempotency_keys
			WHERE key = $1 AND expires_at > $2
		`, string(key), now).Scan(&storedFP, &state, &bookingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Row vanished or expired between statements; retry the upsert.
				continue
			}
			return idempotency.Result{}, err
		}

		if storedFP != fingerprint {
			return idempotency.Result{}, idempotency.ErrKeyReused
		}
		switch idempotency.State(state) {
		case idempotency.StateCompleted:
			if bookingID == nil {
				return idempotency.Result{}, errors.New("completed idempotency key has no booking id")
			}
			return idempotency.Result{Outcome: idempotency.OutcomeReplay, BookingID: domain.BookingID(*bookingID)}, nil
		case idempotency.StateFailed:
			// Eligible for takeover; loop back to the upsert.
		default:
			select {
			case <-ctx.Done():
				return idempotency.Result{}, ctx.Err()
			case <-time.After(pollInterval):
			}
		}
	}
}

func (s *Store) Complete(ctx context.Context, key idempotency.Key, bookingID domain.BookingID) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET state = 'COMPLETED', booking_id = $2
		WHERE key = $1 AND state = 'PENDING' AND expires_at > $3
	`, string(key), string(bookingID), s.clk.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return idempotency.ErrNotReserved
	}
	return nil
}

func (s *Store) Fail(ctx context.Context, key idempotency.Key) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET state = 'FAILED'
		WHERE key = $1 AND state = 'PENDING' AND expires_at > $2
	`, string(key), s.clk.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return idempotency.ErrNotReserved
	}
	return nil
}
