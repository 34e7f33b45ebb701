package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/brightdesk/room-booking-api/internal/adapters/memory/clock"
	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/ports/out/idempotency"
)

func TestStore_ConcurrentDuplicateBlocksUntilCompletion(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	s := NewStore(clk, 24*time.Hour)
	ctx := context.Background()

	res, err := s.Reserve(ctx, "k1", "fp")
	if err != nil || res.Outcome != idempotency.OutcomeReserved || res.Takeover {
		t.Fatalf("first Reserve: res=%+v err=%v", res, err)
	}

	type outcome struct {
		res idempotency.Result
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		r, err := s.Reserve(ctx, "k1", "fp")
		second <- outcome{r, err}
	}()

	// The duplicate must not return before the holder finishes.
	select {
	case o := <-second:
		t.Fatalf("duplicate returned early: %+v", o)
	case <-time.After(50 * time.Millisecond):
	}

	if err := s.Complete(ctx, "k1", domain.BookingID("b1")); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	select {
	case o := <-second:
		if o.err != nil || o.res.Outcome != idempotency.OutcomeReplay || o.res.BookingID != "b1" {
			t.Fatalf("duplicate outcome: %+v err=%v", o.res, o.err)
		}
	case <-time.After(time.Second):
		t.Fatalf("duplicate did not wake after completion")
	}
}

func TestStore_DuplicateTakesOverAfterFailure(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	s := NewStore(clk, 24*time.Hour)
	ctx := context.Background()

	if _, err := s.Reserve(ctx, "k1", "fp"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	second := make(chan idempotency.Result, 1)
	go func() {
		r, err := s.Reserve(ctx, "k1", "fp")
		if err != nil {
			t.Errorf("duplicate Reserve: %v", err)
		}
		second <- r
	}()

	time.Sleep(20 * time.Millisecond)
	if err := s.Fail(ctx, "k1"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	select {
	case r := <-second:
		if r.Outcome != idempotency.OutcomeReserved || !r.Takeover {
			t.Fatalf("takeover result=%+v, want RESERVED with Takeover", r)
		}
	case <-time.After(time.Second):
		t.Fatalf("duplicate did not take over after failure")
	}
}

func TestStore_ReserveHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	s := NewStore(clk, 24*time.Hour)

	if _, err := s.Reserve(context.Background(), "k1", "fp"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := s.Reserve(ctx, "k1", "fp"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v, want DeadlineExceeded", err)
	}
}

func TestStore_ExpiredKeyIsFresh(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	s := NewStore(clk, time.Hour)
	ctx := context.Background()

	if _, err := s.Reserve(ctx, "k1", "fp"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := s.Complete(ctx, "k1", "b1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	clk.Advance(2 * time.Hour)

	// After retention, even a different payload may use the key again. The
	// displaced record is still reported so callers can reconcile prior work.
	res, err := s.Reserve(ctx, "k1", "fp-other")
	if err != nil {
		t.Fatalf("Reserve after expiry: %v", err)
	}
	if res.Outcome != idempotency.OutcomeReserved || !res.Takeover {
		t.Fatalf("result=%+v, want RESERVED with Takeover", res)
	}
}

func TestStore_CompleteWithoutReservation(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	s := NewStore(clk, time.Hour)

	if err := s.Complete(context.Background(), "nope", "b1"); !errors.Is(err, idempotency.ErrNotReserved) {
		t.Fatalf("err=%v, want ErrNotReserved", err)
	}
}
