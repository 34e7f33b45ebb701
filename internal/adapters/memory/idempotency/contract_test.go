package idempotency

import (
	"testing"
	"time"

	"github.com/brightdesk/room-booking-api/internal/adapters/contracttest"
	memclock "github.com/brightdesk/room-booking-api/internal/adapters/memory/clock"
	idempotencyport "github.com/brightdesk/room-booking-api/internal/ports/out/idempotency"
)

func TestContract_IdempotencyStore(t *testing.T) {
	contracttest.RunIdempotencyStore(t, func(t *testing.T) (idempotencyport.Store, func()) {
		t.Helper()
		clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
		return NewStore(clk, 24*time.Hour), nil
	})
}
