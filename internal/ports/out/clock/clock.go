package clock

import "time"

// Clock is the time source injected into the booking engine. Timestamps on
// bookings and idempotency records flow through it so tests can pin and
// advance time.
type Clock interface {
	Now() time.Time
}
