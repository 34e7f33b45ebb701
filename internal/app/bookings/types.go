package bookings

import (
	"time"

	"github.com/brightdesk/room-booking-api/internal/domain"
)

type CreateBookingInput struct {
	RoomID domain.RoomID
	UserID domain.UserID

	Title       string
	Description *string

	// Half-open interval [StartTime, EndTime); must be absolute instants.
	StartTime time.Time
	EndTime   time.Time
}

// CreateBookingResult distinguishes a freshly created booking from an
// idempotent replay of a previous creation.
type CreateBookingResult struct {
	Booking  domain.Booking
	Replayed bool
}
