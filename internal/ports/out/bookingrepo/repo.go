package bookingrepo

import (
	"context"
	"time"

	"github.com/brightdesk/room-booking-api/internal/domain"
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Booking is the persistence shape used by the booking repository.
// It is not an HTTP DTO.
type Booking struct {
	ID     domain.BookingID
	RoomID domain.RoomID
	UserID domain.UserID

	Title       string
	Description *string

	// Half-open interval [StartTime, EndTime); stored in UTC.
	StartTime time.Time
	EndTime   time.Time

	Status Status

	CreatedAt          time.Time
	CancelledAt        *time.Time
	CancellationReason *string
}

// Repository provides access to persisted bookings.
//
// Bookings are never deleted: cancelled records are retained for audit and
// idempotent replay.
type Repository interface {
	Insert(ctx context.Context, b Booking) error

	GetByID(ctx context.Context, id domain.BookingID) (Booking, error)

	// ListConfirmedByRoomAndRange returns CONFIRMED bookings for roomID whose
	// half-open interval overlaps [start, end), ordered by StartTime ascending.
	ListConfirmedByRoomAndRange(ctx context.Context, roomID domain.RoomID, start, end time.Time) ([]Booking, error)

	// UpdateStatus transitions a booking's status and returns the updated
	// record. at/reason populate CancelledAt/CancellationReason when the new
	// status is CANCELLED.
	UpdateStatus(ctx context.Context, id domain.BookingID, status Status, at time.Time, reason *string) (Booking, error)
}
