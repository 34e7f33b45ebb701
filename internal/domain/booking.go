package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is the domain read model returned by engine operations.
// Cancellation fields are nil unless Status is CANCELLED.
type Booking struct {
	ID     BookingID
	RoomID RoomID
	UserID UserID

	Title       string
	Description *string

	// Half-open interval [StartTime, EndTime); both UTC.
	StartTime time.Time
	EndTime   time.Time

	Status BookingStatus

	CreatedAt          time.Time
	CancelledAt        *time.Time
	CancellationReason *string
}
