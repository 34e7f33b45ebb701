package bookings

import (
	"context"
	"time"

	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/ports/out/bookingrepo"
)

// overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap: a booking
// ending exactly when another starts is not a conflict.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// conflictingBookings returns the CONFIRMED bookings for roomID whose
// intervals overlap [start, end). exclude ignores one booking id so
// re-validation of an existing booking does not conflict with itself; pass ""
// to exclude nothing.
//
// Callers must hold the room lock when the answer gates an insert.
func (s *Service) conflictingBookings(ctx context.Context, roomID domain.RoomID, start, end time.Time, exclude domain.BookingID) ([]bookingrepo.Booking, error) {
	existing, err := s.bookings.ListConfirmedByRoomAndRange(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}
	out := existing[:0]
	for _, b := range existing {
		if exclude != "" && b.ID == exclude {
			continue
		}
		if overlaps(start, end, b.StartTime, b.EndTime) {
			out = append(out, b)
		}
	}
	return out, nil
}

// partitionDay subtracts the booked intervals from [dayStart, dayEnd) and
// returns the resulting alternating free/occupied slots. booked must be
// sorted by start time; intervals are clipped to the day bounds.
func partitionDay(dayStart, dayEnd time.Time, booked []bookingrepo.Booking) []domain.TimeSlot {
	slots := make([]domain.TimeSlot, 0, 2*len(booked)+1)
	cursor := dayStart

	for _, b := range booked {
		start, end := b.StartTime, b.EndTime
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		if !end.After(cursor) {
			continue
		}
		if start.Before(cursor) {
			start = cursor
		}
		if start.After(cursor) {
			slots = append(slots, domain.TimeSlot{StartTime: cursor, EndTime: start, Available: true})
		}
		slots = append(slots, domain.TimeSlot{StartTime: start, EndTime: end, Available: false})
		cursor = end
	}

	if cursor.Before(dayEnd) {
		slots = append(slots, domain.TimeSlot{StartTime: cursor, EndTime: dayEnd, Available: true})
	}
	return slots
}
