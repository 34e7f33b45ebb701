package bookings

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/platform/keymutex"
	"github.com/brightdesk/room-booking-api/internal/ports/out/bookingrepo"
	"github.com/brightdesk/room-booking-api/internal/ports/out/clock"
	"github.com/brightdesk/room-booking-api/internal/ports/out/idempotency"
	"github.com/brightdesk/room-booking-api/internal/ports/out/roomdir"
)

// Service is the booking engine. It orchestrates creation, cancellation and
// availability queries, serializing conflict-check-and-insert per room so
// that no two CONFIRMED bookings for the same room ever overlap.
type Service struct {
	bookings bookingrepo.Repository
	rooms    roomdir.Directory
	idem     idempotency.Store
	clk      clock.Clock

	roomLocks *keymutex.KeyMutex

	newBookingID func() domain.BookingID
}

func NewService(bookingsRepo bookingrepo.Repository, rooms roomdir.Directory, idem idempotency.Store, clk clock.Clock) *Service {
	return &Service{
		bookings:  bookingsRepo,
		rooms:     rooms,
		idem:      idem,
		clk:       clk,
		roomLocks: keymutex.New(),
		newBookingID: func() domain.BookingID {
			return domain.BookingID(uuid.NewString())
		},
	}
}

// SetNewBookingIDForTest overrides booking ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewBookingIDForTest(fn func() domain.BookingID) {
	if fn != nil {
		s.newBookingID = fn
	}
}

// CreateBooking validates the request, honors the idempotency key when one is
// supplied ("" means none), and atomically conflict-checks and inserts a
// CONFIRMED booking.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput, key idempotency.Key) (CreateBookingResult, error) {
	in.Title = domain.NormalizeTitle(in.Title)
	if err := s.validateCreate(ctx, in); err != nil {
		return CreateBookingResult{}, err
	}

	reserved := false
	takenOver := false
	if key != "" {
		res, err := s.idem.Reserve(ctx, key, requestFingerprint(in))
		if err != nil {
			if errors.Is(err, idempotency.ErrKeyReused) {
				return CreateBookingResult{}, &Error{Status: 409, Code: "IDEMPOTENCY_KEY_REUSED", Message: "idempotency key was already used for a different request"}
			}
			return CreateBookingResult{}, internalError(err)
		}
		if res.Outcome == idempotency.OutcomeReplay {
			b, err := s.bookings.GetByID(ctx, res.BookingID)
			if err != nil {
				// Bookings are never deleted, so a completed key always
				// resolves; anything else is a storage fault.
				return CreateBookingResult{}, internalError(err)
			}
			return CreateBookingResult{Booking: toDomainBooking(b), Replayed: true}, nil
		}
		reserved = true
		takenOver = res.Takeover
	}

	unlock := s.roomLocks.Lock(string(in.RoomID))
	defer unlock()

	existing, err := s.conflictingBookings(ctx, in.RoomID, in.StartTime, in.EndTime, "")
	if err != nil {
		s.releaseReservation(ctx, key, reserved)
		return CreateBookingResult{}, internalError(err)
	}
	if len(existing) > 0 {
		// A reservation holder that crashed after insert but before Complete
		// leaves the committed booking behind. Only a taken-over reservation
		// may re-derive completion from its presence; a first-sight key must
		// still conflict even when the payloads coincide.
		if takenOver && len(existing) == 1 && matchesRequest(existing[0], in) {
			if err := s.idem.Complete(ctx, key, existing[0].ID); err != nil && !errors.Is(err, idempotency.ErrNotReserved) {
				return CreateBookingResult{}, internalError(err)
			}
			return CreateBookingResult{Booking: toDomainBooking(existing[0]), Replayed: true}, nil
		}
		s.releaseReservation(ctx, key, reserved)
		return CreateBookingResult{}, &Error{
			Status:  409,
			Code:    "SCHEDULING_CONFLICT",
			Message: "the room is already booked for an overlapping time range",
		}
	}

	now := s.clk.Now()
	b := bookingrepo.Booking{
		ID:          s.newBookingID(),
		RoomID:      in.RoomID,
		UserID:      in.UserID,
		Title:       in.Title,
		Description: cloneStringPtr(in.Description),
		StartTime:   in.StartTime.UTC(),
		EndTime:     in.EndTime.UTC(),
		Status:      bookingrepo.StatusConfirmed,
		CreatedAt:   now,
	}
	if err := s.bookings.Insert(ctx, b); err != nil {
		s.releaseReservation(ctx, key, reserved)
		return CreateBookingResult{}, internalError(err)
	}

	if reserved {
		// A completion failure here is recoverable: the booking is committed,
		// and a retry with the same key replays it via the exact-match path
		// above once the stale reservation is taken over.
		if err := s.idem.Complete(ctx, key, b.ID); err != nil && !errors.Is(err, idempotency.ErrNotReserved) {
			return CreateBookingResult{}, internalError(err)
		}
	}

	return CreateBookingResult{Booking: toDomainBooking(b)}, nil
}

func (s *Service) GetBooking(ctx context.Context, id domain.BookingID) (domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingrepo.ErrNotFound) {
			return domain.Booking{}, &Error{Status: 404, Code: "NOT_FOUND", Message: "booking not found"}
		}
		return domain.Booking{}, internalError(err)
	}
	return toDomainBooking(b), nil
}

// CancelBooking transitions a booking to CANCELLED. Repeat cancellation is an
// idempotent success returning the existing CANCELLED record; cancellation
// never checks conflicts and never fails due to time.
func (s *Service) CancelBooking(ctx context.Context, id domain.BookingID, reason *string) (domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingrepo.ErrNotFound) {
			return domain.Booking{}, &Error{Status: 404, Code: "NOT_FOUND", Message: "booking not found"}
		}
		return domain.Booking{}, internalError(err)
	}
	if b.Status == bookingrepo.StatusCancelled {
		return toDomainBooking(b), nil
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, bookingrepo.StatusCancelled, s.clk.Now(), cloneStringPtr(reason))
	if err != nil {
		if errors.Is(err, bookingrepo.ErrNotFound) {
			return domain.Booking{}, &Error{Status: 404, Code: "NOT_FOUND", Message: "booking not found"}
		}
		return domain.Booking{}, internalError(err)
	}
	return toDomainBooking(updated), nil
}

func (s *Service) ListRooms(ctx context.Context) ([]domain.RoomSummary, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	out := make([]domain.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomSummary(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetAvailability partitions one calendar day of a room into free and
// occupied slots. date is "2006-01-02", interpreted in the room's configured
// timezone, or UTC when the room has none.
func (s *Service) GetAvailability(ctx context.Context, roomID domain.RoomID, date string) (domain.RoomAvailability, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomdir.ErrNotFound) {
			return domain.RoomAvailability{}, &Error{Status: 404, Code: "NOT_FOUND", Message: "room not found"}
		}
		return domain.RoomAvailability{}, internalError(err)
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return domain.RoomAvailability{}, &Error{
			Status:  400,
			Code:    "INVALID_REQUEST",
			Message: "invalid date",
			Details: map[string]any{"date": "must be formatted as YYYY-MM-DD"},
		}
	}

	loc := time.UTC
	if room.Timezone != nil {
		l, err := time.LoadLocation(*room.Timezone)
		if err != nil {
			return domain.RoomAvailability{}, internalError(err)
		}
		loc = l
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	booked, err := s.bookings.ListConfirmedByRoomAndRange(ctx, roomID, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return domain.RoomAvailability{}, internalError(err)
	}

	return domain.RoomAvailability{
		RoomID: roomID,
		Date:   dayStart,
		Slots:  partitionDay(dayStart, dayEnd, booked),
	}, nil
}

func (s *Service) validateCreate(ctx context.Context, in CreateBookingInput) error {
	details := map[string]any{}
	if in.RoomID == "" {
		details["roomId"] = "must be non-empty"
	}
	if in.UserID == "" {
		details["userId"] = "must be non-empty"
	}
	if in.Title == "" {
		details["title"] = "must be non-empty"
	}
	if in.StartTime.IsZero() {
		details["startTime"] = "must be an absolute timestamp"
	}
	if in.EndTime.IsZero() {
		details["endTime"] = "must be an absolute timestamp"
	}
	if !in.StartTime.IsZero() && !in.EndTime.IsZero() && !in.StartTime.Before(in.EndTime) {
		details["endTime"] = "must be strictly after startTime"
	}
	if len(details) > 0 {
		return &Error{Status: 400, Code: "INVALID_REQUEST", Message: "invalid booking request", Details: details}
	}

	if _, err := s.rooms.GetByID(ctx, in.RoomID); err != nil {
		if errors.Is(err, roomdir.ErrNotFound) {
			return &Error{
				Status:  400,
				Code:    "INVALID_REQUEST",
				Message: "invalid booking request",
				Details: map[string]any{"roomId": "unknown room"},
			}
		}
		return internalError(err)
	}
	return nil
}

// releaseReservation marks a held idempotency key FAILED so the same key can
// be retried with the same payload. Best effort on error paths.
func (s *Service) releaseReservation(ctx context.Context, key idempotency.Key, reserved bool) {
	if !reserved {
		return
	}
	_ = s.idem.Fail(ctx, key)
}

// matchesRequest reports whether a stored CONFIRMED booking is exactly the
// booking this request would create.
func matchesRequest(b bookingrepo.Booking, in CreateBookingInput) bool {
	return b.Status == bookingrepo.StatusConfirmed &&
		b.RoomID == in.RoomID &&
		b.UserID == in.UserID &&
		b.Title == in.Title &&
		b.StartTime.Equal(in.StartTime) &&
		b.EndTime.Equal(in.EndTime)
}

func internalError(err error) *Error {
	return &Error{Status: 500, Code: "INTERNAL", Message: err.Error()}
}

func toDomainBooking(b bookingrepo.Booking) domain.Booking {
	return domain.Booking{
		ID:                 b.ID,
		RoomID:             b.RoomID,
		UserID:             b.UserID,
		Title:              b.Title,
		Description:        cloneStringPtr(b.Description),
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Status:             domain.BookingStatus(b.Status),
		CreatedAt:          b.CreatedAt,
		CancelledAt:        cloneTimePtr(b.CancelledAt),
		CancellationReason: cloneStringPtr(b.CancellationReason),
	}
}

func toRoomSummary(r roomdir.Room) domain.RoomSummary {
	return domain.RoomSummary{
		ID:       r.ID,
		Name:     r.Name,
		Capacity: r.Capacity,
		Timezone: cloneStringPtr(r.Timezone),
	}
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
