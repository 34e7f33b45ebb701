package bookingrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/ports/out/bookingrepo"
)

// Repo is an in-memory implementation of bookingrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.BookingID]bookingrepo.Booking
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.BookingID]bookingrepo.Booking),
	}
}

func (r *Repo) Insert(ctx context.Context, b bookingrepo.Booking) error {
	_ = ctx
	if b.ID == "" {
		return bookingrepo.ErrAlreadyExists // treat empty ID as invalid for now
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[b.ID]; ok {
		return bookingrepo.ErrAlreadyExists
	}
	r.byID[b.ID] = cloneBooking(b)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.BookingID) (bookingrepo.Booking, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return bookingrepo.Booking{}, bookingrepo.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *Repo) ListConfirmedByRoomAndRange(ctx context.Context, roomID domain.RoomID, start, end time.Time) ([]bookingrepo.Booking, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]bookingrepo.Booking, 0)
	for _, b := range r.byID {
		if b.RoomID != roomID || b.Status != bookingrepo.StatusConfirmed {
			continue
		}
		// Half-open overlap: [StartTime, EndTime) intersects [start, end).
		if b.StartTime.Before(end) && start.Before(b.EndTime) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return string(out[i].ID) < string(out[j].ID)
	})
	return out, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id domain.BookingID, status bookingrepo.Status, at time.Time, reason *string) (bookingrepo.Booking, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return bookingrepo.Booking{}, bookingrepo.ErrNotFound
	}
	if b.Status == status {
		// Idempotent: the first transition's fields stand.
		return cloneBooking(b), nil
	}
	b.Status = status
	if status == bookingrepo.StatusCancelled {
		ts := at.UTC()
		b.CancelledAt = &ts
		b.CancellationReason = cloneStringPtr(reason)
	}
	r.byID[id] = b
	return cloneBooking(b), nil
}

func cloneBooking(b bookingrepo.Booking) bookingrepo.Booking {
	cp := b
	cp.Description = cloneStringPtr(b.Description)
	cp.CancellationReason = cloneStringPtr(b.CancellationReason)
	if b.CancelledAt != nil {
		v := *b.CancelledAt
		cp.CancelledAt = &v
	}
	return cp
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
