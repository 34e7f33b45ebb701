package roomdir

import (
	"context"

	"github.com/brightdesk/room-booking-api/internal/domain"
)

// Room is the directory's shape for a room. The booking core treats rooms as
// read-only reference data and validates existence only.
type Room struct {
	ID       domain.RoomID
	Name     string
	Capacity int

	// Timezone is an IANA zone name ("Europe/Paris"); nil means unspecified
	// and callers fall back to UTC.
	Timezone *string
}

// Directory is the external room directory consumed by validation and
// availability queries.
type Directory interface {
	ListRooms(ctx context.Context) ([]Room, error)
	GetByID(ctx context.Context, id domain.RoomID) (Room, error)
}
