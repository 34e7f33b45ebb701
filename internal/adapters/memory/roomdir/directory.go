package roomdir

import (
	"context"
	"sort"
	"sync"

	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/ports/out/roomdir"
)

// Directory is an in-memory implementation of roomdir.Directory, seeded at
// startup. It is safe for concurrent use.
type Directory struct {
	mu   sync.RWMutex
	byID map[domain.RoomID]roomdir.Room
}

func NewDirectory(rooms ...roomdir.Room) *Directory {
	d := &Directory{byID: make(map[domain.RoomID]roomdir.Room, len(rooms))}
	for _, r := range rooms {
		d.byID[r.ID] = cloneRoom(r)
	}
	return d
}

func (d *Directory) ListRooms(ctx context.Context) ([]roomdir.Room, error) {
	_ = ctx
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]roomdir.Room, 0, len(d.byID))
	for _, r := range d.byID {
		out = append(out, cloneRoom(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return string(out[i].ID) < string(out[j].ID)
	})
	return out, nil
}

func (d *Directory) GetByID(ctx context.Context, id domain.RoomID) (roomdir.Room, error) {
	_ = ctx
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.byID[id]
	if !ok {
		return roomdir.Room{}, roomdir.ErrNotFound
	}
	return cloneRoom(r), nil
}

func cloneRoom(r roomdir.Room) roomdir.Room {
	cp := r
	if r.Timezone != nil {
		v := *r.Timezone
		cp.Timezone = &v
	}
	return cp
}
