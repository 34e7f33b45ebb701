package roomdir

import (
	"context"
	"testing"

	"github.com/brightdesk/room-booking-api/internal/adapters/contracttest"
	"github.com/brightdesk/room-booking-api/internal/adapters/postgres/testutil"
	roomdirport "github.com/brightdesk/room-booking-api/internal/ports/out/roomdir"
)

func TestContract_PostgresRoomDirectory(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunRoomDirectory(t, func(t *testing.T, rooms []roomdirport.Room) (roomdirport.Directory, func()) {
		t.Helper()
		for _, r := range rooms {
			if _, err := pool.Exec(context.Background(), `
				INSERT INTO rooms (id, name, capacity, timezone) VALUES ($1,$2,$3,$4)
			`, string(r.ID), r.Name, r.Capacity, r.Timezone); err != nil {
				t.Fatalf("seed room %s: %v", r.ID, err)
			}
		}
		return NewDirectory(pool), nil
	})
}
