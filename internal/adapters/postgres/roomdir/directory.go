package roomdir

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/ports/out/roomdir"
)

// Directory is a Postgres implementation of roomdir.Directory backed by a
// read-only rooms table owned by the directory service.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

func (d *Directory) ListRooms(ctx context.Context) ([]roomdir.Room, error) {
	if d.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, capacity, timezone
		FROM rooms
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]roomdir.Room, 0)
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *Directory) GetByID(ctx context.Context, id domain.RoomID) (roomdir.Room, error) {
	if d.pool == nil {
		return roomdir.Room{}, errors.New("nil postgres pool")
	}
	row := d.pool.QueryRow(ctx, `
		SELECT id, name, capacity, timezone
		FROM rooms
		WHERE id = $1
	`, string(id))
	r, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return roomdir.Room{}, roomdir.ErrNotFound
		}
		return roomdir.Room{}, err
	}
	return r, nil
}

func scanRoom(row pgx.Row) (roomdir.Room, error) {
	var (
		r  roomdir.Room
		id string
	)
	if err := row.Scan(&id, &r.Name, &r.Capacity, &r.Timezone); err != nil {
		return roomdir.Room{}, err
	}
	r.ID = domain.RoomID(id)
	return r, nil
}
