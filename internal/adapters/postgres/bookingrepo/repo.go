package bookingrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/brightdesk/room-booking-api/internal/adapters/postgres"
	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/ports/out/bookingrepo"
)

// Repo is a Postgres implementation of bookingrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Insert(ctx context.Context, b bookingrepo.Booking) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookings (
			id,
			room_id,
			user_id,
			title,
			description,
			start_time,
			end_time,
			status,
			created_at,
			cancelled_at,
			cancellation_reason
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		string(b.ID),
		string(b.RoomID),
		string(b.UserID),
		b.Title,
		b.Description,
		b.StartTime.UTC(),
		b.EndTime.UTC(),
		string(b.Status),
		b.CreatedAt.UTC(),
		utcPtr(b.CancelledAt),
		b.CancellationReason,
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return bookingrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.BookingID) (bookingrepo.Booking, error) {
	if r.pool == nil {
		return bookingrepo.Booking{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, room_id, user_id, title, description, start_time, end_time,
		       status, created_at, cancelled_at, cancellation_reason
		FROM bookings
		WHERE id = $1
	`, string(id))
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bookingrepo.Booking{}, bookingrepo.ErrNotFound
		}
		return bookingrepo.Booking{}, err
	}
	return b, nil
}

func (r *Repo) ListConfirmedByRoomAndRange(ctx context.Context, roomID domain.RoomID, start, end time.Time) ([]bookingrepo.Booking, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, user_id, title, description, start_time, end_time,
		       status, created_at, cancelled_at, cancellation_reason
		FROM bookings
		WHERE room_id = $1
		  AND status = 'CONFIRMED'
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time, id
	`, string(roomID), start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]bookingrepo.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateStatus(ctx context.Context, id domain.BookingID, status bookingrepo.Status, at time.Time, reason *string) (bookingrepo.Booking, error) {
	if r.pool == nil {
		return bookingrepo.Booking{}, errors.New("nil postgres pool")
	}
	// COALESCE keeps the first transition's fields when a repeat update races in.
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    cancelled_at = CASE WHEN $2 = 'CANCELLED' THEN COALESCE(cancelled_at, $3) ELSE cancelled_at END,
		    cancellation_reason = CASE WHEN $2 = 'CANCELLED' THEN COALESCE(cancellation_reason, $4) ELSE cancellation_reason END
		WHERE id = $1
		RETURNING id, room_id, user_id, title, description, start_time, end_time,
		          status, created_at, cancelled_at, cancellation_reason
	`, string(id), string(status), at.UTC(), reason)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bookingrepo.Booking{}, bookingrepo.ErrNotFound
		}
		return bookingrepo.Booking{}, err
	}
	return b, nil
}

func scanBooking(row pgx.Row) (bookingrepo.Booking, error) {
	var (
		b           bookingrepo.Booking
		id, room    string
		user        string
		status      string
		cancelledAt *time.Time
	)
	if err := row.Scan(
		&id,
		&room,
		&user,
		&b.Title,
		&b.Description,
		&b.StartTime,
		&b.EndTime,
		&status,
		&b.CreatedAt,
		&cancelledAt,
		&b.CancellationReason,
	); err != nil {
		return bookingrepo.Booking{}, err
	}
	b.ID = domain.BookingID(id)
	b.RoomID = domain.RoomID(room)
	b.UserID = domain.UserID(user)
	b.Status = bookingrepo.Status(status)
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	if cancelledAt != nil {
		v := cancelledAt.UTC()
		b.CancelledAt = &v
	}
	return b, nil
}

func utcPtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := p.UTC()
	return &v
}
