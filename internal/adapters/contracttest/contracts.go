package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brightdesk/room-booking-api/internal/domain"
	bookingrepoport "github.com/brightdesk/room-booking-api/internal/ports/out/bookingrepo"
	idempotencyport "github.com/brightdesk/room-booking-api/internal/ports/out/idempotency"
	roomdirport "github.com/brightdesk/room-booking-api/internal/ports/out/roomdir"
)

type CleanupFunc = func()

type BookingRepoFactory func(t *testing.T) (bookingrepoport.Repository, CleanupFunc)
type RoomDirFactory func(t *testing.T, rooms []roomdirport.Room) (roomdirport.Directory, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunBookingRepo(t *testing.T, newRepo BookingRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	roomID := domain.RoomID(uuid.NewString())
	aID := domain.BookingID(uuid.NewString())
	desc := "standup"
	a := bookingrepoport.Booking{
		ID:          aID,
		RoomID:      roomID,
		UserID:      "user-a",
		Title:       "Standup",
		Description: &desc,
		StartTime:   now.Add(1 * time.Hour),
		EndTime:     now.Add(2 * time.Hour),
		Status:      bookingrepoport.StatusConfirmed,
		CreatedAt:   now,
	}
	if err := repo.Insert(ctx, a); err != nil {
		t.Fatalf("Insert a: %v", err)
	}

	// ID uniqueness.
	if err := repo.Insert(ctx, a); !errors.Is(err, bookingrepoport.ErrAlreadyExists) {
		t.Fatalf("Insert duplicate: err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, aID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Standup" || got.Status != bookingrepoport.StatusConfirmed || got.Description == nil || *got.Description != "standup" {
		t.Fatalf("unexpected booking: %+v", got)
	}
	if !got.StartTime.Equal(a.StartTime) || !got.EndTime.Equal(a.EndTime) {
		t.Fatalf("interval mismatch: got [%v,%v)", got.StartTime, got.EndTime)
	}

	if _, err := repo.GetByID(ctx, domain.BookingID(uuid.NewString())); !errors.Is(err, bookingrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing: err=%v, want ErrNotFound", err)
	}

	// Range overlap is half-open: adjacent bookings do not match each other's range.
	bID := domain.BookingID(uuid.NewString())
	if err := repo.Insert(ctx, bookingrepoport.Booking{
		ID:        bID,
		RoomID:    roomID,
		UserID:    "user-b",
		Title:     "Retro",
		StartTime: now.Add(2 * time.Hour),
		EndTime:   now.Add(3 * time.Hour),
		Status:    bookingrepoport.StatusConfirmed,
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("Insert b: %v", err)
	}
	inRange, err := repo.ListConfirmedByRoomAndRange(ctx, roomID, now.Add(1*time.Hour), now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListConfirmedByRoomAndRange: %v", err)
	}
	if len(inRange) != 1 || inRange[0].ID != aID {
		t.Fatalf("unexpected range result: %#v", inRange)
	}

	// Ordering by start time.
	both, err := repo.ListConfirmedByRoomAndRange(ctx, roomID, now, now.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("ListConfirmedByRoomAndRange all: %v", err)
	}
	if len(both) != 2 || both[0].ID != aID || both[1].ID != bID {
		t.Fatalf("unexpected ordering: %#v", both)
	}

	// Status transition removes the booking from confirmed range queries and
	// keeps the record readable.
	reason := "meeting moved"
	cancelled, err := repo.UpdateStatus(ctx, aID, bookingrepoport.StatusCancelled, now.Add(10*time.Minute), &reason)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if cancelled.Status != bookingrepoport.StatusCancelled || cancelled.CancelledAt == nil || cancelled.CancellationReason == nil {
		t.Fatalf("unexpected cancelled record: %+v", cancelled)
	}

	// Repeat transition keeps the first transition's fields.
	otherReason := "second attempt"
	again, err := repo.UpdateStatus(ctx, aID, bookingrepoport.StatusCancelled, now.Add(1*time.Hour), &otherReason)
	if err != nil {
		t.Fatalf("UpdateStatus repeat: %v", err)
	}
	if !again.CancelledAt.Equal(*cancelled.CancelledAt) || *again.CancellationReason != reason {
		t.Fatalf("repeat transition overwrote fields: %+v", again)
	}

	afterCancel, err := repo.ListConfirmedByRoomAndRange(ctx, roomID, now, now.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("ListConfirmedByRoomAndRange after cancel: %v", err)
	}
	if len(afterCancel) != 1 || afterCancel[0].ID != bID {
		t.Fatalf("cancelled booking still listed: %#v", afterCancel)
	}

	if _, err := repo.UpdateStatus(ctx, domain.BookingID(uuid.NewString()), bookingrepoport.StatusCancelled, now, nil); !errors.Is(err, bookingrepoport.ErrNotFound) {
		t.Fatalf("UpdateStatus missing: err=%v, want ErrNotFound", err)
	}
}

func RunRoomDirectory(t *testing.T, newDir RoomDirFactory) {
	t.Helper()
	ctx := context.Background()

	tz := "Europe/Paris"
	rooms := []roomdirport.Room{
		{ID: "room-b", Name: "Curie", Capacity: 8, Timezone: &tz},
		{ID: "room-a", Name: "Einstein", Capacity: 12},
	}
	dir, cleanup := newDir(t, rooms)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	got, err := dir.GetByID(ctx, "room-b")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Curie" || got.Capacity != 8 || got.Timezone == nil || *got.Timezone != tz {
		t.Fatalf("unexpected room: %+v", got)
	}

	if _, err := dir.GetByID(ctx, "room-x"); !errors.Is(err, roomdirport.ErrNotFound) {
		t.Fatalf("GetByID missing: err=%v, want ErrNotFound", err)
	}

	// Deterministic ordering by name.
	all, err := dir.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Curie" || all[1].Name != "Einstein" {
		t.Fatalf("unexpected listing: %#v", all)
	}
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	key := idempotencyport.Key("k-" + uuid.NewString())
	const fp = "fp-abc"

	// First sight: reserved, and not a takeover.
	res, err := store.Reserve(ctx, key, fp)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.Outcome != idempotencyport.OutcomeReserved || res.Takeover {
		t.Fatalf("result=%+v, want fresh RESERVED", res)
	}

	// Same key, different fingerprint: client key collision.
	if _, err := store.Reserve(ctx, key, "fp-other"); !errors.Is(err, idempotencyport.ErrKeyReused) {
		t.Fatalf("Reserve mismatched fp: err=%v, want ErrKeyReused", err)
	}

	bookingID := domain.BookingID(uuid.NewString())
	if err := store.Complete(ctx, key, bookingID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// Replays are stable across repetition.
	for i := 0; i < 3; i++ {
		res, err := store.Reserve(ctx, key, fp)
		if err != nil {
			t.Fatalf("Reserve replay %d: %v", i, err)
		}
		if res.Outcome != idempotencyport.OutcomeReplay || res.BookingID != bookingID {
			t.Fatalf("replay %d: %+v", i, res)
		}
	}

	// Complete on a finished key is rejected.
	if err := store.Complete(ctx, key, bookingID); !errors.Is(err, idempotencyport.ErrNotReserved) {
		t.Fatalf("Complete finished key: err=%v, want ErrNotReserved", err)
	}

	// A failed reservation can be retried with the same payload.
	key2 := idempotencyport.Key("k-" + uuid.NewString())
	if _, err := store.Reserve(ctx, key2, fp); err != nil {
		t.Fatalf("Reserve key2: %v", err)
	}
	if err := store.Fail(ctx, key2); err != nil {
		t.Fatalf("Fail key2: %v", err)
	}
	// The retry is flagged as a takeover of the failed reservation.
	res, err = store.Reserve(ctx, key2, fp)
	if err != nil {
		t.Fatalf("Reserve after fail: %v", err)
	}
	if res.Outcome != idempotencyport.OutcomeReserved || !res.Takeover {
		t.Fatalf("result after fail=%+v, want RESERVED with Takeover", res)
	}
}
