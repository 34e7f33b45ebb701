package bookings

import (
	"context"
	"testing"
	"time"

	membookingrepo "github.com/brightdesk/room-booking-api/internal/adapters/memory/bookingrepo"
	memclock "github.com/brightdesk/room-booking-api/internal/adapters/memory/clock"
	memidempotency "github.com/brightdesk/room-booking-api/internal/adapters/memory/idempotency"
	memroomdir "github.com/brightdesk/room-booking-api/internal/adapters/memory/roomdir"
	"github.com/brightdesk/room-booking-api/internal/ports/out/bookingrepo"
)

func at(h, m int) time.Time {
	return time.Date(2025, time.March, 10, h, m, 0, 0, time.UTC)
}

func TestOverlaps_HalfOpenSemantics(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", at(14, 0), at(15, 0), at(14, 0), at(15, 0), true},
		{"partial overlap", at(14, 0), at(15, 0), at(14, 30), at(15, 30), true},
		{"contained", at(14, 0), at(16, 0), at(14, 30), at(15, 0), true},
		{"containing", at(14, 30), at(15, 0), at(14, 0), at(16, 0), true},
		{"touching end to start", at(14, 0), at(15, 0), at(15, 0), at(16, 0), false},
		{"touching start to end", at(15, 0), at(16, 0), at(14, 0), at(15, 0), false},
		{"disjoint before", at(10, 0), at(11, 0), at(12, 0), at(13, 0), false},
		{"disjoint after", at(12, 0), at(13, 0), at(10, 0), at(11, 0), false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("overlaps=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestConflictingBookings_ExcludeIgnoresTheBookingItself(t *testing.T) {
	t.Parallel()

	repo := membookingrepo.NewRepo()
	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	svc := NewService(repo, memroomdir.NewDirectory(), memidempotency.NewStore(clk, time.Hour), clk)

	b := bookingrepo.Booking{
		ID:        "b1",
		RoomID:    "r1",
		UserID:    "u1",
		Title:     "Sync",
		StartTime: at(14, 0),
		EndTime:   at(15, 0),
		Status:    bookingrepo.StatusConfirmed,
		CreatedAt: clk.Now(),
	}
	if err := repo.Insert(context.Background(), b); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	found, err := svc.conflictingBookings(context.Background(), "r1", at(14, 30), at(15, 30), "")
	if err != nil || len(found) != 1 || found[0].ID != "b1" {
		t.Fatalf("conflictingBookings=%v err=%v, want [b1]", found, err)
	}

	// Re-validating b1's own slot must not conflict with itself.
	found, err = svc.conflictingBookings(context.Background(), "r1", at(14, 0), at(15, 0), "b1")
	if err != nil || len(found) != 0 {
		t.Fatalf("conflictingBookings with exclude=%v err=%v, want none", found, err)
	}
}

func TestPartitionDay_NoBookingsIsFullyFree(t *testing.T) {
	t.Parallel()

	dayStart := at(0, 0)
	dayEnd := dayStart.AddDate(0, 0, 1)
	slots := partitionDay(dayStart, dayEnd, nil)
	if len(slots) != 1 {
		t.Fatalf("slots=%d, want 1", len(slots))
	}
	s := slots[0]
	if !s.Available || !s.StartTime.Equal(dayStart) || !s.EndTime.Equal(dayEnd) {
		t.Fatalf("unexpected slot: %+v", s)
	}
}

func TestPartitionDay_SingleBookingSplitsDay(t *testing.T) {
	t.Parallel()

	dayStart := at(0, 0)
	dayEnd := dayStart.AddDate(0, 0, 1)
	booked := []bookingrepo.Booking{
		{ID: "b1", StartTime: at(10, 0), EndTime: at(11, 0)},
	}
	slots := partitionDay(dayStart, dayEnd, booked)
	if len(slots) != 3 {
		t.Fatalf("slots=%d, want 3: %#v", len(slots), slots)
	}
	if !slots[0].Available || !slots[0].EndTime.Equal(at(10, 0)) {
		t.Fatalf("slot 0: %+v", slots[0])
	}
	if slots[1].Available || !slots[1].StartTime.Equal(at(10, 0)) || !slots[1].EndTime.Equal(at(11, 0)) {
		t.Fatalf("slot 1: %+v", slots[1])
	}
	if !slots[2].Available || !slots[2].StartTime.Equal(at(11, 0)) || !slots[2].EndTime.Equal(dayEnd) {
		t.Fatalf("slot 2: %+v", slots[2])
	}
}

func TestPartitionDay_AdjacentBookingsProduceNoFreeGap(t *testing.T) {
	t.Parallel()

	dayStart := at(0, 0)
	dayEnd := dayStart.AddDate(0, 0, 1)
	booked := []bookingrepo.Booking{
		{ID: "b1", StartTime: at(9, 0), EndTime: at(10, 0)},
		{ID: "b2", StartTime: at(10, 0), EndTime: at(11, 0)},
	}
	slots := partitionDay(dayStart, dayEnd, booked)
	if len(slots) != 4 {
		t.Fatalf("slots=%d, want 4: %#v", len(slots), slots)
	}
	if slots[1].Available || slots[2].Available {
		t.Fatalf("expected contiguous occupied slots: %#v", slots)
	}
	if !slots[1].EndTime.Equal(slots[2].StartTime) {
		t.Fatalf("occupied slots not contiguous: %#v", slots)
	}
}

func TestPartitionDay_ClipsBookingsSpanningDayBounds(t *testing.T) {
	t.Parallel()

	dayStart := at(0, 0)
	dayEnd := dayStart.AddDate(0, 0, 1)
	booked := []bookingrepo.Booking{
		{ID: "b1", StartTime: dayStart.Add(-2 * time.Hour), EndTime: at(1, 0)},
		{ID: "b2", StartTime: at(23, 0), EndTime: dayEnd.Add(2 * time.Hour)},
	}
	slots := partitionDay(dayStart, dayEnd, booked)
	if len(slots) != 3 {
		t.Fatalf("slots=%d, want 3: %#v", len(slots), slots)
	}
	if slots[0].Available || !slots[0].StartTime.Equal(dayStart) || !slots[0].EndTime.Equal(at(1, 0)) {
		t.Fatalf("slot 0: %+v", slots[0])
	}
	if slots[2].Available || !slots[2].EndTime.Equal(dayEnd) {
		t.Fatalf("slot 2: %+v", slots[2])
	}
}
