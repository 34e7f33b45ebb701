package domain

import "time"

// RoomSummary is the read model for rooms sourced from the external directory.
type RoomSummary struct {
	ID       RoomID
	Name     string
	Capacity int

	// Timezone is an IANA zone name; nil means the room has no configured
	// zone and availability is computed in UTC.
	Timezone *string
}

// TimeSlot is one sub-interval of a room's day. Slots are half-open and
// contiguous: each slot starts where the previous one ended.
type TimeSlot struct {
	StartTime time.Time
	EndTime   time.Time
	Available bool
}

// RoomAvailability partitions one calendar day of a room into free and
// occupied slots.
type RoomAvailability struct {
	RoomID RoomID

	// Date is midnight at the start of the requested day in the room's zone.
	Date  time.Time
	Slots []TimeSlot
}
