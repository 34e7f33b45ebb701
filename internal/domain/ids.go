package domain

// BookingID is an internal identifier for a booking record.
type BookingID string

// RoomID identifies a room in the external room directory.
// Its format is controlled by the directory; we treat it as opaque.
type RoomID string

// UserID identifies the member a booking belongs to. Not owned by this service.
type UserID string
