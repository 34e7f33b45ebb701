package bookings

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// requestFingerprint hashes the normalized creation payload. Two requests
// with the same fingerprint are the same logical request for idempotency
// purposes; a key presented with a different fingerprint is a client bug.
func requestFingerprint(in CreateBookingInput) string {
	desc := ""
	if in.Description != nil {
		desc = *in.Description
	}
	parts := []string{
		string(in.RoomID),
		string(in.UserID),
		in.Title,
		in.StartTime.UTC().Format(time.RFC3339Nano),
		in.EndTime.UTC().Format(time.RFC3339Nano),
		desc,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}
