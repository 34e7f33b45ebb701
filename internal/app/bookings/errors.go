package bookings

// Error is an application-layer error that can be mapped to a transport
// response. Code is one of the stable machine-readable kinds:
// INVALID_REQUEST, NOT_FOUND, SCHEDULING_CONFLICT, IDEMPOTENCY_KEY_REUSED,
// INTERNAL.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}
