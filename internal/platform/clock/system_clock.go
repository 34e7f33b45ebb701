package clock

import "time"

// SystemClock reads the wall clock, normalized to UTC. All persisted
// timestamps derive from it in production wiring.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC() }
