package core

import "time"

// SystemClock is the Clock used outside of tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
