package core

import "errors"

var (
	// ErrNotFound covers both missing stories and stories the viewer is not
	// allowed to see. Unauthorized reads are deliberately indistinguishable
	// from missing content so existence never leaks.
	ErrNotFound = errors.New("story not found")

	// ErrRetired marks an engagement attempt against retired or expired
	// content, as opposed to a benign duplicate.
	ErrRetired = errors.New("story retired")

	ErrThrottled   = errors.New("rate limit exceeded")
	ErrInvalid     = errors.New("invalid argument")
	ErrUnavailable = errors.New("store unavailable")
)
