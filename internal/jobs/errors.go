package jobs

import "errors"

var (
	// ErrJobNotFound is returned by a JobStore for unknown job IDs.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueClosed is returned when publishing to a stopped queue.
	ErrQueueClosed = errors.New("queue is closed")
)
