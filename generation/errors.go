package generation

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned by Put when every slot is occupied.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrStaleHandle is returned when the handle generation does not match the
	// slot, either because it was removed or because the handle is forged.
	ErrStaleHandle = errors.New("stale handle")

	// ErrOutOfRange is returned when the handle position is past the capacity.
	ErrOutOfRange = errors.New("handle out of range")

	// ErrMalformedIndex is returned by ParseIndex.
	ErrMalformedIndex = errors.New("malformed index")
)

// Error is the single failure type returned by Map. The kind of failure is
// reachable with errors.Is against the Err* sentinels.
type Error struct {
	Index    Index
	Capacity int
	cause    error
}

func (e *Error) Error() string {
	switch e.cause {
	case ErrCapacityExceeded:
		return fmt.Sprintf("%s: all %d slots are occupied", e.cause, e.Capacity)
	case ErrOutOfRange:
		return fmt.Sprintf("%s: position %d, capacity %d", e.cause, e.Index.Position, e.Capacity)
	}
	return fmt.Sprintf("%s: %s", e.cause, e.Index)
}

func (e *Error) Unwrap() error { return e.cause }

// Must panics when err is not nil. It restores the assert-on-misuse behaviour
// for callers that treat every Map failure as a bug.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
