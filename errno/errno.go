// Package errno defines the bus-wide error taxonomy. Every exported bus
// operation returns one of these sentinels (or wraps one with extra
// context via fmt.Errorf's %w), so callers can branch with errors.Is
// instead of parsing strings.
package errno

import (
	"errors"
	"fmt"
)

// Errno is the kind of failure a bus operation reports. It does not
// carry per-call context; operations that need to attach one (buffer
// size, argument name) wrap it with fmt.Errorf("...: %w", err).
type Errno int

const (
	// NotFound means no slot matched the key after a full probe.
	NotFound Errno = iota + 1
	// CapacityExceeded means the value was too large, the arena is
	// exhausted, or the table has no empty or matching slot left to probe.
	CapacityExceeded
	// WrongType means the operation requires a type tag the slot does
	// not carry (currently only the typed integer op cares).
	WrongType
	// BufferTooSmall means the caller's read buffer is smaller than the
	// stored value. The value's true length is still reported back.
	BufferTooSmall
	// WriterInProgress means the slot's seqlock was odd when observed.
	// Retryable.
	WriterInProgress
	// TornSnapshot means the seqlock's begin and end reads disagreed.
	// Retryable.
	TornSnapshot
	// InvalidArgument means a null pointer, zero length, unknown mode,
	// or invalid group id was passed.
	InvalidArgument
	// BackingError means the underlying mapping or file operation failed.
	BackingError
)

var names = map[Errno]string{
	NotFound:          "not found",
	CapacityExceeded:  "capacity exceeded",
	WrongType:         "wrong type",
	BufferTooSmall:    "buffer too small",
	WriterInProgress:  "writer in progress",
	TornSnapshot:      "torn snapshot",
	InvalidArgument:   "invalid argument",
	BackingError:      "backing error",
}

func (e Errno) Error() string {
	if s, ok := names[e]; ok {
		return s
	}
	return fmt.Sprintf("errno(%d)", int(e))
}

// Is lets errors.Is(err, errno.NotFound) match both the bare sentinel
// and any error wrapping it, without requiring the wrapped value to be
// an *Errno pointer.
func (e Errno) Is(target error) bool {
	t, ok := target.(Errno)
	return ok && t == e
}

// Sentinel errors. These are the values operations return directly or
// wrap; compare with errors.Is.
var (
	ErrNotFound         error = NotFound
	ErrCapacityExceeded error = CapacityExceeded
	ErrWrongType        error = WrongType
	ErrBufferTooSmall   error = BufferTooSmall
	ErrWriterInProgress error = WriterInProgress
	ErrTornSnapshot     error = TornSnapshot
	ErrInvalidArgument  error = InvalidArgument
	ErrBackingError     error = BackingError
)

// Retryable reports whether err indicates a transient condition a
// caller may retry: a writer held the slot, or a reader's snapshot was
// torn. All other kinds are terminal for the call that produced them.
func Retryable(err error) bool {
	return errors.Is(err, ErrWriterInProgress) || errors.Is(err, ErrTornSnapshot)
}
