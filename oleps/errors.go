package oleps

import (
	"errors"
	"fmt"

	"github.com/Microsoft/go-winio/pkg/guid"
)

var (
	// ErrCorrupted matches every *CorruptedError via errors.Is.
	ErrCorrupted = errors.New("corrupted property set")

	// ErrFormatMismatch matches every *FormatMismatchError via errors.Is.
	ErrFormatMismatch = errors.New("property set format mismatch")
)

// CorruptedError is returned when the input violates the structure of a
// property set: a bad marker, an out of range length or offset, an unknown
// type tag, or a missing code page.
type CorruptedError struct {
	Offset  int
	Message string
}

func (e *CorruptedError) Error() string {
	return fmt.Sprintf("corrupted property set: %s (at byte %d)", e.Message, e.Offset)
}

func (e *CorruptedError) Is(target error) bool {
	return target == ErrCorrupted
}

func newCorrupted(offset int, format string, args ...interface{}) *CorruptedError {
	return &CorruptedError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// FormatMismatchError is returned by the well-known property set readers
// when the stream carries a different FMTID.
type FormatMismatchError struct {
	Expected guid.GUID
	Actual   guid.GUID
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("property set format mismatch: expected %s (%s), got %s (%s)",
		e.Expected, FormatName(e.Expected), e.Actual, FormatName(e.Actual))
}

func (e *FormatMismatchError) Is(target error) bool {
	return target == ErrFormatMismatch
}

// CompDocError represents an error in the compound document container.
type CompDocError struct {
	Message string
	Err     error
}

func (e *CompDocError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CompDocError) Unwrap() error {
	return e.Err
}

// NewCompDocError creates a new CompDocError with the given message.
func NewCompDocError(format string, args ...interface{}) *CompDocError {
	return &CompDocError{Message: fmt.Sprintf(format, args...)}
}
