package ffcodecs

import (
	"errors"
	"fmt"
)

// ErrorCode is the numeric result reported across the host boundary.
type ErrorCode int32

const (
	ErrorCodeOK            = ErrorCode(0)
	ErrorCodeInvalidData   = ErrorCode(-1)
	ErrorCodeOther         = ErrorCode(-2)
	ErrorCodeNeedMoreInput = ErrorCode(-3)
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeOK:
		return "OK"
	case ErrorCodeInvalidData:
		return "INVALID_DATA"
	case ErrorCodeOther:
		return "OTHER_ERROR"
	case ErrorCodeNeedMoreInput:
		return "NEED_MORE_INPUT"
	}
	return fmt.Sprintf("unexpected_error_code_%d", int32(c))
}

var (
	// ErrInvalidData is returned for malformed input. The session is already
	// flushed when this is returned, so the caller may keep feeding packets.
	ErrInvalidData = errors.New("invalid data")

	// ErrOther is returned for environment and library failures.
	ErrOther = errors.New("decoder error")

	// ErrNeedMoreInput means the codec input queue is full and the caller
	// has to drain frames before submitting again.
	ErrNeedMoreInput = errors.New("codec input queue is full, receive frames first")

	// ErrNoFrame means there is no displayable frame right now; it is not a failure.
	ErrNoFrame = errors.New("no displayable frame available")

	// ErrNotFound is returned when a codec, session, demuxer or track does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrorCodeFromError converts an error returned by this module into the
// numeric code expected by the host side.
func ErrorCodeFromError(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrorCodeOK
	case errors.Is(err, ErrNeedMoreInput):
		return ErrorCodeNeedMoreInput
	case errors.Is(err, ErrInvalidData), errors.Is(err, ErrNoFrame):
		return ErrorCodeInvalidData
	default:
		return ErrorCodeOther
	}
}
