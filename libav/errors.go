package libav

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/ffcodecs/decoder"
)

// codecError classifies an error returned by a codec call into the
// sentinels the decoder package understands.
func codecError(op string, err error) error {
	var avErr astiav.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, astiav.ErrEagain):
		return fmt.Errorf("%s: %w: %w", op, decoder.ErrWouldBlock, err)
	case errors.Is(err, astiav.ErrEof):
		return io.EOF
	case errors.Is(err, astiav.ErrInvaliddata):
		return fmt.Errorf("%s: %w: %w", op, decoder.ErrMalformed, err)
	case errors.As(err, &avErr) && isErrno(avErr, syscall.EINVAL, syscall.EPERM):
		return fmt.Errorf("%s: %w: %w", op, decoder.ErrInvalidState, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isErrno(avErr astiav.Error, errnos ...syscall.Errno) bool {
	for _, errno := range errnos {
		if int(avErr) == -int(errno) {
			return true
		}
	}
	return false
}
