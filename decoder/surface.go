package decoder

import (
	"context"
	"errors"
	"fmt"
)

// ErrSurfaceBusy is returned by Surface.Lock when the surface is in use by
// someone else (typically the compositor).
var ErrSurfaceBusy = errors.New("surface is busy")

type SurfaceID uint64

// SurfaceFormat is a fourcc of the buffer layout.
type SurfaceFormat uint32

// SurfaceFormatYV12 is 'YV12': Y plane, then V, then U.
const SurfaceFormatYV12 = SurfaceFormat(0x32315659)

func (f SurfaceFormat) String() string {
	if f == SurfaceFormatYV12 {
		return "YV12"
	}
	return fmt.Sprintf("fourcc_0x%08X", uint32(f))
}

// SurfaceBuffer is a locked buffer. Stride is the luma row size in bytes.
type SurfaceBuffer struct {
	Bits   []byte
	Width  int
	Height int
	Stride int
}

// Surface is a host-provided output window.
type Surface interface {
	ID() SurfaceID
	Acquire(ctx context.Context) error
	SetGeometry(ctx context.Context, width, height int, format SurfaceFormat) error
	Lock(ctx context.Context) (SurfaceBuffer, error)
	UnlockAndPost(ctx context.Context) error
	Release(ctx context.Context)
}

type surfaceBinding struct {
	Surface Surface
	Width   int
	Height  int
}

func (b *surfaceBinding) release(ctx context.Context) {
	if b == nil || b.Surface == nil {
		return
	}
	b.Surface.Release(ctx)
	b.Surface = nil
}
