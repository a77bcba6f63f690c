// Package surface provides output surfaces that are not backed by a
// display.
package surface

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs/decoder"
	"github.com/xaionaro-go/xsync"
)

// StrideAlignment is the luma row alignment of Memory buffers.
const StrideAlignment = 32

var nextID atomic.Uint64

// Memory is a decoder.Surface kept in RAM. Every posted buffer is written
// to Output (if set) as raw YV12.
type Memory struct {
	Output io.Writer

	id       decoder.SurfaceID
	locker   xsync.Mutex
	acquired int
	locked   bool
	busy     bool
	buffer   decoder.SurfaceBuffer
	posted   uint64
}

var _ decoder.Surface = (*Memory)(nil)

func NewMemory(output io.Writer) *Memory {
	return &Memory{
		Output: output,
		id:     decoder.SurfaceID(nextID.Add(1)),
	}
}

func (s *Memory) String() string {
	return fmt.Sprintf("memory-surface#%d", s.id)
}

func (s *Memory) ID() decoder.SurfaceID {
	return s.id
}

func (s *Memory) Acquire(ctx context.Context) error {
	s.locker.Do(ctx, func() {
		s.acquired++
	})
	return nil
}

func (s *Memory) SetGeometry(
	ctx context.Context,
	width, height int,
	format decoder.SurfaceFormat,
) error {
	logger.Debugf(ctx, "%s: SetGeometry(ctx, %d, %d, %s)", s, width, height, format)
	if format != decoder.SurfaceFormatYV12 {
		return fmt.Errorf("format %s is not supported", format)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid geometry %dx%d", width, height)
	}
	return xsync.DoR1(ctx, &s.locker, func() error {
		if s.locked {
			return fmt.Errorf("%s is locked", s)
		}
		stride := (width + StrideAlignment - 1) &^ (StrideAlignment - 1)
		layout := decoder.NewYV12Layout(stride, height, height)
		s.buffer = decoder.SurfaceBuffer{
			Bits:   make([]byte, layout.Size),
			Width:  width,
			Height: height,
			Stride: stride,
		}
		return nil
	})
}

// SetBusy makes Lock report decoder.ErrSurfaceBusy until it is unset.
func (s *Memory) SetBusy(ctx context.Context, busy bool) {
	s.locker.Do(ctx, func() {
		s.busy = busy
	})
}

func (s *Memory) Lock(ctx context.Context) (decoder.SurfaceBuffer, error) {
	return xsync.DoR2(ctx, &s.locker, func() (decoder.SurfaceBuffer, error) {
		switch {
		case s.busy:
			return decoder.SurfaceBuffer{}, decoder.ErrSurfaceBusy
		case s.locked:
			return decoder.SurfaceBuffer{}, fmt.Errorf("%s is already locked", s)
		case s.buffer.Bits == nil:
			return decoder.SurfaceBuffer{}, fmt.Errorf("%s has no geometry", s)
		}
		s.locked = true
		return s.buffer, nil
	})
}

func (s *Memory) UnlockAndPost(ctx context.Context) error {
	return xsync.DoR1(ctx, &s.locker, func() error {
		if !s.locked {
			return fmt.Errorf("%s is not locked", s)
		}
		s.locked = false
		s.posted++
		if s.Output == nil {
			return nil
		}
		if _, err := s.Output.Write(s.buffer.Bits); err != nil {
			return fmt.Errorf("unable to write the frame: %w", err)
		}
		return nil
	})
}

func (s *Memory) Release(ctx context.Context) {
	s.locker.Do(ctx, func() {
		if s.acquired > 0 {
			s.acquired--
		}
	})
}

// Acquired is the number of outstanding references.
func (s *Memory) Acquired(ctx context.Context) int {
	return xsync.DoR1(ctx, &s.locker, func() int {
		return s.acquired
	})
}

// Posted is the number of buffers posted so far.
func (s *Memory) Posted(ctx context.Context) uint64 {
	return xsync.DoR1(ctx, &s.locker, func() uint64 {
		return s.posted
	})
}

// Buffer returns the last buffer contents.
func (s *Memory) Buffer(ctx context.Context) decoder.SurfaceBuffer {
	return xsync.DoR1(ctx, &s.locker, func() decoder.SurfaceBuffer {
		return s.buffer
	})
}
