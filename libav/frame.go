package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/ffcodecs/decoder"
)

// Frame is a decoded frame owned by its receiver.
type Frame struct {
	*astiav.Frame
}

var (
	_ decoder.AudioFrame = (*AudioFrame)(nil)
	_ decoder.VideoFrame = (*VideoFrame)(nil)
)

func (f *Frame) PTS() int64 {
	pts := f.Frame.Pts()
	if pts == astiav.NoPtsValue {
		return decoder.NoPTS
	}
	return pts
}

func (f *Frame) Release() {
	if f.Frame == nil {
		return
	}
	f.Frame.Free()
	f.Frame = nil
}

type AudioFrame struct {
	Frame
}

func (f *AudioFrame) SampleCount() int {
	return f.Frame.NbSamples()
}

func (f *AudioFrame) ChannelCount() int {
	return f.Frame.ChannelLayout().Channels()
}

func (f *AudioFrame) SampleRate() int {
	return f.Frame.SampleRate()
}

type VideoFrame struct {
	Frame
}

func (f *VideoFrame) Width() int {
	return f.Frame.Width()
}

func (f *VideoFrame) Height() int {
	return f.Frame.Height()
}

func (f *VideoFrame) PixelFormat() decoder.PixelFormat {
	return decoder.PixelFormat(f.Frame.PixelFormat().String())
}

// Planes exposes the image planes of yuv420p and yuvj420p frames;
// anything else has to go through a Scaler first.
func (f *VideoFrame) Planes() ([]decoder.Plane, error) {
	if !f.PixelFormat().IsPlanarYUV420() {
		return nil, fmt.Errorf("pixel format '%s' has no directly usable planes", f.PixelFormat())
	}
	return yuv420Planes(f.Frame.Frame)
}

// yuv420Planes copies the image out of frame tightly packed and splits
// it into Y, U and V.
func yuv420Planes(frame *astiav.Frame) ([]decoder.Plane, error) {
	data, err := frame.Data().Bytes(1)
	if err != nil {
		return nil, fmt.Errorf("unable to get the frame data: %w", err)
	}

	w, h := frame.Width(), frame.Height()
	cw, ch := (w+1)/2, (h+1)/2
	lumaSize, chromaSize := w*h, cw*ch
	if len(data) < lumaSize+2*chromaSize {
		return nil, fmt.Errorf("frame data is too short: %d < %d", len(data), lumaSize+2*chromaSize)
	}
	return []decoder.Plane{
		{Data: data[:lumaSize], Stride: w},
		{Data: data[lumaSize : lumaSize+chromaSize], Stride: cw},
		{Data: data[lumaSize+chromaSize : lumaSize+2*chromaSize], Stride: cw},
	}, nil
}
