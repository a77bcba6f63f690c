package decoder

import (
	"context"
	"errors"
	"math"

	"github.com/xaionaro-go/ffcodecs"
)

// NoPTS marks a packet without a presentation timestamp.
const NoPTS = int64(math.MinInt64)

// Errors a Backend reports. Anything else is treated as an unclassified
// library failure.
var (
	// ErrWouldBlock: the input queue is full (on send) or no output is ready (on receive).
	ErrWouldBlock = errors.New("resource temporarily unavailable")

	// ErrMalformed: the codec rejected the data itself.
	ErrMalformed = errors.New("invalid data found when processing input")

	// ErrInvalidState: the call is not valid in the current codec state.
	ErrInvalidState = errors.New("invalid codec state")
)

// CodecInfo describes a decoder known to the backend.
type CodecInfo struct {
	Name string
	Type ffcodecs.TrackType
}

// OpenRequest is everything needed to open a decoder. Options are applied
// in order; later keys win.
type OpenRequest struct {
	Codec     CodecInfo
	ExtraData []byte
	Options   ffcodecs.DictionaryItems
}

// Backend is the media library the Manager drives.
type Backend interface {
	FindDecoder(ctx context.Context, codecName string) (CodecInfo, bool)
	OpenDecoder(ctx context.Context, req OpenRequest) (Decoder, error)
	NewResampler(ctx context.Context, src AudioFrame, dst ffcodecs.SampleFormat) (Resampler, error)
	NewScaler(ctx context.Context, req ScaleRequest) (Scaler, error)
}

// Decoder is an opened codec context.
//
// SendPacket with an empty payload enters draining mode. ReceiveFrame
// returns ErrWouldBlock when no more output is ready and io.EOF when the
// codec is fully drained.
type Decoder interface {
	SendPacket(ctx context.Context, payload []byte, pts int64) error
	ReceiveFrame(ctx context.Context) (Frame, error)
	Flush(ctx context.Context)
	SampleRate() int
	ChannelCount() int
	Close() error
}

// Frame is a decoded frame owned by the receiver; Release must be called
// exactly once.
type Frame interface {
	PTS() int64
	Release()
}

type AudioFrame interface {
	Frame
	SampleCount() int
	ChannelCount() int
	SampleRate() int
}

// PixelFormat is the library name of a pixel format, e.g. "yuv420p".
type PixelFormat string

const (
	PixelFormatYUV420P  = PixelFormat("yuv420p")
	PixelFormatYUVJ420P = PixelFormat("yuvj420p")
)

// IsPlanarYUV420 reports whether planes of this format can be copied to
// the output surface without conversion.
func (pf PixelFormat) IsPlanarYUV420() bool {
	switch pf {
	case PixelFormatYUV420P, PixelFormatYUVJ420P:
		return true
	}
	return false
}

// Plane is one image plane: Stride bytes per row.
type Plane struct {
	Data   []byte
	Stride int
}

type VideoFrame interface {
	Frame
	Width() int
	Height() int
	PixelFormat() PixelFormat
	Planes() ([]Plane, error)
}

// Resampler converts decoded audio into the interleaved output format.
type Resampler interface {
	// OutSamples is the per-channel sample count Convert may produce for the frame.
	OutSamples(frame AudioFrame) int
	// Convert writes interleaved samples into dst and returns the bytes written.
	Convert(ctx context.Context, frame AudioFrame, dst []byte) (int, error)
	// Pending is the number of samples buffered inside the resampler.
	Pending() int
	Close() error
}

type ScaleRequest struct {
	SourceWidth       int
	SourceHeight      int
	SourcePixelFormat PixelFormat
	TargetWidth       int
	TargetHeight      int
}

// Scaler converts frames to planar yuv420p of the target geometry.
type Scaler interface {
	Scale(ctx context.Context, frame VideoFrame) ([]Plane, error)
	Close() error
}
