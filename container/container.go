// Package container describes the read-only view of a media container that
// both the demuxer and the metadata probe work on.
package container

import (
	"context"
	"fmt"
	"math"
)

// NoPTS marks a missing timestamp.
const NoPTS = int64(math.MinInt64)

type MediaType int

const (
	MediaTypeUnknown = MediaType(iota)
	MediaTypeVideo
	MediaTypeAudio
	MediaTypeData
	MediaTypeSubtitle
	MediaTypeAttachment
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeUnknown:
		return "unknown"
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeAttachment:
		return "attachment"
	}
	return fmt.Sprintf("unexpected_media_type_%d", int(t))
}

func (t MediaType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Stream is the technical metadata of one elementary stream.
type Stream struct {
	Index     int
	MediaType MediaType

	// CodecName is the short codec name, e.g. "wmav2".
	CodecName string
	// CodecLongName is empty if the codec is not known to the library.
	CodecLongName string

	TimeBase    Rational
	Metadata    map[string]string
	Disposition int
	BitRate     int64
	ExtraData   []byte

	Width         int
	Height        int
	FrameRate     Rational
	DisplayMatrix []int32

	SampleFormat  string
	SampleRate    int
	ChannelCount  int
	ChannelLayout string
	BlockAlign    int
}

func (s *Stream) Title() string    { return s.Metadata["title"] }
func (s *Stream) Language() string { return s.Metadata["language"] }

// Rotation is the clockwise rotation of a video stream in degrees, [0, 360).
func (s *Stream) Rotation() int {
	return Rotation(s.Metadata["rotate"], s.DisplayMatrix)
}

type Chapter struct {
	Title    string
	Start    int64
	End      int64
	TimeBase Rational
}

type Packet struct {
	StreamIndex int
	PTS         int64
	DTS         int64
	KeyFrame    bool
	Data        []byte
}

// Container is an opened and probed input.
type Container interface {
	FormatLongName() string
	// Duration is in microseconds, NoPTS if unknown.
	Duration() int64
	Streams() []Stream
	Chapters() []Chapter
	// ReadPacket returns io.EOF at the end of the input.
	ReadPacket(ctx context.Context) (*Packet, error)
	// Seek moves to the closest key frame at or before the timestamp.
	Seek(ctx context.Context, timestampMicros int64) error
	Close() error
}

type Opener interface {
	OpenContainer(ctx context.Context, req OpenRequest) (Container, error)
}
