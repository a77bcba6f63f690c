package ffcodecs

import (
	"fmt"
)

// TrackType values match the host player's track type constants.
type TrackType int32

const (
	TrackTypeUnknown = TrackType(0)
	TrackTypeAudio   = TrackType(1)
	TrackTypeVideo   = TrackType(2)
)

func (t TrackType) String() string {
	switch t {
	case TrackTypeUnknown:
		return "unknown"
	case TrackTypeAudio:
		return "audio"
	case TrackTypeVideo:
		return "video"
	}
	return fmt.Sprintf("unexpected_track_type_%d", int32(t))
}

func (t TrackType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// TrackInfo is the per-track metadata record handed to the host.
type TrackInfo struct {
	TrackType       TrackType `json:"track_type"        yaml:"track_type"`
	MimeTag         string    `json:"mime_tag"          yaml:"mime_tag"`
	CodecName       string    `json:"codec_name,omitempty" yaml:"codec_name,omitempty"`
	Language        string    `json:"language,omitempty"   yaml:"language,omitempty"`
	Width           int32     `json:"width,omitempty"      yaml:"width,omitempty"`
	Height          int32     `json:"height,omitempty"     yaml:"height,omitempty"`
	ChannelCount    int32     `json:"channel_count,omitempty" yaml:"channel_count,omitempty"`
	SampleRate      int32     `json:"sample_rate,omitempty"   yaml:"sample_rate,omitempty"`
	AverageBitrate  int32     `json:"average_bitrate,omitempty"  yaml:"average_bitrate,omitempty"`
	RotationDegrees int32     `json:"rotation_degrees,omitempty" yaml:"rotation_degrees,omitempty"`
	InitData        []byte    `json:"init_data,omitempty"  yaml:"init_data,omitempty"`
}
