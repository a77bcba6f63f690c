package probe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/container"
)

type fakeContainer struct {
	duration int64
	streams  []container.Stream
	chapters []container.Chapter
	closed   int
}

func (c *fakeContainer) FormatLongName() string            { return "Matroska / WebM" }
func (c *fakeContainer) Duration() int64                   { return c.duration }
func (c *fakeContainer) Streams() []container.Stream       { return c.streams }
func (c *fakeContainer) Chapters() []container.Chapter     { return c.chapters }
func (c *fakeContainer) Seek(context.Context, int64) error { return nil }

func (c *fakeContainer) ReadPacket(context.Context) (*container.Packet, error) {
	return nil, io.EOF
}

func (c *fakeContainer) Close() error {
	c.closed++
	return nil
}

type fakeOpener struct {
	container *fakeContainer
	err       error
}

func (o *fakeOpener) OpenContainer(ctx context.Context, req container.OpenRequest) (container.Container, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.container, nil
}

func newMKVLikeContainer() *fakeContainer {
	return &fakeContainer{
		duration: 5_025_500,
		streams: []container.Stream{
			{
				Index: 0, MediaType: container.MediaTypeVideo,
				CodecName: "hevc", CodecLongName: "H.265 / HEVC (High Efficiency Video Coding)",
				Width: 1920, Height: 1080, BitRate: 4_000_000,
				FrameRate:     container.Rational{Num: 24000, Den: 1001},
				DisplayMatrix: []int32{0, -65536, 0, 65536, 0, 0, 0, 0, 1 << 30},
				Metadata:      map[string]string{"title": "Main", "rotate": "90"},
			},
			{
				Index: 1, MediaType: container.MediaTypeAudio,
				CodecName: "ac3", CodecLongName: "ATSC A/52A (AC-3)",
				SampleFormat: "fltp", SampleRate: 48000, ChannelCount: 6, ChannelLayout: "5.1(side)",
				Metadata: map[string]string{"language": "jpn"},
			},
			{
				Index: 2, MediaType: container.MediaTypeSubtitle, CodecName: "none",
				Metadata: map[string]string{"language": "eng", "title": "Full"},
			},
			{
				Index: 3, MediaType: container.MediaTypeAttachment, CodecName: "ttf",
			},
			{
				Index: 4, MediaType: container.MediaTypeVideo, CodecName: "mjpeg", CodecLongName: "Motion JPEG",
				Width: 600, Height: 600,
			},
		},
		chapters: []container.Chapter{
			{Title: "Opening", Start: 0, End: 90_000, TimeBase: container.Rational{Num: 1, Den: 1000}},
			{Title: "Part A", Start: 90_000_000_000, End: 180_000_000_000, TimeBase: container.Rational{Num: 1, Den: 1_000_000_000}},
		},
	}
}

func TestProbe(t *testing.T) {
	ctx := context.Background()
	c := newMKVLikeContainer()

	info, err := Probe(ctx, &fakeOpener{container: c}, container.PathSource{Path: "/tmp/a.mkv"}, ffcodecs.DemuxerConfig{})
	require.NoError(t, err)
	require.Equal(t, 1, c.closed)

	require.Equal(t, &MediaInfo{
		Format:         "Matroska / WebM",
		DurationMillis: 5025,
		VideoStreams: []VideoStream{
			{
				StreamCommons: StreamCommons{Index: 0, Title: "Main", CodecName: "H.265 / HEVC (High Efficiency Video Coding)"},
				BitRate:       4_000_000,
				FrameRate:     24000.0 / 1001.0,
				Width:         1920,
				Height:        1080,
				Rotation:      270,
			},
			{
				StreamCommons: StreamCommons{Index: 4, CodecName: "Motion JPEG"},
				Width:         600,
				Height:        600,
			},
		},
		AudioStreams: []AudioStream{
			{
				StreamCommons: StreamCommons{Index: 1, CodecName: "ATSC A/52A (AC-3)", Language: "jpn"},
				SampleFormat:  "fltp",
				SampleRate:    48000,
				Channels:      6,
				ChannelLayout: "5.1(side)",
			},
		},
		SubtitleStreams: []SubtitleStream{
			{StreamCommons: StreamCommons{Index: 2, Title: "Full", CodecName: unknownCodecName, Language: "eng"}},
		},
		Chapters: []Chapter{
			{Index: 0, Title: "Opening", StartMillis: 0, EndMillis: 90_000},
			{Index: 1, Title: "Part A", StartMillis: 90_000, EndMillis: 180_000},
		},
	}, info)

	require.Equal(t, 0, info.PrimaryVideo().Index)
}

func TestProbeEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("open_failure", func(t *testing.T) {
		_, err := Probe(ctx, &fakeOpener{err: errors.New("nope")}, container.PathSource{Path: "/x"}, ffcodecs.DemuxerConfig{})
		require.ErrorIs(t, err, ffcodecs.ErrOther)
	})

	t.Run("unknown_duration_no_video", func(t *testing.T) {
		info := FromContainer(&fakeContainer{duration: container.NoPTS})
		require.Zero(t, info.DurationMillis)
		require.Nil(t, info.PrimaryVideo())
		require.Nil(t, (*MediaInfo)(nil).PrimaryVideo())
	})
}

func TestMediaInfoSerialization(t *testing.T) {
	info := FromContainer(newMKVLikeContainer())

	b, err := json.Marshal(info)
	require.NoError(t, err)
	require.Contains(t, string(b), `"codec_name":"ATSC A/52A (AC-3)"`)
	var fromJSON MediaInfo
	require.NoError(t, json.Unmarshal(b, &fromJSON))
	require.Equal(t, info, &fromJSON)

	b, err = yaml.Marshal(info)
	require.NoError(t, err)
	var fromYAML MediaInfo
	require.NoError(t, yaml.Unmarshal(b, &fromYAML), string(b))
	require.Equal(t, info, &fromYAML)
}
