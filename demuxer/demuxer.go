package demuxer

import (
	"context"
	"fmt"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/container"
)

// DemuxerID is the opaque handle of an opened container. Zero is never issued.
type DemuxerID uint64

// Demuxer exposes the audio and video streams of a container as a
// compact list of tracks, in stream order.
type Demuxer struct {
	ID        DemuxerID
	Source    container.Source
	Container container.Container

	// TrackStreams maps a track index to its stream.
	TrackStreams []container.Stream
	// StreamTracks maps a stream index to its track index.
	StreamTracks map[int]int32
}

func newDemuxer(
	source container.Source,
	c container.Container,
) *Demuxer {
	d := &Demuxer{
		Source:       source,
		Container:    c,
		StreamTracks: map[int]int32{},
	}
	for _, stream := range c.Streams() {
		switch stream.MediaType {
		case container.MediaTypeAudio, container.MediaTypeVideo:
		default:
			continue
		}
		d.StreamTracks[stream.Index] = int32(len(d.TrackStreams))
		d.TrackStreams = append(d.TrackStreams, stream)
	}
	return d
}

func (d *Demuxer) String() string {
	return fmt.Sprintf("demuxer#%d(%s)", d.ID, d.Source)
}

func (d *Demuxer) ctx(ctx context.Context) context.Context {
	return logger.CtxWithLogger(ctx, logger.FromCtx(ctx).WithField("demuxer_id", uint64(d.ID)))
}

// DurationMicros returns ffcodecs.TimeUnset if the duration is unknown.
func (d *Demuxer) DurationMicros() int64 {
	duration := d.Container.Duration()
	if duration == container.NoPTS {
		return ffcodecs.TimeUnset
	}
	return duration
}

func (d *Demuxer) TrackInfo(trackIndex int) (*ffcodecs.TrackInfo, error) {
	if trackIndex < 0 || trackIndex >= len(d.TrackStreams) {
		return nil, fmt.Errorf("track %d of %d: %w", trackIndex, len(d.TrackStreams), ffcodecs.ErrNotFound)
	}
	return newTrackInfo(&d.TrackStreams[trackIndex]), nil
}

func newTrackInfo(stream *container.Stream) *ffcodecs.TrackInfo {
	info := &ffcodecs.TrackInfo{
		MimeTag:        MimeType(stream.MediaType, stream.CodecName),
		CodecName:      stream.CodecName,
		Language:       stream.Language(),
		AverageBitrate: clampInt32(stream.BitRate),
	}

	switch stream.MediaType {
	case container.MediaTypeVideo:
		info.TrackType = ffcodecs.TrackTypeVideo
		info.Width = int32(stream.Width)
		info.Height = int32(stream.Height)
		info.RotationDegrees = int32(stream.Rotation())
	case container.MediaTypeAudio:
		info.TrackType = ffcodecs.TrackTypeAudio
		info.ChannelCount = int32(stream.ChannelCount)
		info.SampleRate = int32(stream.SampleRate)
	}

	switch {
	case info.TrackType == ffcodecs.TrackTypeAudio && ffcodecs.IsWMACodec(stream.CodecName):
		info.InitData = ffcodecs.BuildWMAInitData(stream.BlockAlign, stream.BitRate, stream.ExtraData)
	case len(stream.ExtraData) > 0:
		info.InitData = append([]byte(nil), stream.ExtraData...)
	}
	return info
}

func clampInt32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

// ReadPacket returns the next packet of any track, skipping packets of
// other streams. It returns io.EOF at the end of the input.
func (d *Demuxer) ReadPacket(ctx context.Context) (*ffcodecs.Packet, error) {
	for {
		pkt, err := d.Container.ReadPacket(ctx)
		if err != nil {
			return nil, err
		}

		trackIndex, ok := d.StreamTracks[pkt.StreamIndex]
		if !ok {
			logger.Tracef(ctx, "skipping a packet of stream %d", pkt.StreamIndex)
			continue
		}
		stream := &d.TrackStreams[trackIndex]

		ts := pkt.PTS
		if ts == container.NoPTS {
			ts = pkt.DTS
		}
		timestamp := int64(0)
		if ts != container.NoPTS {
			timestamp = container.RescaleToMicros(ts, stream.TimeBase)
		}

		var flags ffcodecs.PacketFlags
		if pkt.KeyFrame {
			flags |= ffcodecs.PacketFlagKeyFrame
		}
		return &ffcodecs.Packet{
			TrackIndex:      trackIndex,
			TimestampMicros: timestamp,
			Flags:           flags,
			Payload:         pkt.Data,
		}, nil
	}
}

// Seek moves to the closest key frame at or before timeMicros. A failure
// to seek is only logged: reading continues from wherever the container is.
func (d *Demuxer) Seek(ctx context.Context, timeMicros int64) {
	if err := d.Container.Seek(ctx, timeMicros); err != nil {
		logger.Warnf(ctx, "unable to seek %s to %dus: %v", d, timeMicros, err)
	}
}

func (d *Demuxer) Close() error {
	return d.Container.Close()
}
