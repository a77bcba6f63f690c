// Package probe collects format, stream and chapter metadata of a
// container without decoding it.
package probe

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/container"
)

const unknownCodecName = "Unknown Codec"

// Probe opens the source, collects its metadata and closes it again.
func Probe(
	ctx context.Context,
	opener container.Opener,
	source container.Source,
	cfg ffcodecs.DemuxerConfig,
) (_ret *MediaInfo, _err error) {
	logger.Debugf(ctx, "Probe(ctx, %s)", source)
	defer func() { logger.Debugf(ctx, "/Probe(ctx, %s): %v", source, _err) }()

	c, err := opener.OpenContainer(ctx, container.NewOpenRequest(source, cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w: %w", source, ffcodecs.ErrOther, err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			_err = multierror.Append(_err, fmt.Errorf("unable to close %s: %w", source, err)).ErrorOrNil()
		}
	}()

	return FromContainer(c), nil
}

// FromContainer collects the metadata of an already opened container.
func FromContainer(c container.Container) *MediaInfo {
	info := &MediaInfo{
		Format: c.FormatLongName(),
	}
	if duration := c.Duration(); duration != container.NoPTS {
		info.DurationMillis = duration / 1000
	}

	for _, stream := range c.Streams() {
		commons := StreamCommons{
			Index:       stream.Index,
			Title:       stream.Title(),
			CodecName:   stream.CodecLongName,
			Language:    stream.Language(),
			Disposition: stream.Disposition,
		}
		if commons.CodecName == "" {
			commons.CodecName = unknownCodecName
		}

		switch stream.MediaType {
		case container.MediaTypeVideo:
			info.VideoStreams = append(info.VideoStreams, VideoStream{
				StreamCommons: commons,
				BitRate:       stream.BitRate,
				FrameRate:     stream.FrameRate.Float64(),
				Width:         stream.Width,
				Height:        stream.Height,
				Rotation:      stream.Rotation(),
			})
		case container.MediaTypeAudio:
			info.AudioStreams = append(info.AudioStreams, AudioStream{
				StreamCommons: commons,
				BitRate:       stream.BitRate,
				SampleFormat:  stream.SampleFormat,
				SampleRate:    stream.SampleRate,
				Channels:      stream.ChannelCount,
				ChannelLayout: stream.ChannelLayout,
			})
		case container.MediaTypeSubtitle:
			info.SubtitleStreams = append(info.SubtitleStreams, SubtitleStream{
				StreamCommons: commons,
			})
		}
	}

	for idx, chapter := range c.Chapters() {
		info.Chapters = append(info.Chapters, Chapter{
			Index:       idx,
			Title:       chapter.Title,
			StartMillis: container.ToMillis(chapter.Start, chapter.TimeBase),
			EndMillis:   container.ToMillis(chapter.End, chapter.TimeBase),
		})
	}
	return info
}
