package libav

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/container"
	"github.com/xaionaro-go/ffcodecs/decoder"
)

// ThumbnailPositionAuto picks a third of the duration.
const ThumbnailPositionAuto = time.Duration(-1)

// ExtractThumbnail decodes the first frame of the first video stream at or
// after the key frame preceding at, and scales it to width x height. A
// non-positive height keeps the aspect ratio of the source.
func ExtractThumbnail(
	ctx context.Context,
	source container.Source,
	cfg ffcodecs.DemuxerConfig,
	at time.Duration,
	width, height int,
) (_ret *image.RGBA, _err error) {
	logger.Debugf(ctx, "ExtractThumbnail(ctx, %s, %v, %dx%d)", source, at, width, height)
	defer func() { logger.Debugf(ctx, "/ExtractThumbnail(ctx, %s, %v, %dx%d): %v", source, at, width, height, _err) }()

	input, err := NewInput(ctx, container.NewOpenRequest(source, cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w: %w", source, ffcodecs.ErrOther, err)
	}
	defer func() {
		if err := input.Close(); err != nil {
			_err = multierror.Append(_err, fmt.Errorf("unable to close %s: %w", input, err)).ErrorOrNil()
		}
	}()

	var stream *astiav.Stream
	for _, s := range input.FormatContext.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeVideo {
			stream = s
			break
		}
	}
	if stream == nil {
		return nil, fmt.Errorf("%s has no video streams: %w", input, ffcodecs.ErrNotFound)
	}

	codec, err := newDecoderCodec(ctx, "", stream.CodecParameters(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to open the decoder: %w: %w", ffcodecs.ErrOther, err)
	}
	defer codec.Close()

	if at == ThumbnailPositionAuto {
		at = 0
		if duration := input.Duration(); duration != container.NoPTS {
			at = time.Duration(duration/3) * time.Microsecond
		}
	}
	if at > 0 {
		if err := input.Seek(ctx, at.Microseconds()); err != nil {
			logger.Warnf(ctx, "unable to seek to %v, taking the first frame instead: %v", at, err)
		}
	}

	frame, err := decodeFirstFrame(ctx, input, stream.Index(), codec)
	if err != nil {
		return nil, err
	}
	defer frame.Free()

	if width <= 0 {
		width = frame.Width()
	}
	if height <= 0 {
		height = width * frame.Height() / max(frame.Width(), 1)
		height += height % 2
	}

	scaler, err := newScaler(ctx, decoder.ScaleRequest{
		SourceWidth:       frame.Width(),
		SourceHeight:      frame.Height(),
		SourcePixelFormat: decoder.PixelFormat(frame.PixelFormat().String()),
		TargetWidth:       width,
		TargetHeight:      height,
	}, astiav.PixelFormatRgba)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the scaler: %w: %w", ffcodecs.ErrOther, err)
	}
	defer scaler.Close()

	scaled, err := scaler.scaleFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ffcodecs.ErrOther, err)
	}
	pix, err := scaled.Data().Bytes(1)
	if err != nil {
		return nil, fmt.Errorf("unable to get the scaled image: %w: %w", ffcodecs.ErrOther, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	return img, nil
}

// decodeFirstFrame feeds packets of the stream into the codec until it
// produces a frame. A packet the codec refuses is kept and sent again once
// a receive has been attempted.
func decodeFirstFrame(
	ctx context.Context,
	input *Input,
	streamIndex int,
	codec *Codec,
) (*astiav.Frame, error) {
	packet := astiav.AllocPacket()
	defer packet.Free()
	frame := astiav.AllocFrame()

	var (
		draining bool
		pending  bool
	)
	for {
		if err := ctx.Err(); err != nil {
			frame.Free()
			return nil, err
		}

		if !pending && !draining {
			packet.Unref()
			err := input.FormatContext.ReadFrame(packet)
			switch {
			case err == nil:
				if packet.StreamIndex() != streamIndex {
					continue
				}
			case errors.Is(err, astiav.ErrEof):
				draining = true
			default:
				frame.Free()
				return nil, fmt.Errorf("unable to read a packet: %w: %w", ffcodecs.ErrOther, err)
			}
			pending = true
		}

		if pending {
			var err error
			if draining {
				err = codec.codecContext.SendPacket(nil)
			} else {
				err = codec.codecContext.SendPacket(packet)
			}
			switch {
			case err == nil:
				pending = false
			case errors.Is(err, astiav.ErrEagain):
				logger.Tracef(ctx, "the decoder input is full, resending the packet after a receive")
			default:
				logger.Debugf(ctx, "unable to feed the decoder, skipping the packet: %v", err)
				pending = false
			}
		}

		err := codec.codecContext.ReceiveFrame(frame)
		switch {
		case err == nil:
			return frame, nil
		case errors.Is(err, astiav.ErrEagain):
			continue
		case errors.Is(err, astiav.ErrEof):
			frame.Free()
			return nil, fmt.Errorf("no frame could be decoded: %w", ffcodecs.ErrNoFrame)
		default:
			frame.Free()
			return nil, fmt.Errorf("unable to decode a frame: %w: %w", ffcodecs.ErrOther, err)
		}
	}
}
