// Package libav implements the decoder and container abstractions on top
// of the FFmpeg libraries.
package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/decoder"
)

type Backend struct{}

var _ decoder.Backend = (*Backend)(nil)

func NewBackend() *Backend {
	return &Backend{}
}

func trackTypeOf(mediaType astiav.MediaType) ffcodecs.TrackType {
	switch mediaType {
	case astiav.MediaTypeAudio:
		return ffcodecs.TrackTypeAudio
	case astiav.MediaTypeVideo:
		return ffcodecs.TrackTypeVideo
	}
	return ffcodecs.TrackTypeUnknown
}

func (*Backend) FindDecoder(
	ctx context.Context,
	codecName string,
) (decoder.CodecInfo, bool) {
	codec := astiav.FindDecoderByName(codecName)
	if codec == nil {
		logger.Debugf(ctx, "decoder '%s' is not found", codecName)
		return decoder.CodecInfo{}, false
	}
	return decoder.CodecInfo{
		Name: codec.Name(),
		Type: trackTypeOf(codec.ID().MediaType()),
	}, true
}

func (*Backend) OpenDecoder(
	ctx context.Context,
	req decoder.OpenRequest,
) (_ret decoder.Decoder, _err error) {
	logger.Debugf(ctx, "OpenDecoder(ctx, '%s')", req.Codec.Name)
	defer func() { logger.Debugf(ctx, "/OpenDecoder(ctx, '%s'): %v", req.Codec.Name, _err) }()

	d, err := newDecoder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("unable to open decoder '%s': %w", req.Codec.Name, err)
	}
	return d, nil
}

func (*Backend) NewResampler(
	ctx context.Context,
	src decoder.AudioFrame,
	dst ffcodecs.SampleFormat,
) (decoder.Resampler, error) {
	logger.Debugf(ctx, "NewResampler(ctx, %dHz/%dch -> %s)", src.SampleRate(), src.ChannelCount(), dst)
	r, err := newResampler(ctx, src, dst)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (*Backend) NewScaler(
	ctx context.Context,
	req decoder.ScaleRequest,
) (decoder.Scaler, error) {
	logger.Debugf(ctx, "NewScaler(ctx, %#+v)", req)
	s, err := newScaler(ctx, req, astiav.PixelFormatYuv420P)
	if err != nil {
		return nil, err
	}
	return s, nil
}
