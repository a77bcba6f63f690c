package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/decoder"
)

// Resampler converts decoded audio to interleaved PCM at the source
// sample rate and channel layout.
type Resampler struct {
	SampleFormat astiav.SampleFormat
	SampleRate   int

	resampleContext *astiav.SoftwareResampleContext
	output          *astiav.Frame
	closer          *astikit.Closer
}

var _ decoder.Resampler = (*Resampler)(nil)

func sampleFormatToLibav(sf ffcodecs.SampleFormat) (astiav.SampleFormat, error) {
	switch sf {
	case ffcodecs.SampleFormatS16:
		return astiav.SampleFormatS16, nil
	case ffcodecs.SampleFormatFloat:
		return astiav.SampleFormatFlt, nil
	}
	return astiav.SampleFormatNone, fmt.Errorf("unsupported sample format %s", sf)
}

func newResampler(
	_ context.Context,
	src decoder.AudioFrame,
	dst ffcodecs.SampleFormat,
) (_ret *Resampler, _err error) {
	sampleFormat, err := sampleFormatToLibav(dst)
	if err != nil {
		return nil, err
	}

	r := &Resampler{
		SampleFormat: sampleFormat,
		SampleRate:   src.SampleRate(),
		closer:       astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			_ = r.Close()
		}
	}()

	r.resampleContext = astiav.AllocSoftwareResampleContext()
	if r.resampleContext == nil {
		return nil, fmt.Errorf("unable to allocate a resample context")
	}
	r.closer.Add(r.resampleContext.Free)

	r.output = astiav.AllocFrame()
	if r.output == nil {
		return nil, fmt.Errorf("unable to allocate a frame")
	}
	r.closer.Add(r.output.Free)
	return r, nil
}

// OutSamples is the upper bound of per-channel samples Convert produces
// for the frame, counting what is still buffered from earlier frames.
func (r *Resampler) OutSamples(frame decoder.AudioFrame) int {
	return frame.SampleCount() + r.Pending()
}

func (r *Resampler) Convert(
	_ context.Context,
	frame decoder.AudioFrame,
	dst []byte,
) (int, error) {
	src, ok := frame.(*AudioFrame)
	if !ok {
		return 0, fmt.Errorf("unexpected frame type %T", frame)
	}

	r.output.Unref()
	r.output.SetChannelLayout(src.Frame.Frame.ChannelLayout())
	r.output.SetSampleRate(r.SampleRate)
	r.output.SetSampleFormat(r.SampleFormat)

	if err := r.resampleContext.ConvertFrame(src.Frame.Frame, r.output); err != nil {
		return 0, fmt.Errorf("unable to convert the frame: %w", err)
	}

	data, err := r.output.Data().Bytes(1)
	if err != nil {
		return 0, fmt.Errorf("unable to get the converted samples: %w", err)
	}
	if len(data) > len(dst) {
		return 0, fmt.Errorf("converted %d bytes, but only %d bytes are reserved", len(data), len(dst))
	}
	return copy(dst, data), nil
}

func (r *Resampler) Pending() int {
	return int(r.resampleContext.Delay(int64(r.SampleRate)))
}

func (r *Resampler) Close() error {
	return r.closer.Close()
}
