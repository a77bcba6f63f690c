package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/ffcodecs/decoder"
)

// Scaler converts frames of one source geometry and pixel format to
// another geometry and pixel format.
type Scaler struct {
	Request           decoder.ScaleRequest
	TargetPixelFormat astiav.PixelFormat

	scaleContext *astiav.SoftwareScaleContext
	output       *astiav.Frame
	closer       *astikit.Closer
}

var _ decoder.Scaler = (*Scaler)(nil)

func newScaler(
	_ context.Context,
	req decoder.ScaleRequest,
	targetPixelFormat astiav.PixelFormat,
) (_ret *Scaler, _err error) {
	srcPixelFormat := astiav.FindPixelFormatByName(string(req.SourcePixelFormat))
	if srcPixelFormat == astiav.PixelFormatNone {
		return nil, fmt.Errorf("unknown pixel format '%s'", req.SourcePixelFormat)
	}

	s := &Scaler{
		Request:           req,
		TargetPixelFormat: targetPixelFormat,
		closer:            astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			_ = s.Close()
		}
	}()

	scaleContext, err := astiav.CreateSoftwareScaleContext(
		req.SourceWidth, req.SourceHeight, srcPixelFormat,
		req.TargetWidth, req.TargetHeight, targetPixelFormat,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create a scale context %dx%d/%s -> %dx%d/%s: %w",
			req.SourceWidth, req.SourceHeight, srcPixelFormat,
			req.TargetWidth, req.TargetHeight, targetPixelFormat,
			err,
		)
	}
	s.scaleContext = scaleContext
	s.closer.Add(scaleContext.Free)

	s.output = astiav.AllocFrame()
	if s.output == nil {
		return nil, fmt.Errorf("unable to allocate a frame")
	}
	s.closer.Add(s.output.Free)
	return s, nil
}

func (s *Scaler) scaleFrame(src *astiav.Frame) (*astiav.Frame, error) {
	s.output.Unref()
	s.output.SetWidth(s.Request.TargetWidth)
	s.output.SetHeight(s.Request.TargetHeight)
	s.output.SetPixelFormat(s.TargetPixelFormat)
	if err := s.output.AllocBuffer(1); err != nil {
		return nil, fmt.Errorf("unable to allocate the output buffer: %w", err)
	}
	if err := s.scaleContext.ScaleFrame(src, s.output); err != nil {
		return nil, fmt.Errorf("unable to scale the frame: %w", err)
	}
	return s.output, nil
}

// Scale returns the converted frame as yuv420p planes.
func (s *Scaler) Scale(
	_ context.Context,
	frame decoder.VideoFrame,
) ([]decoder.Plane, error) {
	src, ok := frame.(*VideoFrame)
	if !ok {
		return nil, fmt.Errorf("unexpected frame type %T", frame)
	}
	out, err := s.scaleFrame(src.Frame.Frame)
	if err != nil {
		return nil, err
	}
	return yuv420Planes(out)
}

func (s *Scaler) Close() error {
	return s.closer.Close()
}
