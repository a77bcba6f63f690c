package decoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs"
)

// SendVideoPacket submits one compressed video packet.
//
// ErrNeedMoreInput means the codec input is full and frames must be
// received before the packet is sent again.
func (m *Manager) SendVideoPacket(
	ctx context.Context,
	id SessionID,
	payload []byte,
	pts int64,
) (_err error) {
	s, err := m.getSession(ctx, id)
	if err != nil {
		return err
	}
	ctx = s.ctx(ctx)
	logger.Tracef(ctx, "SendVideoPacket(ctx, %d, len:%d, pts:%d)", id, len(payload), pts)
	defer func() { logger.Tracef(ctx, "/SendVideoPacket(ctx, %d, len:%d, pts:%d): %v", id, len(payload), pts, _err) }()

	if s.Codec.Type != ffcodecs.TrackTypeVideo {
		return fmt.Errorf("session %s is not a video session: %w", s, ffcodecs.ErrOther)
	}

	err = s.Decoder.SendPacket(ctx, payload, pts)
	switch {
	case err == nil:
		s.Stats.Packets.Sent.Add(1)
		return nil
	case errors.Is(err, ErrWouldBlock):
		return ffcodecs.ErrNeedMoreInput
	case errors.Is(err, ErrMalformed):
		s.Stats.Packets.Invalid.Add(1)
		return fmt.Errorf("unable to send a packet: %w: %w", ffcodecs.ErrInvalidData, err)
	default:
		return fmt.Errorf("unable to send a packet: %w: %w", ffcodecs.ErrOther, err)
	}
}

// ReceiveVideoFrame returns the next decoded frame, or ErrNoFrame if
// there is none ready. With decodeOnly set the frame is decoded and
// discarded, and ErrNoFrame is returned.
func (m *Manager) ReceiveVideoFrame(
	ctx context.Context,
	id SessionID,
	decodeOnly bool,
) (_ret VideoFrame, _err error) {
	s, err := m.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.ctx(ctx)

	frame, err := s.Decoder.ReceiveFrame(ctx)
	if err == nil {
		s.Stats.Frames.Received.Add(1)
	}

	if decodeOnly {
		if err == nil {
			frame.Release()
		} else if !errors.Is(err, ErrWouldBlock) {
			logger.Debugf(ctx, "decode-only receive failed: %v", err)
		}
		return nil, ffcodecs.ErrNoFrame
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrWouldBlock):
		return nil, ffcodecs.ErrNoFrame
	default:
		return nil, fmt.Errorf("unable to receive a frame: %w: %w", ffcodecs.ErrOther, err)
	}

	videoFrame, ok := frame.(VideoFrame)
	if !ok {
		frame.Release()
		return nil, fmt.Errorf("received a non-video frame %T: %w", frame, ffcodecs.ErrInvalidData)
	}
	return videoFrame, nil
}

// RenderFrame draws the frame onto the surface as YV12 at the given
// display size. The frame stays owned by the caller.
//
// A busy surface is not an error: the frame is skipped, the binding is
// dropped, and nil is returned.
func (m *Manager) RenderFrame(
	ctx context.Context,
	id SessionID,
	surface Surface,
	frame VideoFrame,
	displayWidth, displayHeight int,
) (_err error) {
	s, err := m.getSession(ctx, id)
	if err != nil {
		return err
	}
	ctx = s.ctx(ctx)
	logger.Tracef(ctx, "RenderFrame(ctx, %d, %dx%d)", id, displayWidth, displayHeight)
	defer func() { logger.Tracef(ctx, "/RenderFrame(ctx, %d, %dx%d): %v", id, displayWidth, displayHeight, _err) }()

	if surface == nil || frame == nil {
		return fmt.Errorf("surface and frame are required: %w", ffcodecs.ErrOther)
	}
	if displayWidth <= 0 || displayHeight <= 0 {
		return fmt.Errorf("invalid display size %dx%d: %w", displayWidth, displayHeight, ffcodecs.ErrOther)
	}

	if err := m.bindSurface(ctx, s, surface); err != nil {
		return err
	}
	b := s.Binding

	geometryChanged := b.Width != displayWidth || b.Height != displayHeight
	if geometryChanged {
		if err := surface.SetGeometry(ctx, displayWidth, displayHeight, SurfaceFormatYV12); err != nil {
			return fmt.Errorf("unable to set the surface geometry to %dx%d: %w: %w",
				displayWidth, displayHeight, ffcodecs.ErrOther, err)
		}
		b.Width, b.Height = displayWidth, displayHeight
	}

	if err := m.configureScaler(ctx, s, frame, displayWidth, displayHeight, geometryChanged); err != nil {
		return err
	}

	buf, err := surface.Lock(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSurfaceBusy):
		logger.Debugf(ctx, "the surface %d is busy, skipping the frame", surface.ID())
		s.Stats.Frames.Skipped.Add(1)
		s.Binding.release(ctx)
		s.Binding = nil
		return nil
	default:
		return fmt.Errorf("unable to lock the surface: %w: %w", ffcodecs.ErrOther, err)
	}

	copyErr := m.copyToSurface(ctx, s, frame, buf, displayWidth, displayHeight)
	if err := surface.UnlockAndPost(ctx); err != nil {
		return fmt.Errorf("unable to post the surface: %w: %w", ffcodecs.ErrOther, err)
	}
	if copyErr != nil {
		return copyErr
	}
	s.Stats.Frames.Rendered.Add(1)
	return nil
}

func (m *Manager) bindSurface(
	ctx context.Context,
	s *Session,
	surface Surface,
) error {
	if s.Binding != nil && s.Binding.Surface != nil && s.Binding.Surface.ID() == surface.ID() {
		return nil
	}

	s.Binding.release(ctx)
	s.Binding = nil
	if err := surface.Acquire(ctx); err != nil {
		return fmt.Errorf("unable to acquire the surface %d: %w: %w", surface.ID(), ffcodecs.ErrOther, err)
	}
	logger.Debugf(ctx, "bound to surface %d", surface.ID())
	s.Binding = &surfaceBinding{Surface: surface}
	return nil
}

func (m *Manager) configureScaler(
	ctx context.Context,
	s *Session,
	frame VideoFrame,
	displayWidth, displayHeight int,
	geometryChanged bool,
) error {
	pixFmt := frame.PixelFormat()
	if pixFmt.IsPlanarYUV420() {
		if s.Scaler != nil {
			if err := s.Scaler.Close(); err != nil {
				logger.Warnf(ctx, "unable to close the scaler: %v", err)
			}
			s.Scaler = nil
		}
		return nil
	}

	sourceChanged := pixFmt != s.ScalerSource ||
		frame.Width() != s.ScalerSourceWidth ||
		frame.Height() != s.ScalerSourceHeight
	if s.Scaler != nil && !geometryChanged && !sourceChanged {
		return nil
	}

	if s.Scaler != nil {
		if err := s.Scaler.Close(); err != nil {
			logger.Warnf(ctx, "unable to close the scaler: %v", err)
		}
		s.Scaler = nil
	}

	scaler, err := m.Backend.NewScaler(ctx, ScaleRequest{
		SourceWidth:       frame.Width(),
		SourceHeight:      frame.Height(),
		SourcePixelFormat: pixFmt,
		TargetWidth:       displayWidth,
		TargetHeight:      displayHeight,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize a scaler %s -> %s: %w: %w", pixFmt, PixelFormatYUV420P, ffcodecs.ErrOther, err)
	}
	logger.Debugf(ctx, "initialized a scaler %s %dx%d -> %s %dx%d",
		pixFmt, frame.Width(), frame.Height(), PixelFormatYUV420P, displayWidth, displayHeight)
	s.Scaler = scaler
	s.ScalerSource = pixFmt
	s.ScalerSourceWidth = frame.Width()
	s.ScalerSourceHeight = frame.Height()
	return nil
}

func (m *Manager) copyToSurface(
	ctx context.Context,
	s *Session,
	frame VideoFrame,
	buf SurfaceBuffer,
	displayWidth, displayHeight int,
) error {
	var (
		planes []Plane
		err    error
	)
	if s.Scaler != nil {
		planes, err = s.Scaler.Scale(ctx, frame)
		if err != nil {
			return fmt.Errorf("unable to convert the frame: %w: %w", ffcodecs.ErrOther, err)
		}
	} else {
		planes, err = frame.Planes()
		if err != nil {
			return fmt.Errorf("unable to get the frame planes: %w: %w", ffcodecs.ErrInvalidData, err)
		}
	}

	if err := CopyYV12(buf, planes, displayWidth, displayHeight); err != nil {
		return fmt.Errorf("%w: %w", ffcodecs.ErrInvalidData, err)
	}
	return nil
}

// ResetVideo flushes the video codec in place; the session keeps its ID
// and its surface binding.
func (m *Manager) ResetVideo(
	ctx context.Context,
	id SessionID,
) (_err error) {
	logger.Debugf(ctx, "ResetVideo(ctx, %d)", id)
	defer func() { logger.Debugf(ctx, "/ResetVideo(ctx, %d): %v", id, _err) }()

	s, err := m.getSession(ctx, id)
	if err != nil {
		return err
	}
	if s.Codec.Type != ffcodecs.TrackTypeVideo {
		return fmt.Errorf("session %s is not a video session: %w", s, ffcodecs.ErrOther)
	}
	s.Decoder.Flush(s.ctx(ctx))
	s.Stats.Flushes.Add(1)
	return nil
}
