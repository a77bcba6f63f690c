package decoder

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/ffcodecs"
)

// SessionID is the opaque handle of a codec session. Zero is never issued.
type SessionID uint64

// Session is one opened decoder plus its lazily-built converters.
//
// A session is single-threaded: the caller must not use the same session
// from multiple goroutines concurrently.
type Session struct {
	ID           SessionID
	TraceID      uuid.UUID
	Params       InitParams
	Codec        CodecInfo
	OutputFormat ffcodecs.SampleFormat
	Decoder      Decoder

	Resampler Resampler

	Scaler             Scaler
	ScalerSource       PixelFormat
	ScalerSourceWidth  int
	ScalerSourceHeight int
	Binding            *surfaceBinding

	// CarriedPackets are audio packets the codec refused twice; they are
	// submitted first on the next decode call.
	CarriedPackets [][]byte

	Stats sessionStatistics
}

func (s *Session) String() string {
	return fmt.Sprintf("%s#%d", s.Codec.Name, s.ID)
}

func (s *Session) ctx(ctx context.Context) context.Context {
	l := logger.FromCtx(ctx).
		WithField("session_id", uint64(s.ID)).
		WithField("trace_id", s.TraceID.String())
	return logger.CtxWithLogger(ctx, l)
}

// Close releases everything the session owns: the surface binding, then
// the converters, then the codec.
func (s *Session) Close(ctx context.Context) error {
	logger.Debugf(ctx, "closing session %s", s)
	s.Binding.release(ctx)
	s.Binding = nil

	var mErr *multierror.Error
	if s.Scaler != nil {
		if err := s.Scaler.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the scaler: %w", err))
		}
		s.Scaler = nil
	}
	if s.Resampler != nil {
		if err := s.Resampler.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the resampler: %w", err))
		}
		s.Resampler = nil
	}
	if s.Decoder != nil {
		if err := s.Decoder.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the decoder: %w", err))
		}
		s.Decoder = nil
	}
	s.CarriedPackets = nil
	return mErr.ErrorOrNil()
}
