package decoder

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/internal"
)

// resettableCodecName is the codec whose reset recreates the context
// instead of flushing it, because its flush does not clear the internal
// state completely.
const resettableCodecName = "truehd"

// Manager owns codec sessions and hands out opaque SessionIDs for them.
type Manager struct {
	Backend  Backend
	Config   ffcodecs.DecoderConfig
	Sessions *internal.Arena[SessionID, *Session]
}

func NewManager(
	backend Backend,
	cfg ffcodecs.DecoderConfig,
) *Manager {
	return &Manager{
		Backend:  backend,
		Config:   cfg,
		Sessions: internal.NewArena[SessionID, *Session](),
	}
}

// HasDecoder reports whether a decoder with the given name is available.
func (m *Manager) HasDecoder(ctx context.Context, codecName string) bool {
	_, ok := m.Backend.FindDecoder(ctx, codecName)
	return ok
}

// Initialize opens a new decoder session.
func (m *Manager) Initialize(
	ctx context.Context,
	params InitParams,
) (_ret SessionID, _err error) {
	logger.Debugf(ctx, "Initialize(ctx, '%s')", params.CodecName)
	defer func() { logger.Debugf(ctx, "/Initialize(ctx, '%s'): %v %v", params.CodecName, _ret, _err) }()

	s, err := m.newSession(ctx, params)
	if err != nil {
		return 0, err
	}
	s.ID = m.Sessions.Add(ctx, s)
	return s.ID, nil
}

func (m *Manager) newSession(
	ctx context.Context,
	params InitParams,
) (_ret *Session, _err error) {
	codec, ok := m.Backend.FindDecoder(ctx, params.CodecName)
	if !ok {
		return nil, fmt.Errorf("decoder '%s': %w", params.CodecName, ffcodecs.ErrNotFound)
	}

	switch codec.Type {
	case ffcodecs.TrackTypeAudio, ffcodecs.TrackTypeVideo:
	default:
		return nil, fmt.Errorf("decoder '%s' is of unsupported type %s: %w", codec.Name, codec.Type, ffcodecs.ErrOther)
	}

	req := buildOpenRequest(codec, params, m.Config)
	dec, err := m.Backend.OpenDecoder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("unable to open decoder '%s': %w: %w", codec.Name, ffcodecs.ErrOther, err)
	}

	s := &Session{
		TraceID:      uuid.New(),
		Params:       params,
		Codec:        codec,
		OutputFormat: params.outputFormat(m.Config.Audio),
		Decoder:      dec,
	}
	return s, nil
}

func (m *Manager) getSession(ctx context.Context, id SessionID) (*Session, error) {
	s, ok := m.Sessions.Get(ctx, id)
	if !ok {
		return nil, fmt.Errorf("session %d: %w", id, ffcodecs.ErrNotFound)
	}
	return s, nil
}

// Reset discards all buffered codec state.
//
// For most codecs the session is flushed in place and the same ID is
// returned. For TrueHD the session is released and a new one is created
// from extraData with the same output format; the old ID becomes invalid
// even if the recreation fails.
func (m *Manager) Reset(
	ctx context.Context,
	id SessionID,
	extraData []byte,
) (_ret SessionID, _err error) {
	logger.Debugf(ctx, "Reset(ctx, %d)", id)
	defer func() { logger.Debugf(ctx, "/Reset(ctx, %d): %v %v", id, _ret, _err) }()

	s, err := m.getSession(ctx, id)
	if err != nil {
		return 0, err
	}

	if s.Codec.Name != resettableCodecName {
		s.Decoder.Flush(s.ctx(ctx))
		s.CarriedPackets = nil
		s.Stats.Flushes.Add(1)
		return id, nil
	}

	if err := m.Release(ctx, id); err != nil {
		logger.Warnf(ctx, "unable to release session %d cleanly: %v", id, err)
	}

	params := InitParams{
		CodecName:       s.Params.CodecName,
		ExtraData:       extraData,
		OutputFormat:    s.OutputFormat,
		RawSampleRate:   -1,
		RawChannelCount: -1,
	}
	return m.Initialize(ctx, params)
}

// Release closes the session. Releasing an unknown ID is a no-op.
func (m *Manager) Release(
	ctx context.Context,
	id SessionID,
) error {
	s, ok := m.Sessions.Remove(ctx, id)
	if !ok {
		logger.Debugf(ctx, "session %d is already released", id)
		return nil
	}
	return s.Close(s.ctx(ctx))
}

// ChannelCount returns the channel count the codec reports, or 0.
func (m *Manager) ChannelCount(ctx context.Context, id SessionID) (int, error) {
	s, err := m.getSession(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.Decoder.ChannelCount(), nil
}

// SampleRate returns the sample rate the codec reports, or 0.
func (m *Manager) SampleRate(ctx context.Context, id SessionID) (int, error) {
	s, err := m.getSession(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.Decoder.SampleRate(), nil
}

func (m *Manager) GetStats(ctx context.Context, id SessionID) (*Statistics, error) {
	s, err := m.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	stats := s.Stats.Convert()
	return &stats, nil
}

// Close releases every remaining session.
func (m *Manager) Close(ctx context.Context) error {
	var mErr *multierror.Error
	for _, s := range m.Sessions.Drain(ctx) {
		if err := s.Close(s.ctx(ctx)); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close session %s: %w", s, err))
		}
	}
	return mErr.ErrorOrNil()
}
