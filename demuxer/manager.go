package demuxer

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/container"
	"github.com/xaionaro-go/ffcodecs/internal"
)

// Manager owns opened demuxers and hands out opaque DemuxerIDs for them.
type Manager struct {
	Opener   container.Opener
	Config   ffcodecs.DemuxerConfig
	Demuxers *internal.Arena[DemuxerID, *Demuxer]
}

func NewManager(
	opener container.Opener,
	cfg ffcodecs.DemuxerConfig,
) *Manager {
	return &Manager{
		Opener:   opener,
		Config:   cfg,
		Demuxers: internal.NewArena[DemuxerID, *Demuxer](),
	}
}

// Open opens and probes the source.
func (m *Manager) Open(
	ctx context.Context,
	source container.Source,
) (_ret DemuxerID, _err error) {
	logger.Debugf(ctx, "Open(ctx, %s)", source)
	defer func() { logger.Debugf(ctx, "/Open(ctx, %s): %v %v", source, _ret, _err) }()

	if source == nil {
		return 0, fmt.Errorf("source is not set: %w", ffcodecs.ErrOther)
	}

	c, err := m.Opener.OpenContainer(ctx, container.NewOpenRequest(source, m.Config))
	if err != nil {
		return 0, fmt.Errorf("unable to open %s: %w: %w", source, ffcodecs.ErrOther, err)
	}

	d := newDemuxer(source, c)
	d.ID = m.Demuxers.Add(ctx, d)
	logger.Debugf(ctx, "%s has %d tracks", d, len(d.TrackStreams))
	return d.ID, nil
}

func (m *Manager) Get(ctx context.Context, id DemuxerID) (*Demuxer, error) {
	d, ok := m.Demuxers.Get(ctx, id)
	if !ok {
		return nil, fmt.Errorf("demuxer %d: %w", id, ffcodecs.ErrNotFound)
	}
	return d, nil
}

func (m *Manager) TrackCount(ctx context.Context, id DemuxerID) (int, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(d.TrackStreams), nil
}

func (m *Manager) DurationMicros(ctx context.Context, id DemuxerID) (int64, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return ffcodecs.TimeUnset, err
	}
	return d.DurationMicros(), nil
}

func (m *Manager) TrackInfo(ctx context.Context, id DemuxerID, trackIndex int) (*ffcodecs.TrackInfo, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.TrackInfo(trackIndex)
}

// ReadPacket returns io.EOF at the end of the input.
func (m *Manager) ReadPacket(ctx context.Context, id DemuxerID) (*ffcodecs.Packet, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.ReadPacket(d.ctx(ctx))
}

func (m *Manager) Seek(ctx context.Context, id DemuxerID, timeMicros int64) error {
	d, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	d.Seek(d.ctx(ctx), timeMicros)
	return nil
}

// Release closes the demuxer. Releasing an unknown ID is a no-op.
func (m *Manager) Release(ctx context.Context, id DemuxerID) error {
	d, ok := m.Demuxers.Remove(ctx, id)
	if !ok {
		return nil
	}
	logger.Debugf(ctx, "releasing %s", d)
	return d.Close()
}

// Close releases every remaining demuxer.
func (m *Manager) Close(ctx context.Context) error {
	var mErr *multierror.Error
	for _, d := range m.Demuxers.Drain(ctx) {
		if err := d.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close %s: %w", d, err))
		}
	}
	return mErr.ErrorOrNil()
}
