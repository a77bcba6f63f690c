package decoder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ffcodecs"
)

func newTestManager(t *testing.T) (*Manager, *fakeBackend) {
	backend := newFakeBackend()
	m := NewManager(backend, ffcodecs.DefaultConfig().Decoder)
	t.Cleanup(func() {
		require.NoError(t, m.Close(context.Background()))
	})
	return m, backend
}

func TestManagerInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown_codec", func(t *testing.T) {
		m, _ := newTestManager(t)
		_, err := m.Initialize(ctx, InitParams{CodecName: "nope"})
		require.ErrorIs(t, err, ffcodecs.ErrNotFound)
		require.False(t, m.HasDecoder(ctx, "nope"))
		require.True(t, m.HasDecoder(ctx, "aac"))
	})

	t.Run("unsupported_type", func(t *testing.T) {
		m, _ := newTestManager(t)
		_, err := m.Initialize(ctx, InitParams{CodecName: "srt"})
		require.ErrorIs(t, err, ffcodecs.ErrOther)
	})

	t.Run("open_failure", func(t *testing.T) {
		m, backend := newTestManager(t)
		backend.NewDecoder = func(OpenRequest) *fakeDecoder { return nil }
		_, err := m.Initialize(ctx, InitParams{CodecName: "aac"})
		require.ErrorIs(t, err, ffcodecs.ErrOther)
		require.Zero(t, m.Sessions.Len(ctx))
	})

	t.Run("distinct_ids", func(t *testing.T) {
		m, _ := newTestManager(t)
		id0, err := m.Initialize(ctx, InitParams{CodecName: "aac"})
		require.NoError(t, err)
		id1, err := m.Initialize(ctx, InitParams{CodecName: "h264"})
		require.NoError(t, err)
		require.NotZero(t, id0)
		require.NotEqual(t, id0, id1)

		channels, err := m.ChannelCount(ctx, id0)
		require.NoError(t, err)
		require.Equal(t, 2, channels)
		rate, err := m.SampleRate(ctx, id0)
		require.NoError(t, err)
		require.Equal(t, 44100, rate)
	})
}

func TestBuildOpenRequest(t *testing.T) {
	cfg := ffcodecs.DefaultConfig().Decoder

	t.Run("audio", func(t *testing.T) {
		req := buildOpenRequest(
			CodecInfo{Name: "aac", Type: ffcodecs.TrackTypeAudio},
			InitParams{CodecName: "aac", ExtraData: []byte{1, 2}, RawSampleRate: 48000, RawChannelCount: 6},
			cfg,
		)
		require.Equal(t, []byte{1, 2}, req.ExtraData)
		v, _ := req.Options.Get("request_sample_fmt")
		require.Equal(t, "s16", v)
		v, _ = req.Options.Get("ar")
		require.Equal(t, "48000", v)
		v, _ = req.Options.Get("ch_layout")
		require.Equal(t, "6c", v)
		_, ok := req.Options.Get("block_align")
		require.False(t, ok)
	})

	t.Run("audio_unset_raw", func(t *testing.T) {
		req := buildOpenRequest(
			CodecInfo{Name: "aac", Type: ffcodecs.TrackTypeAudio},
			InitParams{CodecName: "aac", OutputFormat: ffcodecs.SampleFormatFloat, RawSampleRate: -1, RawChannelCount: -1},
			cfg,
		)
		v, _ := req.Options.Get("request_sample_fmt")
		require.Equal(t, "flt", v)
		_, ok := req.Options.Get("ar")
		require.False(t, ok)
		_, ok = req.Options.Get("ch_layout")
		require.False(t, ok)
	})

	t.Run("wma_repair", func(t *testing.T) {
		initData := ffcodecs.BuildWMAInitData(2973, 128000, []byte{7, 7, 7})
		req := buildOpenRequest(
			CodecInfo{Name: "wmav2", Type: ffcodecs.TrackTypeAudio},
			InitParams{CodecName: "wmav2", ExtraData: initData},
			cfg,
		)
		require.Equal(t, []byte{7, 7, 7}, req.ExtraData)
		v, _ := req.Options.Get("block_align")
		require.Equal(t, "2973", v)
		v, _ = req.Options.Get("b")
		require.Equal(t, "128000", v)
	})

	t.Run("custom_options_last", func(t *testing.T) {
		cfg := cfg
		cfg.Audio.CustomOptions = ffcodecs.DictionaryItems{{Key: "err_detect", Value: "careful"}}
		req := buildOpenRequest(
			CodecInfo{Name: "aac", Type: ffcodecs.TrackTypeAudio},
			InitParams{CodecName: "aac"},
			cfg,
		)
		v, _ := req.Options.Get("err_detect")
		require.Equal(t, "careful", v)
	})

	t.Run("video", func(t *testing.T) {
		req := buildOpenRequest(
			CodecInfo{Name: "h264", Type: ffcodecs.TrackTypeVideo},
			InitParams{CodecName: "h264", ThreadCount: 3},
			cfg,
		)
		v, _ := req.Options.Get("threads")
		require.Equal(t, "3", v)
		v, _ = req.Options.Get("err_detect")
		require.Equal(t, "ignore_err", v)
		_, ok := req.Options.Get("request_sample_fmt")
		require.False(t, ok)

		strict := cfg
		strict.Video.StrictErrors = true
		req = buildOpenRequest(
			CodecInfo{Name: "h264", Type: ffcodecs.TrackTypeVideo},
			InitParams{CodecName: "h264"},
			strict,
		)
		v, _ = req.Options.Get("threads")
		require.Equal(t, "auto", v)
		_, ok = req.Options.Get("err_detect")
		require.False(t, ok)
	})
}

func TestManagerReset(t *testing.T) {
	ctx := context.Background()

	t.Run("flush_in_place", func(t *testing.T) {
		m, backend := newTestManager(t)
		id, err := m.Initialize(ctx, InitParams{CodecName: "aac"})
		require.NoError(t, err)

		newID, err := m.Reset(ctx, id, nil)
		require.NoError(t, err)
		require.Equal(t, id, newID)
		require.Len(t, backend.Decoders, 1)
		require.Equal(t, 1, backend.Decoders[0].Flushes)

		stats, err := m.GetStats(ctx, id)
		require.NoError(t, err)
		require.Equal(t, uint64(1), stats.Flushes)
	})

	t.Run("truehd_recreate", func(t *testing.T) {
		m, backend := newTestManager(t)
		id, err := m.Initialize(ctx, InitParams{
			CodecName:       "truehd",
			OutputFormat:    ffcodecs.SampleFormatFloat,
			RawSampleRate:   96000,
			RawChannelCount: 8,
		})
		require.NoError(t, err)

		newID, err := m.Reset(ctx, id, []byte{0x42})
		require.NoError(t, err)
		require.NotEqual(t, id, newID)
		require.True(t, backend.Decoders[0].Closed)

		_, err = m.ChannelCount(ctx, id)
		require.ErrorIs(t, err, ffcodecs.ErrNotFound)

		require.Len(t, backend.Opened, 2)
		req := backend.Opened[1]
		require.Equal(t, []byte{0x42}, req.ExtraData)
		v, _ := req.Options.Get("request_sample_fmt")
		require.Equal(t, "flt", v)
		_, ok := req.Options.Get("ar")
		require.False(t, ok)
		_, ok = req.Options.Get("ch_layout")
		require.False(t, ok)
	})

	t.Run("truehd_recreate_failure", func(t *testing.T) {
		m, backend := newTestManager(t)
		id, err := m.Initialize(ctx, InitParams{CodecName: "truehd"})
		require.NoError(t, err)

		backend.NewDecoder = func(OpenRequest) *fakeDecoder { return nil }
		_, err = m.Reset(ctx, id, nil)
		require.ErrorIs(t, err, ffcodecs.ErrOther)
		require.Zero(t, m.Sessions.Len(ctx))
	})

	t.Run("unknown_session", func(t *testing.T) {
		m, _ := newTestManager(t)
		_, err := m.Reset(ctx, 12345, nil)
		require.ErrorIs(t, err, ffcodecs.ErrNotFound)
	})
}

func TestManagerRelease(t *testing.T) {
	ctx := context.Background()
	m, backend := newTestManager(t)

	id, err := m.Initialize(ctx, InitParams{CodecName: "aac"})
	require.NoError(t, err)
	_, err = m.Initialize(ctx, InitParams{CodecName: "h264"})
	require.NoError(t, err)

	require.NoError(t, m.Release(ctx, id))
	require.True(t, backend.Decoders[0].Closed)
	require.NoError(t, m.Release(ctx, id))
	require.NoError(t, m.Release(ctx, 0))

	require.NoError(t, m.Close(ctx))
	require.True(t, backend.Decoders[1].Closed)
	require.Zero(t, m.Sessions.Len(ctx))
}
