package ffcodecs

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/require"
)

func TestConfigMarshalUnmarshal(t *testing.T) {
	cfg := &Config{
		Decoder: DecoderConfig{
			Audio: AudioDecoderConfig{
				OutputFormat:   SampleFormatFloat,
				ResubmitPolicy: ResubmitPolicyCarryOver,
				CustomOptions:  DictionaryItems{{Key: "drc_scale", Value: "0"}},
			},
			Video: VideoDecoderConfig{
				ThreadCount:  4,
				StrictErrors: true,
			},
		},
		Demuxer: DemuxerConfig{
			CustomOptions: DictionaryItems{{Key: "probesize", Value: "5000000"}},
		},
		Probe: ProbeConfig{
			ThumbnailWidth:  640,
			ThumbnailHeight: 360,
		},
	}

	b, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var cfgDup Config
	err = yaml.Unmarshal(b, &cfgDup)
	require.NoError(t, err, string(b))
	require.Equal(t, cfg, &cfgDup)

	b, err = json.Marshal(cfg)
	require.NoError(t, err)
	cfgDup = Config{}
	require.NoError(t, json.Unmarshal(b, &cfgDup), string(b))
	require.Equal(t, cfg, &cfgDup)
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("override", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(`
decoder:
  audio:
    output_format: flt
    resubmit_policy: carry_over
  video:
    thread_count: 2
`))
		require.NoError(t, err)
		require.Equal(t, SampleFormatFloat, cfg.Decoder.Audio.OutputFormat)
		require.Equal(t, ResubmitPolicyCarryOver, cfg.Decoder.Audio.ResubmitPolicy)
		require.Equal(t, 2, cfg.Decoder.Video.ThreadCount)
		require.Equal(t, DefaultConfig().Probe, cfg.Probe)
	})

	t.Run("unknown_enum_value", func(t *testing.T) {
		_, err := LoadConfig(strings.NewReader("decoder:\n  audio:\n    output_format: s24\n"))
		require.Error(t, err)
	})

	t.Run("save_load", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Decoder.Audio.OutputFormat = SampleFormatFloat
		var buf bytes.Buffer
		require.NoError(t, SaveConfig(&buf, cfg))
		loaded, err := LoadConfig(&buf)
		require.NoError(t, err)
		require.Equal(t, cfg, loaded)
	})
}

func TestSampleFormat(t *testing.T) {
	require.Equal(t, 2, SampleFormatS16.BytesPerSample())
	require.Equal(t, 4, SampleFormatFloat.BytesPerSample())
	require.Zero(t, SampleFormatUndefined.BytesPerSample())

	var sf SampleFormat
	require.NoError(t, sf.UnmarshalText([]byte("float")))
	require.Equal(t, SampleFormatFloat, sf)
}

func TestDictionaryItems(t *testing.T) {
	items := DictionaryItems{{Key: "threads", Value: "1"}}
	items2 := items.With("threads", "4")
	require.Len(t, items, 1)

	v, ok := items2.Get("threads")
	require.True(t, ok)
	require.Equal(t, "4", v)

	_, ok = items2.Get("nope")
	require.False(t, ok)

	merged := items.WithCustomOptions(
		AudioDecoderConfig{CustomOptions: DictionaryItems{{Key: "threads", Value: "2"}}},
		DemuxerConfig{CustomOptions: DictionaryItems{{Key: "probesize", Value: "32"}}},
	)
	require.Len(t, items, 1)
	require.Equal(t, DictionaryItems{
		{Key: "threads", Value: "1"},
		{Key: "threads", Value: "2"},
		{Key: "probesize", Value: "32"},
	}, merged)
	v, ok = merged.Get("threads")
	require.True(t, ok)
	require.Equal(t, "2", v)
}

func TestErrorCodeFromError(t *testing.T) {
	require.Equal(t, ErrorCodeOK, ErrorCodeFromError(nil))
	require.Equal(t, ErrorCodeInvalidData, ErrorCodeFromError(ErrInvalidData))
	require.Equal(t, ErrorCodeInvalidData, ErrorCodeFromError(ErrNoFrame))
	require.Equal(t, ErrorCodeNeedMoreInput, ErrorCodeFromError(ErrNeedMoreInput))
	require.Equal(t, ErrorCodeOther, ErrorCodeFromError(ErrOther))
	require.Equal(t, ErrorCodeOther, ErrorCodeFromError(ErrNotFound))
	require.Equal(t, "NEED_MORE_INPUT", ErrorCodeNeedMoreInput.String())
}
