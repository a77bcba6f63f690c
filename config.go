package ffcodecs

import (
	"fmt"
	"io"
	"strings"

	"github.com/xaionaro-go/secret"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Decoder DecoderConfig `json:"decoder,omitempty" yaml:"decoder,omitempty"`
	Demuxer DemuxerConfig `json:"demuxer,omitempty" yaml:"demuxer,omitempty"`
	Probe   ProbeConfig   `json:"probe,omitempty"   yaml:"probe,omitempty"`
}

type DecoderConfig struct {
	Audio AudioDecoderConfig `json:"audio,omitempty" yaml:"audio,omitempty"`
	Video VideoDecoderConfig `json:"video,omitempty" yaml:"video,omitempty"`
}

type AudioDecoderConfig struct {
	OutputFormat   SampleFormat    `json:"output_format,omitempty"   yaml:"output_format,omitempty"`
	ResubmitPolicy ResubmitPolicy  `json:"resubmit_policy,omitempty" yaml:"resubmit_policy,omitempty"`
	CustomOptions  DictionaryItems `json:"custom_options,omitempty"  yaml:"custom_options,omitempty"`
}

func (cfg AudioDecoderConfig) GetCustomOptions() DictionaryItems {
	return cfg.CustomOptions
}

type VideoDecoderConfig struct {
	// ThreadCount is a hint for the codec library; zero lets it decide.
	ThreadCount   int             `json:"thread_count,omitempty"   yaml:"thread_count,omitempty"`
	StrictErrors  bool            `json:"strict_errors,omitempty"  yaml:"strict_errors,omitempty"`
	CustomOptions DictionaryItems `json:"custom_options,omitempty" yaml:"custom_options,omitempty"`
}

func (cfg VideoDecoderConfig) GetCustomOptions() DictionaryItems {
	return cfg.CustomOptions
}

type DemuxerConfig struct {
	CustomOptions DictionaryItems `json:"custom_options,omitempty" yaml:"custom_options,omitempty"`

	// AuthKey is sent as a bearer token for URL sources; it is never serialized.
	AuthKey secret.String `json:"-" yaml:"-"`
}

func (cfg DemuxerConfig) GetCustomOptions() DictionaryItems {
	return cfg.CustomOptions
}

type ProbeConfig struct {
	ThumbnailWidth  int `json:"thumbnail_width,omitempty"  yaml:"thumbnail_width,omitempty"`
	ThumbnailHeight int `json:"thumbnail_height,omitempty" yaml:"thumbnail_height,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Decoder: DecoderConfig{
			Audio: AudioDecoderConfig{
				OutputFormat:   SampleFormatS16,
				ResubmitPolicy: ResubmitPolicyDrop,
			},
		},
		Probe: ProbeConfig{
			ThumbnailWidth:  320,
			ThumbnailHeight: 180,
		},
	}
}

// LoadConfig reads a YAML config on top of DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	err := yaml.NewDecoder(r).Decode(&cfg)
	switch {
	case err == nil, err == io.EOF:
		return cfg, nil
	default:
		return Config{}, fmt.Errorf("unable to un-YAML-ize the config: %w", err)
	}
}

func SaveConfig(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("unable to YAML-ize the config: %w", err)
	}
	return enc.Close()
}

// SampleFormat is the PCM layout the audio pipeline writes into the output buffer.
type SampleFormat uint

const (
	SampleFormatUndefined = SampleFormat(iota)
	SampleFormatS16
	SampleFormatFloat
	EndOfSampleFormat
)

func (sf SampleFormat) String() string {
	switch sf {
	case SampleFormatUndefined:
		return "<undefined>"
	case SampleFormatS16:
		return "s16"
	case SampleFormatFloat:
		return "flt"
	}
	return fmt.Sprintf("unexpected_sample_format_%d", uint(sf))
}

// BytesPerSample returns the size of one sample of one channel.
func (sf SampleFormat) BytesPerSample() int {
	switch sf {
	case SampleFormatS16:
		return 2
	case SampleFormatFloat:
		return 4
	}
	return 0
}

func (sf SampleFormat) MarshalText() ([]byte, error) {
	return []byte(sf.String()), nil
}

func (sf *SampleFormat) UnmarshalText(b []byte) error {
	if sf == nil {
		return fmt.Errorf("SampleFormat is nil")
	}
	s := strings.ToLower(strings.Trim(string(b), `"`))
	for cmp := SampleFormatUndefined; cmp < EndOfSampleFormat; cmp++ {
		if cmp.String() == s {
			*sf = cmp
			return nil
		}
	}
	if s == "float" {
		*sf = SampleFormatFloat
		return nil
	}
	return fmt.Errorf("unknown value of the SampleFormat: '%s'", s)
}

// ResubmitPolicy decides what happens to a packet the codec refused twice in one call.
type ResubmitPolicy uint

const (
	// ResubmitPolicyDrop discards the packet; frames produced so far are still returned.
	ResubmitPolicyDrop = ResubmitPolicy(iota)

	// ResubmitPolicyCarryOver keeps the packet in the session and submits it
	// first on the next decode call.
	ResubmitPolicyCarryOver
	EndOfResubmitPolicy
)

func (p ResubmitPolicy) String() string {
	switch p {
	case ResubmitPolicyDrop:
		return "drop"
	case ResubmitPolicyCarryOver:
		return "carry_over"
	}
	return fmt.Sprintf("unexpected_resubmit_policy_%d", uint(p))
}

func (p ResubmitPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ResubmitPolicy) UnmarshalText(b []byte) error {
	if p == nil {
		return fmt.Errorf("ResubmitPolicy is nil")
	}
	s := strings.ToLower(strings.Trim(string(b), `"`))
	for cmp := ResubmitPolicy(0); cmp < EndOfResubmitPolicy; cmp++ {
		if cmp.String() == s {
			*p = cmp
			return nil
		}
	}
	return fmt.Errorf("unknown value of the ResubmitPolicy: '%s'", s)
}
