package decoder

import (
	"strconv"

	"github.com/xaionaro-go/ffcodecs"
)

// InitParams configures a new session. Zero or negative numeric values
// mean "not provided".
type InitParams struct {
	CodecName string `json:"codec_name" yaml:"codec_name"`
	ExtraData []byte `json:"extra_data,omitempty" yaml:"extra_data,omitempty"`

	// Audio only.
	OutputFormat    ffcodecs.SampleFormat `json:"output_format,omitempty"     yaml:"output_format,omitempty"`
	RawSampleRate   int                   `json:"raw_sample_rate,omitempty"   yaml:"raw_sample_rate,omitempty"`
	RawChannelCount int                   `json:"raw_channel_count,omitempty" yaml:"raw_channel_count,omitempty"`
	BlockAlign      int                   `json:"block_align,omitempty"       yaml:"block_align,omitempty"`
	BitRate         int64                 `json:"bit_rate,omitempty"          yaml:"bit_rate,omitempty"`

	// Video only; zero lets the library pick.
	ThreadCount int `json:"thread_count,omitempty" yaml:"thread_count,omitempty"`
}

func (p InitParams) outputFormat(cfg ffcodecs.AudioDecoderConfig) ffcodecs.SampleFormat {
	if p.OutputFormat != ffcodecs.SampleFormatUndefined {
		return p.OutputFormat
	}
	if cfg.OutputFormat != ffcodecs.SampleFormatUndefined {
		return cfg.OutputFormat
	}
	return ffcodecs.SampleFormatS16
}

// buildOpenRequest resolves InitParams into what the backend applies to a
// codec context before opening it.
func buildOpenRequest(
	codec CodecInfo,
	params InitParams,
	cfg ffcodecs.DecoderConfig,
) OpenRequest {
	req := OpenRequest{
		Codec:     codec,
		ExtraData: params.ExtraData,
	}

	switch codec.Type {
	case ffcodecs.TrackTypeAudio:
		req.Options = append(req.Options, ffcodecs.DictionaryItem{
			Key:   "request_sample_fmt",
			Value: params.outputFormat(cfg.Audio).String(),
		})
		if params.RawSampleRate > 0 {
			req.Options = append(req.Options, ffcodecs.DictionaryItem{
				Key:   "ar",
				Value: strconv.Itoa(params.RawSampleRate),
			})
		}
		if params.RawChannelCount > 0 {
			req.Options = append(req.Options, ffcodecs.DictionaryItem{
				Key:   "ch_layout",
				Value: strconv.Itoa(params.RawChannelCount) + "c",
			})
		}

		blockAlign, bitRate := params.BlockAlign, params.BitRate
		if ffcodecs.IsWMACodec(codec.Name) {
			r := ffcodecs.RepairWMAInitData(params.ExtraData, blockAlign, bitRate)
			req.ExtraData, blockAlign, bitRate = r.ExtraData, r.BlockAlign, r.BitRate
		}
		if blockAlign > 0 {
			req.Options = append(req.Options, ffcodecs.DictionaryItem{
				Key:   "block_align",
				Value: strconv.Itoa(blockAlign),
			})
		}
		if bitRate > 0 {
			req.Options = append(req.Options, ffcodecs.DictionaryItem{
				Key:   "b",
				Value: strconv.FormatInt(bitRate, 10),
			})
		}
		req.Options = append(req.Options, ffcodecs.DictionaryItem{Key: "err_detect", Value: "ignore_err"})
		req.Options = req.Options.WithCustomOptions(cfg.Audio)

	case ffcodecs.TrackTypeVideo:
		threads := "auto"
		switch {
		case params.ThreadCount > 0:
			threads = strconv.Itoa(params.ThreadCount)
		case cfg.Video.ThreadCount > 0:
			threads = strconv.Itoa(cfg.Video.ThreadCount)
		}
		req.Options = append(req.Options, ffcodecs.DictionaryItem{Key: "threads", Value: threads})
		if !cfg.Video.StrictErrors {
			req.Options = append(req.Options, ffcodecs.DictionaryItem{Key: "err_detect", Value: "ignore_err"})
		}
		req.Options = req.Options.WithCustomOptions(cfg.Video)
	}

	return req
}
