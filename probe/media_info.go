package probe

// MediaInfo is a read-only summary of a container for presentation.
type MediaInfo struct {
	Format          string           `json:"format"                     yaml:"format"`
	DurationMillis  int64            `json:"duration_ms"                yaml:"duration_ms"`
	VideoStreams    []VideoStream    `json:"video_streams,omitempty"    yaml:"video_streams,omitempty"`
	AudioStreams    []AudioStream    `json:"audio_streams,omitempty"    yaml:"audio_streams,omitempty"`
	SubtitleStreams []SubtitleStream `json:"subtitle_streams,omitempty" yaml:"subtitle_streams,omitempty"`
	Chapters        []Chapter        `json:"chapters,omitempty"         yaml:"chapters,omitempty"`
}

// PrimaryVideo returns the first video stream, or nil.
func (info *MediaInfo) PrimaryVideo() *VideoStream {
	if info == nil || len(info.VideoStreams) == 0 {
		return nil
	}
	return &info.VideoStreams[0]
}

type StreamCommons struct {
	Index       int    `json:"index"                 yaml:"index"`
	Title       string `json:"title,omitempty"       yaml:"title,omitempty"`
	CodecName   string `json:"codec_name"            yaml:"codec_name"`
	Language    string `json:"language,omitempty"    yaml:"language,omitempty"`
	Disposition int    `json:"disposition,omitempty" yaml:"disposition,omitempty"`
}

type VideoStream struct {
	StreamCommons `yaml:",inline"`
	BitRate       int64   `json:"bit_rate,omitempty" yaml:"bit_rate,omitempty"`
	FrameRate     float64 `json:"frame_rate"         yaml:"frame_rate"`
	Width         int     `json:"width"              yaml:"width"`
	Height        int     `json:"height"             yaml:"height"`
	Rotation      int     `json:"rotation"           yaml:"rotation"`
}

type AudioStream struct {
	StreamCommons `yaml:",inline"`
	BitRate       int64  `json:"bit_rate,omitempty"       yaml:"bit_rate,omitempty"`
	SampleFormat  string `json:"sample_format,omitempty"  yaml:"sample_format,omitempty"`
	SampleRate    int    `json:"sample_rate"              yaml:"sample_rate"`
	Channels      int    `json:"channels"                 yaml:"channels"`
	ChannelLayout string `json:"channel_layout,omitempty" yaml:"channel_layout,omitempty"`
}

type SubtitleStream struct {
	StreamCommons `yaml:",inline"`
}

type Chapter struct {
	Index       int    `json:"index"           yaml:"index"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	StartMillis int64  `json:"start_ms"        yaml:"start_ms"`
	EndMillis   int64  `json:"end_ms"          yaml:"end_ms"`
}
