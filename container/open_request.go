package container

import (
	"github.com/xaionaro-go/ffcodecs"
)

type OpenRequest struct {
	Source  Source
	Options ffcodecs.DictionaryItems
}

// NewOpenRequest applies the demuxer config to a source. The auth key is
// sent as a bearer token, only to URL sources.
func NewOpenRequest(
	source Source,
	cfg ffcodecs.DemuxerConfig,
) OpenRequest {
	req := OpenRequest{
		Source:  source,
		Options: ffcodecs.DictionaryItems(nil).WithCustomOptions(cfg),
	}
	if _, ok := source.(URLSource); ok {
		if key := cfg.AuthKey.Get(); key != "" {
			req.Options = req.Options.With("headers", "Authorization: Bearer "+key+"\r\n")
		}
	}
	return req
}
