package demuxer

import (
	"github.com/xaionaro-go/ffcodecs/container"
)

var videoMimeTypes = map[string]string{
	"vc1":       "video/wvc1",
	"wmv3":      "video/x-ms-wmv3",
	"wmv2":      "video/x-ms-wmv2",
	"msmpeg4v3": "video/x-ms-msmpeg4v3",
}

var audioMimeTypes = map[string]string{
	"wmav1":       "audio/x-ms-wmav1",
	"wmav2":       "audio/x-ms-wmav2",
	"wmapro":      "audio/x-ms-wmapro",
	"wmalossless": "audio/x-ms-wmalossless",
}

// MimeType is the sample mime type the host player uses to pick a
// renderer for a stream.
func MimeType(mediaType container.MediaType, codecName string) string {
	switch mediaType {
	case container.MediaTypeVideo:
		if mime, ok := videoMimeTypes[codecName]; ok {
			return mime
		}
		return "video/x-unknown"
	case container.MediaTypeAudio:
		if mime, ok := audioMimeTypes[codecName]; ok {
			return mime
		}
		return "audio/x-unknown"
	}
	return "application/octet-stream"
}
