package container

import (
	"fmt"
	"net/url"
)

// Source is where a container is read from.
type Source interface {
	// Locator is the string handed to the media library to open the input.
	Locator() string
	fmt.Stringer
}

type PathSource struct {
	Path string
}

func (s PathSource) Locator() string { return s.Path }
func (s PathSource) String() string  { return "path:" + s.Path }

type URLSource struct {
	URL string
}

func (s URLSource) Locator() string { return s.URL }

// String omits credentials embedded into the URL.
func (s URLSource) String() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "url:<unparsable>"
	}
	return "url:" + u.Redacted()
}

// FDSource is an already opened file descriptor. It is opened through
// its /proc/self/fd path, so the input stays seekable.
type FDSource struct {
	FD int
}

func (s FDSource) Locator() string { return fmt.Sprintf("/proc/self/fd/%d", s.FD) }
func (s FDSource) String() string  { return fmt.Sprintf("fd:%d", s.FD) }

// ParseSource interprets a command-line argument: "fd:N", anything with
// a URL scheme, or otherwise a file path.
func ParseSource(s string) (Source, error) {
	var fd int
	if n, err := fmt.Sscanf(s, "fd:%d", &fd); err == nil && n == 1 {
		if fd < 0 {
			return nil, fmt.Errorf("invalid file descriptor %d", fd)
		}
		return FDSource{FD: fd}, nil
	}
	if u, err := url.Parse(s); err == nil && len(u.Scheme) > 1 && u.Scheme != "file" {
		return URLSource{URL: s}, nil
	}
	if s == "" {
		return nil, fmt.Errorf("empty source")
	}
	return PathSource{Path: s}, nil
}
