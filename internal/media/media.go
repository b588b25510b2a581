package media

import (
	"errors"
	"path/filepath"
	"strings"
)

type Kind uint8

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

// Descriptor points at one piece of media to show on the ring.
type Descriptor struct {
	URL  string
	Kind Kind
}

// ErrUnsupported is returned for media the loader cannot decode.
var ErrUnsupported = errors.New("media: unsupported format")

// wireItem is one entry of the backend's media list or upload response.
type wireItem struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Type        string `json:"type"`
}

func (w wireItem) descriptor() Descriptor {
	ct := w.ContentType
	if ct == "" {
		ct = w.Type
	}
	return Descriptor{URL: w.URL, Kind: KindOf(ct)}
}

// KindOf classifies a MIME type; anything not video is treated as an image.
func KindOf(contentType string) Kind {
	if strings.HasPrefix(strings.ToLower(contentType), "video") {
		return KindVideo
	}
	return KindImage
}

var videoExt = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".mkv": true, ".m4v": true, ".avi": true,
}

// KindOfPath classifies a local file by extension.
func KindOfPath(path string) Kind {
	if videoExt[strings.ToLower(filepath.Ext(path))] {
		return KindVideo
	}
	return KindImage
}

// Prepend puts added in front of existing, keeping most-recent-first order.
func Prepend(added, existing []Descriptor) []Descriptor {
	out := make([]Descriptor, 0, len(added)+len(existing))
	out = append(out, added...)
	return append(out, existing...)
}
