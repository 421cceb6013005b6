// Package resolve turns a source URL into identifying metadata without
// downloading any media.
package resolve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/ahenaor/audiosnip/internal/innertube"
	"github.com/ahenaor/audiosnip/internal/sanitize"
)

const (
	// UnknownID marks a source whose identifier could not be determined.
	UnknownID = "unknown"
	// PlaceholderTitle stands in when the source reports no title.
	PlaceholderTitle = "audio"
)

// Source is the read-only metadata derived once per distinct URL.
type Source struct {
	VideoID  string
	Title    string
	BaseName string
}

// Error wraps a failed metadata lookup. Certificate and other network
// failures surface here; trust is never relaxed to get past them.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Resolver performs the dry metadata lookup.
type Resolver interface {
	Resolve(ctx context.Context, url string) (Source, error)
}

// YouTube resolves URLs through the innertube metadata endpoint.
type YouTube struct {
	client *youtube.Client
}

func NewYouTube(timeout time.Duration) *YouTube {
	return &YouTube{
		client: &youtube.Client{
			HTTPClient: &http.Client{Timeout: timeout},
		},
	}
}

func (y *YouTube) Resolve(ctx context.Context, url string) (Source, error) {
	// GetVideoContext reads the library's identity global; hold the
	// shared lock so extraction strategies cannot swap it mid-call.
	release := innertube.Acquire()
	video, err := y.client.GetVideoContext(ctx, url)
	release()
	if err != nil {
		return Source{}, &Error{URL: url, Err: err}
	}
	return fromMetadata(video.ID, video.Title), nil
}

// fromMetadata applies the placeholder and sanitization rules shared by
// every resolver backend.
func fromMetadata(id, title string) Source {
	if id == "" {
		id = UnknownID
	}
	if title == "" {
		title = PlaceholderTitle
	}
	base := sanitize.BaseName(title)
	if base == "" {
		base = PlaceholderTitle
	}
	return Source{VideoID: id, Title: title, BaseName: base}
}
