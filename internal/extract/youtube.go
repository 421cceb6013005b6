package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/ahenaor/audiosnip/internal/innertube"
)

// clientStrategy fetches streams natively under a specific innertube
// client identity. The library picks the identity through the
// youtube.DefaultClient package global, whose type is unexported, so
// each strategy carries an install closure instead of the value.
type clientStrategy struct {
	name    string
	install func()
	client  *youtube.Client
}

// NewAndroidClient extracts with the Android client identity, the one
// least likely to be blocked from data-center addresses.
func NewAndroidClient(timeout time.Duration) Strategy {
	return newClientStrategy("android-client", func() {
		youtube.DefaultClient = youtube.AndroidClient
	}, timeout)
}

// NewWebClient extracts with the standard Web client identity.
func NewWebClient(timeout time.Duration) Strategy {
	return newClientStrategy("web-client", func() {
		youtube.DefaultClient = youtube.WebClient
	}, timeout)
}

// NewEmbeddedClient extracts with the embedded-player client identity.
func NewEmbeddedClient(timeout time.Duration) Strategy {
	return newClientStrategy("embedded-client", func() {
		youtube.DefaultClient = youtube.EmbeddedClient
	}, timeout)
}

func newClientStrategy(name string, install func(), timeout time.Duration) *clientStrategy {
	return &clientStrategy{
		name:    name,
		install: install,
		client: &youtube.Client{
			HTTPClient: &http.Client{Timeout: timeout},
		},
	}
}

func (s *clientStrategy) Name() string { return s.name }

func (s *clientStrategy) Open(ctx context.Context, url string) (Handle, error) {
	restore := s.swapIdentity()
	defer restore()

	video, err := s.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	return &clientHandle{strategy: s, video: video}, nil
}

// swapIdentity locks the library's identity global and installs this
// strategy's identity. The lock is held until restore: jobs run
// concurrently and the global is process-wide.
func (s *clientStrategy) swapIdentity() (restore func()) {
	release := innertube.Acquire()
	saved := youtube.DefaultClient
	s.install()
	return func() {
		youtube.DefaultClient = saved
		release()
	}
}

type clientHandle struct {
	strategy *clientStrategy
	video    *youtube.Video
}

func (h *clientHandle) AudioStreams() ([]StreamInfo, error) {
	var streams []StreamInfo
	for i := range h.video.Formats {
		f := &h.video.Formats[i]
		if f.AudioChannels == 0 {
			continue
		}
		streams = append(streams, StreamInfo{
			ID:        strconv.Itoa(f.ItagNo),
			MimeType:  f.MimeType,
			Ext:       mimeToExt(f.MimeType),
			Bitrate:   formatBitrate(f),
			AudioOnly: f.Width == 0 && f.Height == 0,
		})
	}
	return streams, nil
}

func (h *clientHandle) Download(ctx context.Context, stream StreamInfo, path string) error {
	format := h.findFormat(stream.ID)
	if format == nil {
		return fmt.Errorf("%s: stream %s no longer listed", h.strategy.name, stream.ID)
	}

	restore := h.strategy.swapIdentity()
	defer restore()

	reader, _, err := h.strategy.client.GetStreamContext(ctx, h.video, format)
	if err != nil {
		return fmt.Errorf("%s: opening stream %s: %w", h.strategy.name, stream.ID, err)
	}
	defer reader.Close()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("%s: downloading stream %s: %w", h.strategy.name, stream.ID, err)
	}
	return nil
}

func (h *clientHandle) findFormat(id string) *youtube.Format {
	for i := range h.video.Formats {
		if strconv.Itoa(h.video.Formats[i].ItagNo) == id {
			return &h.video.Formats[i]
		}
	}
	return nil
}

func formatBitrate(f *youtube.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return f.Bitrate
}

func mimeToExt(mime string) string {
	mime = strings.ToLower(mime)
	switch {
	case strings.HasPrefix(mime, "audio/mp4"):
		return "m4a"
	case strings.HasPrefix(mime, "audio/webm"):
		return "webm"
	case strings.HasPrefix(mime, "video/mp4"):
		return "mp4"
	case strings.HasPrefix(mime, "video/webm"):
		return "webm"
	case strings.HasPrefix(mime, "audio/mpeg"):
		return "mp3"
	}
	return "bin"
}
