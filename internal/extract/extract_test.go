package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeStrategy struct {
	name    string
	openErr error
	streams []StreamInfo
	listErr error
	dlErr   error
	opened  int
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Open(_ context.Context, _ string) (Handle, error) {
	s.opened++
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &fakeHandle{strategy: s}, nil
}

type fakeHandle struct {
	strategy *fakeStrategy
}

func (h *fakeHandle) AudioStreams() ([]StreamInfo, error) {
	return h.strategy.streams, h.strategy.listErr
}

func (h *fakeHandle) Download(_ context.Context, _ StreamInfo, path string) error {
	if h.strategy.dlErr != nil {
		return h.strategy.dlErr
	}
	return os.WriteFile(path, []byte("raw audio"), 0644)
}

func audioOnly(id string, bitrate int) StreamInfo {
	return StreamInfo{ID: id, MimeType: "audio/webm", Ext: "webm", Bitrate: bitrate, AudioOnly: true}
}

func TestSelector_FirstWorkingStrategyWins(t *testing.T) {
	dir := t.TempDir()
	broken := &fakeStrategy{name: "a", openErr: errors.New("blocked")}
	working := &fakeStrategy{name: "b", streams: []StreamInfo{audioOnly("140", 128000)}}
	spare := &fakeStrategy{name: "c", streams: []StreamInfo{audioOnly("140", 128000)}}

	res, err := NewSelector(broken, working, spare).Fetch(context.Background(), "u", dir, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Backend != "b" {
		t.Errorf("Backend = %q, want %q", res.Backend, "b")
	}
	if spare.opened != 0 {
		t.Error("selector kept trying after a strategy succeeded")
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("raw file missing: %v", err)
	}
	if filepath.Dir(res.Path) != dir {
		t.Errorf("raw file %s written outside %s", res.Path, dir)
	}
}

func TestSelector_Exhausted(t *testing.T) {
	first := &fakeStrategy{name: "a", openErr: errors.New("blocked upstream")}
	second := &fakeStrategy{name: "b", openErr: errors.New("last straw")}

	_, err := NewSelector(first, second).Fetch(context.Background(), "u", t.TempDir(), nil)
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("error = %v, want ExhaustedError", err)
	}
	if len(ex.Attempted) != 2 || ex.Attempted[0] != "a" || ex.Attempted[1] != "b" {
		t.Errorf("Attempted = %v", ex.Attempted)
	}
	if ex.Last == nil || !strings.Contains(ex.Last.Error(), "last straw") {
		t.Errorf("Last = %v, want the final strategy's error", ex.Last)
	}
	if !strings.Contains(ex.Error(), "a, b") || !strings.Contains(ex.Error(), "last straw") {
		t.Errorf("Error() = %q", ex.Error())
	}
}

func TestSelector_FallsThroughOnDownloadError(t *testing.T) {
	flaky := &fakeStrategy{
		name:    "a",
		streams: []StreamInfo{audioOnly("140", 128000)},
		dlErr:   errors.New("403 mid-transfer"),
	}
	working := &fakeStrategy{name: "b", streams: []StreamInfo{audioOnly("140", 128000)}}

	res, err := NewSelector(flaky, working).Fetch(context.Background(), "u", t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Backend != "b" {
		t.Errorf("Backend = %q, want %q", res.Backend, "b")
	}
}

func TestSelector_NoAudioStreams(t *testing.T) {
	empty := &fakeStrategy{name: "a"}
	_, err := NewSelector(empty).Fetch(context.Background(), "u", t.TempDir(), nil)
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("error = %v, want ExhaustedError", err)
	}
	if !strings.Contains(ex.Last.Error(), "no audio stream") {
		t.Errorf("Last = %v", ex.Last)
	}
}

func TestSelector_ReportsMidpoint(t *testing.T) {
	working := &fakeStrategy{name: "a", streams: []StreamInfo{audioOnly("140", 128000)}}
	var seen []int
	_, err := NewSelector(working).Fetch(context.Background(), "u", t.TempDir(), func(p int) {
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(seen) != 1 || seen[0] != 50 {
		t.Errorf("progress callbacks = %v, want [50]", seen)
	}
}

func TestBestStream(t *testing.T) {
	muxed := StreamInfo{ID: "18", Bitrate: 96000, AudioOnly: false}
	low := audioOnly("139", 48000)
	high := audioOnly("140", 128000)

	tests := []struct {
		name    string
		streams []StreamInfo
		wantID  string
		wantOK  bool
	}{
		{"highest bitrate audio-only wins", []StreamInfo{low, muxed, high}, "140", true},
		{"order independent", []StreamInfo{high, low}, "140", true},
		{"muxed fallback when no audio-only", []StreamInfo{muxed}, "18", true},
		{"empty", nil, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := bestStream(tc.streams)
			if ok != tc.wantOK || (ok && got.ID != tc.wantID) {
				t.Errorf("bestStream = %+v, %v; want id %q", got, ok, tc.wantID)
			}
		})
	}
}

func TestMimeToExt(t *testing.T) {
	tests := map[string]string{
		"audio/mp4; codecs=\"mp4a.40.2\"": "m4a",
		"audio/webm; codecs=\"opus\"":     "webm",
		"video/mp4":                       "mp4",
		"application/octet-stream":        "bin",
	}
	for mime, want := range tests {
		if got := mimeToExt(mime); got != want {
			t.Errorf("mimeToExt(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestYtDlpHandle_AudioStreams(t *testing.T) {
	h := &ytDlpHandle{probe: ytDlpProbe{
		ID: "abc",
		Formats: []ytDlpFormat{
			{FormatID: "137", Ext: "mp4", ACodec: "none", VCodec: "avc1"},
			{FormatID: "140", Ext: "m4a", ACodec: "mp4a.40.2", VCodec: "none", ABR: 129.5},
			{FormatID: "18", Ext: "mp4", ACodec: "mp4a.40.2", VCodec: "avc1", TBR: 500},
		},
	}}

	streams, err := h.AudioStreams()
	if err != nil {
		t.Fatalf("AudioStreams: %v", err)
	}
	if len(streams) != 2 {
		t.Fatalf("got %d streams, want 2 (video-only excluded): %+v", len(streams), streams)
	}
	if !streams[0].AudioOnly || streams[0].ID != "140" {
		t.Errorf("stream[0] = %+v", streams[0])
	}
	if streams[1].AudioOnly {
		t.Errorf("muxed format flagged audio-only: %+v", streams[1])
	}

	best, ok := bestStream(streams)
	if !ok || best.ID != "140" {
		t.Errorf("bestStream = %+v, %v", best, ok)
	}
}
