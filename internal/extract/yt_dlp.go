package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// ytDlpStrategy shells out to yt-dlp, the fallback of last resort when
// every native client identity is blocked.
type ytDlpStrategy struct {
	bin string
}

// NewYtDlp builds the subprocess strategy. bin defaults to "yt-dlp" on
// PATH when empty.
func NewYtDlp(bin string) Strategy {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &ytDlpStrategy{bin: bin}
}

func (s *ytDlpStrategy) Name() string { return "yt-dlp" }

func (s *ytDlpStrategy) Open(ctx context.Context, url string) (Handle, error) {
	cmd := exec.CommandContext(ctx, s.bin, "-J", "--no-warnings", "--no-playlist", url)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata dump: %w%s", err, exitDetail(err))
	}

	var probe ytDlpProbe
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("yt-dlp metadata dump: parsing output: %w", err)
	}
	if probe.ID == "" {
		return nil, fmt.Errorf("yt-dlp metadata dump: no video in output")
	}
	return &ytDlpHandle{strategy: s, url: url, probe: probe}, nil
}

type ytDlpProbe struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Formats []ytDlpFormat `json:"formats"`
}

type ytDlpFormat struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	ACodec   string  `json:"acodec"`
	VCodec   string  `json:"vcodec"`
	ABR      float64 `json:"abr"`
	TBR      float64 `json:"tbr"`
}

type ytDlpHandle struct {
	strategy *ytDlpStrategy
	url      string
	probe    ytDlpProbe
}

func (h *ytDlpHandle) AudioStreams() ([]StreamInfo, error) {
	var streams []StreamInfo
	for _, f := range h.probe.Formats {
		if f.ACodec == "" || f.ACodec == "none" {
			continue
		}
		bitrate := int(f.ABR * 1000)
		if bitrate == 0 {
			bitrate = int(f.TBR * 1000)
		}
		ext := f.Ext
		if ext == "" {
			ext = "bin"
		}
		streams = append(streams, StreamInfo{
			ID:        f.FormatID,
			MimeType:  "audio/" + ext,
			Ext:       ext,
			Bitrate:   bitrate,
			AudioOnly: f.VCodec == "" || f.VCodec == "none",
		})
	}
	return streams, nil
}

func (h *ytDlpHandle) Download(ctx context.Context, stream StreamInfo, path string) error {
	cmd := exec.CommandContext(ctx, h.strategy.bin,
		"-f", stream.ID,
		"-o", path,
		"--no-part",
		"--no-playlist",
		h.url,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp download failed: %w\noutput: %s", err, string(out))
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("yt-dlp reported success but %s is missing", path)
	}
	return nil
}

// exitDetail pulls stderr out of an ExitError for diagnostics.
func exitDetail(err error) string {
	if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
		return "\nstderr: " + string(exitErr.Stderr)
	}
	return ""
}
