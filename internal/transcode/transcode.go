// Package transcode re-encodes raw media into the target audio codec
// with an external ffmpeg process, optionally trimming to a clip range.
package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ahenaor/audiosnip/internal/clip"
)

type codecSpec struct {
	encoder string
	ext     string
	quality []string
}

// Fixed high-quality settings per codec; -q:a 2 is roughly 190 kbps VBR
// for lame.
var codecs = map[string]codecSpec{
	"mp3":  {encoder: "libmp3lame", ext: "mp3", quality: []string{"-q:a", "2"}},
	"m4a":  {encoder: "aac", ext: "m4a", quality: []string{"-b:a", "192k"}},
	"opus": {encoder: "libopus", ext: "opus", quality: []string{"-b:a", "160k"}},
	"flac": {encoder: "flac", ext: "flac"},
	"wav":  {encoder: "pcm_s16le", ext: "wav"},
}

// Ext returns the file extension for a supported codec.
func Ext(codec string) (string, bool) {
	spec, ok := codecs[codec]
	if !ok {
		return "", false
	}
	return spec.ext, true
}

// Codecs lists the supported target codecs.
func Codecs() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	return names
}

// Error is a hard transcode failure; Output carries the captured
// stdout/stderr of the ffmpeg run for diagnostics.
type Error struct {
	Output string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ffmpeg transcode failed: %v", e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Engine invokes ffmpeg.
type Engine struct {
	bin string
}

// New builds an engine. bin defaults to "ffmpeg" on PATH when empty.
func New(bin string) *Engine {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Engine{bin: bin}
}

// Transcode decodes rawPath and writes outPath in the target codec,
// seeking to r.Start and stopping at r.End when set. A non-zero exit or
// a missing output file is a hard failure; no partial output is
// recovered.
func (e *Engine) Transcode(ctx context.Context, rawPath, outPath string, r clip.Range, codec string) error {
	spec, ok := codecs[codec]
	if !ok {
		return fmt.Errorf("unsupported codec %q", codec)
	}

	cmd := exec.CommandContext(ctx, e.bin, buildArgs(rawPath, outPath, r, spec)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &Error{Output: string(out), Err: err}
	}
	if _, err := os.Stat(outPath); err != nil {
		return &Error{Output: string(out), Err: fmt.Errorf("output file missing after encode: %w", err)}
	}
	return nil
}

// buildArgs places -ss/-to after -i so the trim applies on the output
// side; that also normalizes away partial or oddly-packaged raw
// containers.
func buildArgs(rawPath, outPath string, r clip.Range, spec codecSpec) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", rawPath}
	if r.Start != "" {
		args = append(args, "-ss", r.Start)
	}
	if r.End != "" {
		args = append(args, "-to", r.End)
	}
	args = append(args, "-acodec", spec.encoder)
	args = append(args, spec.quality...)
	args = append(args, "-ac", "2", outPath)
	return args
}
