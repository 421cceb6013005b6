// Package pipeline orchestrates one audio acquisition job: validate,
// resolve, extract, transcode, finalize. Expected failures never escape;
// they land in the run-record's error field.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahenaor/audiosnip/internal/clip"
	"github.com/ahenaor/audiosnip/internal/extract"
	"github.com/ahenaor/audiosnip/internal/resolve"
	"github.com/ahenaor/audiosnip/internal/sanitize"
	"github.com/ahenaor/audiosnip/internal/transcode"
)

// Request carries one job's inputs. Optional language fields come in
// pairs: both set or both nil.
type Request struct {
	URL           string
	CustomName    string
	Start         string
	End           string
	Codec         string
	SpeakersCount *int
	Language      *string
	LanguageCode  *string
}

// Resolver, Extractor and Transcoder are the pipeline's collaborators;
// the real implementations live in resolve, extract and transcode.
type Resolver interface {
	Resolve(ctx context.Context, url string) (resolve.Source, error)
}

type Extractor interface {
	Fetch(ctx context.Context, url, dir string, onProgress func(percent int)) (*extract.Result, error)
}

type Transcoder interface {
	Transcode(ctx context.Context, rawPath, outPath string, r clip.Range, codec string) error
}

// Pipeline sequences one job at a time. It holds no per-job state, so a
// single Pipeline may serve concurrent callers.
type Pipeline struct {
	resolver   Resolver
	extractor  Extractor
	transcoder Transcoder
	tempRoot   string
	now        func() time.Time
}

func New(resolver Resolver, extractor Extractor, transcoder Transcoder, tempRoot string) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		extractor:  extractor,
		transcoder: transcoder,
		tempRoot:   tempRoot,
		now:        time.Now,
	}
}

// Run executes the job and always returns a complete Result for the
// documented failure modes. The returned error is non-nil only for
// failures outside the input contract, such as an unencodable record.
func (p *Pipeline) Run(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	obs := &observer{fn: onProgress}
	ts := p.now().Format("20060102150405")

	meta := RunMetadata{
		URL:                req.URL,
		ExecutionTS:        ts,
		VideoID:            resolve.UnknownID,
		OriginalVideoTitle: "Unknown",
		UsedCustomFilename: strings.TrimSpace(req.CustomName) != "",
		StartInput:         req.Start,
		EndInput:           req.End,
		SpeakersCount:      req.SpeakersCount,
		Language:           req.Language,
		LanguageCode:       req.LanguageCode,
		Backend:            "none",
	}

	var audio []byte
	fail := func(err error) (*Result, error) {
		msg := err.Error()
		meta.Error = &msg
		meta.Success = false
		obs.failed(msg)
		return finalize(meta, audio)
	}

	// Validating
	codec := req.Codec
	if codec == "" {
		codec = "mp3"
	}
	ext, codecOK := transcode.Ext(codec)
	if !codecOK {
		ext = codec
	}
	base := "audio_" + ts
	setNames(&meta, base, ext)

	if strings.TrimSpace(req.URL) == "" {
		return fail(validationErrorf("url must not be empty"))
	}
	if !codecOK {
		return fail(validationErrorf("unsupported codec %q (supported: %s)",
			codec, strings.Join(transcode.Codecs(), ", ")))
	}
	if req.SpeakersCount != nil && *req.SpeakersCount < 1 {
		return fail(validationErrorf("speakers_count must be an integer >= 1"))
	}
	if err := validateLanguage(req.Language, req.LanguageCode); err != nil {
		return fail(err)
	}
	r, err := clip.NewRange(req.Start, req.End)
	if err != nil {
		return fail(&ValidationError{msg: err.Error()})
	}
	meta.UsedTrim = r.Active()
	if meta.UsedCustomFilename {
		base = sanitize.BaseName(req.CustomName)
		if base == "" {
			return fail(validationErrorf("custom name %q is empty after sanitization", req.CustomName))
		}
		setNames(&meta, base, ext)
	}

	dir, err := os.MkdirTemp(p.tempRoot, "audiosnip_")
	if err != nil {
		return fail(fmt.Errorf("creating job workspace: %w", err))
	}
	defer os.RemoveAll(dir)

	// Resolving
	obs.downloading(10)
	src, err := p.resolver.Resolve(ctx, req.URL)
	if err != nil {
		return fail(err)
	}
	meta.VideoID = src.VideoID
	meta.OriginalVideoTitle = src.Title
	if !meta.UsedCustomFilename && src.BaseName != "" {
		base = src.BaseName
		setNames(&meta, base, ext)
	}

	// Extracting
	obs.downloading(30)
	fetched, err := p.extractor.Fetch(ctx, req.URL, dir, obs.downloading)
	if err != nil {
		return fail(err)
	}
	meta.Backend = fetched.Backend
	obs.downloading(80)

	// Transcoding
	outPath := filepath.Join(dir, meta.AudioFilename)
	if err := p.transcoder.Transcode(ctx, fetched.Path, outPath, r, codec); err != nil {
		return fail(err)
	}

	// Finalizing
	audio, err = os.ReadFile(outPath)
	if err != nil {
		return fail(fmt.Errorf("reading encoded output: %w", err))
	}
	meta.Success = true
	obs.downloading(100)
	obs.finished()
	return finalize(meta, audio)
}

func setNames(meta *RunMetadata, base, ext string) {
	meta.AudioFilename = base + "." + ext
	meta.JSONFilename = base + ".json"
}

func validateLanguage(language, code *string) error {
	if (language == nil) != (code == nil) {
		return validationErrorf("language and language_code must be provided together")
	}
	if language == nil {
		return nil
	}
	display, ok := SupportedLanguages[*code]
	if !ok {
		return validationErrorf("unsupported language_code %q", *code)
	}
	if *language != display {
		return validationErrorf("language %q does not match language_code %q (expected %q)",
			*language, *code, display)
	}
	return nil
}

// finalize freezes the record, encodes it, and packages the result. The
// JSON bytes re-encode identically after a parse round-trip.
func finalize(meta RunMetadata, audio []byte) (*Result, error) {
	meta.AudioSizeBytes = len(audio)
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding run metadata: %w", err)
	}
	return &Result{Metadata: meta, Audio: audio, MetadataJSON: encoded}, nil
}
