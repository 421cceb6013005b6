// Package extract acquires raw, pre-transcode audio for a source URL.
//
// No single backend integration works everywhere: individual client
// identities get blocked depending on where the process runs, so a
// Selector walks an ordered list of strategies until one delivers.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
)

// StreamInfo describes one downloadable rendition that carries audio.
type StreamInfo struct {
	ID        string
	MimeType  string
	Ext       string
	Bitrate   int
	AudioOnly bool
}

// Handle is an open session against one source under one strategy.
type Handle interface {
	// AudioStreams enumerates every rendition with an audio track.
	AudioStreams() ([]StreamInfo, error)
	// Download fetches the given rendition to path.
	Download(ctx context.Context, stream StreamInfo, path string) error
}

// Strategy is one backend/client-identity configuration.
type Strategy interface {
	Name() string
	Open(ctx context.Context, url string) (Handle, error)
}

// Result reports where the raw media landed and which backend produced it.
type Result struct {
	Path    string
	Backend string
}

// ExhaustedError means every strategy failed. Last holds the most recent
// underlying failure.
type ExhaustedError struct {
	Attempted []string
	Last      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all extraction strategies failed (tried %s): %v",
		strings.Join(e.Attempted, ", "), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Selector tries strategies strictly in order until one succeeds.
type Selector struct {
	strategies []Strategy
}

func NewSelector(strategies ...Strategy) *Selector {
	return &Selector{strategies: strategies}
}

// Fetch downloads the best available audio rendition into dir. onProgress,
// when non-nil, receives a coarse percentage once a stream is chosen.
func (s *Selector) Fetch(ctx context.Context, url, dir string, onProgress func(percent int)) (*Result, error) {
	var attempted []string
	var last error
	for _, strat := range s.strategies {
		attempted = append(attempted, strat.Name())
		path, err := fetchWith(ctx, strat, url, dir, onProgress)
		if err != nil {
			log.Printf("extract: strategy %s failed: %v", strat.Name(), err)
			last = err
			continue
		}
		return &Result{Path: path, Backend: strat.Name()}, nil
	}
	if last == nil {
		last = errors.New("no strategies configured")
	}
	return nil, &ExhaustedError{Attempted: attempted, Last: last}
}

func fetchWith(ctx context.Context, strat Strategy, url, dir string, onProgress func(int)) (string, error) {
	handle, err := strat.Open(ctx, url)
	if err != nil {
		return "", err
	}
	streams, err := handle.AudioStreams()
	if err != nil {
		return "", err
	}
	best, ok := bestStream(streams)
	if !ok {
		return "", errors.New("no audio stream available")
	}
	if onProgress != nil {
		onProgress(50)
	}
	path := filepath.Join(dir, "raw_"+best.ID+"."+best.Ext)
	if err := handle.Download(ctx, best, path); err != nil {
		return "", err
	}
	return path, nil
}

// bestStream prefers audio-only renditions, highest bitrate first. When
// none exist it falls back to any stream carrying audio.
func bestStream(streams []StreamInfo) (StreamInfo, bool) {
	var best StreamInfo
	found := false
	for _, st := range streams {
		if !st.AudioOnly {
			continue
		}
		if !found || st.Bitrate > best.Bitrate {
			best, found = st, true
		}
	}
	if found {
		return best, true
	}
	for _, st := range streams {
		if !found || st.Bitrate > best.Bitrate {
			best, found = st, true
		}
	}
	return best, found
}
