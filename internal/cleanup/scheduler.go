// Package cleanup sweeps orphaned job workspaces. The pipeline removes
// its own temp directory on every exit path; the sweeper only catches
// leftovers from crashed or killed processes.
package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const workspacePrefix = "audiosnip_"

// Scheduler periodically removes stale job workspaces under tempRoot.
type Scheduler struct {
	tempRoot string
	interval time.Duration
	maxAge   time.Duration
	stopChan chan struct{}
}

func NewScheduler(tempRoot string, interval, maxAge time.Duration) *Scheduler {
	return &Scheduler{
		tempRoot: tempRoot,
		interval: interval,
		maxAge:   maxAge,
		stopChan: make(chan struct{}),
	}
}

// Start runs one immediate sweep and then sweeps on every interval tick
// until Stop is called.
func (s *Scheduler) Start() {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("cleanup: scheduler started (interval: %s, max age: %s)", s.interval, s.maxAge)
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("cleanup: scheduler stopped")
}

func (s *Scheduler) sweep() {
	entries, err := os.ReadDir(s.tempRoot)
	if err != nil {
		log.Printf("cleanup: reading %s: %v", s.tempRoot, err)
		return
	}

	now := time.Now()
	var removed int
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			continue
		}
		path := filepath.Join(s.tempRoot, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("cleanup: removing %s: %v", path, err)
			continue
		}
		removed++
		log.Printf("cleanup: removed stale workspace %s (age: %s)", entry.Name(), age.Round(time.Minute))
	}
	if removed > 0 {
		log.Printf("cleanup: sweep complete, %d workspaces removed", removed)
	}
}

// EnsureTempRoot creates the temp root if it does not exist.
func EnsureTempRoot(tempRoot string) error {
	return os.MkdirAll(tempRoot, 0755)
}
