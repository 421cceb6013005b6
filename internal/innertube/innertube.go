// Package innertube serializes use of the kkdai youtube library. The
// library selects its client identity through the youtube.DefaultClient
// package global, so every call that reads or swaps the identity must
// hold the same lock; jobs run in their own goroutines and would
// otherwise race on it.
package innertube

import "sync"

var mu sync.Mutex

// Acquire takes exclusive use of the library's identity global and
// returns the release func. Hold it across the full library call,
// including any stream reads the call hands back.
func Acquire() (release func()) {
	mu.Lock()
	return mu.Unlock
}
