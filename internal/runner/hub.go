package runner

import (
	"sync"

	"github.com/ahenaor/audiosnip/internal/pipeline"
)

// subscriber channels are buffered; a slow reader drops events rather
// than blocking the job.
const subscriberBuffer = 16

// Hub fans progress events out to WebSocket subscribers. Events are
// replayed to late subscribers from a per-job history, and Finish marks
// the stream complete so subscriber channels close.
type Hub struct {
	mu      sync.Mutex
	history map[string][]pipeline.ProgressEvent
	subs    map[string][]chan pipeline.ProgressEvent
	done    map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		history: make(map[string][]pipeline.ProgressEvent),
		subs:    make(map[string][]chan pipeline.ProgressEvent),
		done:    make(map[string]bool),
	}
}

// Publish records an event and forwards it to active subscribers.
func (h *Hub) Publish(id string, ev pipeline.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done[id] {
		return
	}
	h.history[id] = append(h.history[id], ev)
	for _, ch := range h.subs[id] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Finish closes the job's stream; subscriber channels drain and close.
func (h *Hub) Finish(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done[id] {
		return
	}
	h.done[id] = true
	for _, ch := range h.subs[id] {
		close(ch)
	}
	delete(h.subs, id)
}

// Subscribe returns a channel of the job's events, replaying history
// first. The channel closes once the job finishes. Call cancel to
// detach early.
func (h *Hub) Subscribe(id string) (<-chan pipeline.ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	backlog := h.history[id]
	size := subscriberBuffer
	if len(backlog) > size {
		size = len(backlog)
	}
	ch := make(chan pipeline.ProgressEvent, size)
	for _, ev := range backlog {
		ch <- ev
	}

	if h.done[id] {
		close(ch)
		return ch, func() {}
	}

	h.subs[id] = append(h.subs[id], ch)
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subs[id]
		for i, sub := range subs {
			if sub == ch {
				h.subs[id] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Forget drops an evicted job's replay history. The done tombstone
// stays, so a Subscribe racing eviction gets a closed stream instead of
// a channel that never closes.
func (h *Hub) Forget(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.history, id)
}
