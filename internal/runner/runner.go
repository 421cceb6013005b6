// Package runner executes pipeline jobs in the background and retains a
// bounded window of recent results for the delivery endpoints.
package runner

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahenaor/audiosnip/internal/pipeline"
)

// Job status values surfaced to the UI.
const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Job tracks one in-flight or finished run.
type Job struct {
	ID        string
	Status    string
	Result    *pipeline.Result
	CreatedAt time.Time
}

// Runner launches jobs and keeps the most recent results in memory.
// Nothing is persisted; restarting the process forgets everything.
type Runner struct {
	pipe     *pipeline.Pipeline
	hub      *Hub
	capacity int

	mu    sync.Mutex
	jobs  map[string]*Job
	order []string
}

func New(pipe *pipeline.Pipeline, capacity int) *Runner {
	if capacity < 1 {
		capacity = 1
	}
	return &Runner{
		pipe:     pipe,
		hub:      NewHub(),
		capacity: capacity,
		jobs:     make(map[string]*Job),
	}
}

// Hub exposes the progress hub for WebSocket subscribers.
func (r *Runner) Hub() *Hub { return r.hub }

// Launch starts the job in the background and returns its id
// immediately; progress streams through the hub under that id.
func (r *Runner) Launch(req pipeline.Request) string {
	id := uuid.New().String()
	r.store(&Job{ID: id, Status: StatusProcessing, CreatedAt: time.Now()})
	log.Printf("runner: job %s launched for %s", id, req.URL)
	go r.run(id, req)
	return id
}

// Job returns a snapshot of the job's current state.
func (r *Runner) Job(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (r *Runner) run(id string, req pipeline.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("runner: PANIC in job %s: %v\n%s", id, rec, string(debug.Stack()))
			r.update(id, StatusFailed, nil)
			r.hub.Publish(id, pipeline.ProgressEvent{
				Kind:    pipeline.ProgressError,
				Message: fmt.Sprintf("internal error: %v", rec),
			})
		}
		r.hub.Finish(id)
	}()

	res, err := r.pipe.Run(context.Background(), req, func(ev pipeline.ProgressEvent) {
		r.hub.Publish(id, ev)
	})
	if err != nil {
		log.Printf("runner: job %s failed outside the pipeline contract: %v", id, err)
		r.update(id, StatusFailed, nil)
		r.hub.Publish(id, pipeline.ProgressEvent{Kind: pipeline.ProgressError, Message: err.Error()})
		return
	}

	status := StatusCompleted
	if !res.Metadata.Success {
		status = StatusFailed
	}
	r.update(id, status, res)
	log.Printf("runner: job %s %s (backend=%s, audio=%dB)",
		id, status, res.Metadata.Backend, res.Metadata.AudioSizeBytes)
}

func (r *Runner) store(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.jobs, oldest)
		r.hub.Forget(oldest)
	}
}

func (r *Runner) update(id, status string, res *pipeline.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		// evicted while running; nothing to update
		return
	}
	job.Status = status
	job.Result = res
}
