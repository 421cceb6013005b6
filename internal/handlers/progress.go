package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/websocket/v2"

	"github.com/ahenaor/audiosnip/internal/runner"
)

// ProgressHandler streams a job's progress events over a WebSocket.
type ProgressHandler struct {
	runner *runner.Runner
}

func NewProgressHandler(r *runner.Runner) *ProgressHandler {
	return &ProgressHandler{runner: r}
}

// progressMessage mirrors the pipeline's event variants on the wire.
type progressMessage struct {
	Status  string `json:"status"`
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
}

// Handle replays history and then forwards live events until the job
// finishes or the client goes away.
func (h *ProgressHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	id := c.Params("id")
	if _, ok := h.runner.Job(id); !ok {
		msg, _ := json.Marshal(progressMessage{Status: "error", Message: "job not found"})
		_ = c.WriteMessage(websocket.TextMessage, msg)
		return
	}

	events, cancel := h.runner.Hub().Subscribe(id)
	defer cancel()

	for ev := range events {
		msg, err := json.Marshal(progressMessage{
			Status:  ev.Kind.String(),
			Percent: ev.Percent,
			Message: ev.Message,
		})
		if err != nil {
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("progress: client for job %s went away: %v", id, err)
			return
		}
	}
}
