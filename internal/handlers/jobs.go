// Package handlers is the HTTP surface: the job form, job submission,
// the progress WebSocket and the artifact downloads. It knows nothing
// about how jobs run beyond the runner's narrow interface.
package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ahenaor/audiosnip/internal/pipeline"
	"github.com/ahenaor/audiosnip/internal/runner"
)

// JobHandler accepts job submissions and reports job state.
type JobHandler struct {
	runner   *runner.Runner
	validate *validator.Validate
}

func NewJobHandler(r *runner.Runner) *JobHandler {
	return &JobHandler{
		runner:   r,
		validate: validator.New(),
	}
}

// jobRequest is the submission payload, from the HTML form or JSON.
type jobRequest struct {
	URL           string `form:"url" json:"url" validate:"required,url"`
	Name          string `form:"name" json:"name"`
	Start         string `form:"start" json:"start"`
	End           string `form:"end" json:"end"`
	Codec         string `form:"codec" json:"codec" validate:"omitempty,oneof=mp3 m4a opus flac wav"`
	SpeakersCount *int   `form:"speakers_count" json:"speakers_count" validate:"omitempty,gte=1"`
	Language      string `form:"language" json:"language"`
	LanguageCode  string `form:"language_code" json:"language_code"`
}

// Create launches a job and returns its id; progress streams over the
// WebSocket and the result is fetched from the job endpoints.
func (h *JobHandler) Create(c *fiber.Ctx) error {
	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ERR_VALIDATION",
		})
	}
	if req.Codec == "" {
		req.Codec = "mp3"
	}

	id := h.runner.Launch(pipeline.Request{
		URL:           req.URL,
		CustomName:    req.Name,
		Start:         req.Start,
		End:           req.End,
		Codec:         req.Codec,
		SpeakersCount: req.SpeakersCount,
		Language:      optional(req.Language),
		LanguageCode:  optional(req.LanguageCode),
	})

	return c.JSON(fiber.Map{
		"job_id": id,
		"status": "processing",
	})
}

// Status reports job state, including the run-record once finished.
func (h *JobHandler) Status(c *fiber.Ctx) error {
	job, ok := h.runner.Job(c.Params("id"))
	if !ok {
		return jobNotFound(c)
	}

	resp := fiber.Map{
		"job_id": job.ID,
		"status": job.Status,
	}
	if job.Result != nil {
		resp["metadata"] = job.Result.Metadata
	}
	return c.JSON(resp)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jobNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Job not found",
		"code":  "ERR_JOB_NOT_FOUND",
	})
}
