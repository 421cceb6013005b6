package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ahenaor/audiosnip/internal/archive"
	"github.com/ahenaor/audiosnip/internal/runner"
)

// DownloadHandler serves a finished job's artifacts: the raw audio, the
// metadata record, and a zip of both. Audio and zip are refused for
// failed jobs so the user never downloads an empty file.
type DownloadHandler struct {
	runner *runner.Runner
}

func NewDownloadHandler(r *runner.Runner) *DownloadHandler {
	return &DownloadHandler{runner: r}
}

func (h *DownloadHandler) Audio(c *fiber.Ctx) error {
	job, ok := h.finished(c)
	if !ok {
		return nil
	}
	if !job.Result.Metadata.Success {
		return jobFailed(c)
	}
	c.Attachment(job.Result.Metadata.AudioFilename)
	c.Set(fiber.HeaderContentType, audioMIME(job.Result.Metadata.AudioFilename))
	return c.Send(job.Result.Audio)
}

func (h *DownloadHandler) Metadata(c *fiber.Ctx) error {
	job, ok := h.finished(c)
	if !ok {
		return nil
	}
	c.Attachment(job.Result.Metadata.JSONFilename)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(job.Result.MetadataJSON)
}

func (h *DownloadHandler) Archive(c *fiber.Ctx) error {
	job, ok := h.finished(c)
	if !ok {
		return nil
	}
	meta := job.Result.Metadata
	if !meta.Success {
		return jobFailed(c)
	}

	data, err := archive.Bundle(meta.AudioFilename, job.Result.Audio, meta.JSONFilename, job.Result.MetadataJSON)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build archive",
			"code":  "ERR_ARCHIVE",
		})
	}

	base := strings.TrimSuffix(meta.AudioFilename, "."+fileExt(meta.AudioFilename))
	c.Attachment(base + ".zip")
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.Send(data)
}

// finished loads the job and writes the error response itself when the
// job is missing or still running.
func (h *DownloadHandler) finished(c *fiber.Ctx) (runner.Job, bool) {
	job, ok := h.runner.Job(c.Params("id"))
	if !ok {
		_ = jobNotFound(c)
		return runner.Job{}, false
	}
	if job.Result == nil {
		_ = c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Job still processing",
			"code":  "ERR_JOB_RUNNING",
		})
		return runner.Job{}, false
	}
	return job, true
}

func jobFailed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"error": "Job failed; no artifact to download",
		"code":  "ERR_JOB_FAILED",
	})
}

func fileExt(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

func audioMIME(name string) string {
	switch fileExt(name) {
	case "mp3":
		return "audio/mpeg"
	case "m4a":
		return "audio/mp4"
	case "opus":
		return "audio/opus"
	case "flac":
		return "audio/flac"
	case "wav":
		return "audio/wav"
	}
	return "application/octet-stream"
}
