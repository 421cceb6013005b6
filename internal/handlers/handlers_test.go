package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahenaor/audiosnip/internal/clip"
	"github.com/ahenaor/audiosnip/internal/extract"
	"github.com/ahenaor/audiosnip/internal/pipeline"
	"github.com/ahenaor/audiosnip/internal/resolve"
	"github.com/ahenaor/audiosnip/internal/runner"
)

type stubResolver struct{}

func (stubResolver) Resolve(context.Context, string) (resolve.Source, error) {
	return resolve.Source{VideoID: "vid123", Title: "Test Video", BaseName: "Test Video"}, nil
}

type stubExtractor struct{}

func (stubExtractor) Fetch(_ context.Context, _ string, dir string, _ func(int)) (*extract.Result, error) {
	path := filepath.Join(dir, "raw_140.webm")
	if err := os.WriteFile(path, []byte("raw"), 0644); err != nil {
		return nil, err
	}
	return &extract.Result{Path: path, Backend: "android-client"}, nil
}

type stubTranscoder struct{}

func (stubTranscoder) Transcode(_ context.Context, _ string, outPath string, _ clip.Range, _ string) error {
	return os.WriteFile(outPath, []byte("encoded"), 0644)
}

func newApp(t *testing.T) (*fiber.App, *runner.Runner) {
	t.Helper()
	pipe := pipeline.New(stubResolver{}, stubExtractor{}, stubTranscoder{}, t.TempDir())
	run := runner.New(pipe, 8)

	app := fiber.New()
	jobs := NewJobHandler(run)
	dl := NewDownloadHandler(run)
	app.Get("/", Form)
	app.Post("/jobs", jobs.Create)
	app.Get("/jobs/:id", jobs.Status)
	app.Get("/jobs/:id/audio", dl.Audio)
	app.Get("/jobs/:id/metadata", dl.Metadata)
	app.Get("/jobs/:id/archive", dl.Archive)
	return app, run
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func parseJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return body
}

func waitForJob(t *testing.T, run *runner.Runner, id string) runner.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := run.Job(id); ok && job.Status != runner.StatusProcessing {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never finished")
	return runner.Job{}
}

func TestForm(t *testing.T) {
	app, _ := newApp(t)
	resp := doJSON(t, app, http.MethodGet, "/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), "job-form") {
		t.Error("form page missing the job form")
	}
}

func TestCreate_Validation(t *testing.T) {
	app, _ := newApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{}`},
		{"not a url", `{"url":"not a url"}`},
		{"bad codec", `{"url":"https://youtu.be/x","codec":"ogg"}`},
		{"speakers below one", `{"url":"https://youtu.be/x","speakers_count":0}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/jobs", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestCreate_AndDownload(t *testing.T) {
	app, run := newApp(t)

	resp := doJSON(t, app, http.MethodPost, "/jobs", `{"url":"https://youtu.be/x","name":"My Clip!!"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := parseJSON(t, resp)
	id, _ := body["job_id"].(string)
	if id == "" {
		t.Fatalf("no job_id in %v", body)
	}

	job := waitForJob(t, run, id)
	if job.Status != runner.StatusCompleted {
		t.Fatalf("job status = %s", job.Status)
	}

	resp = doJSON(t, app, http.MethodGet, "/jobs/"+id+"/audio", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audio status = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "My Clip.mp3") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/jobs/"+id+"/archive", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive status = %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	// zip local file header magic
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Error("archive download is not a zip")
	}
}

func TestStatus_NotFound(t *testing.T) {
	app, _ := newApp(t)
	resp := doJSON(t, app, http.MethodGet, "/jobs/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDownload_RefusedWhileRunningOrFailed(t *testing.T) {
	app, run := newApp(t)

	resp := doJSON(t, app, http.MethodPost, "/jobs", `{"url":"https://youtu.be/x","start":"10:00","end":"05:00"}`)
	body := parseJSON(t, resp)
	id, _ := body["job_id"].(string)

	job := waitForJob(t, run, id)
	if job.Status != runner.StatusFailed {
		t.Fatalf("job status = %s, want failed (invalid range)", job.Status)
	}

	resp = doJSON(t, app, http.MethodGet, "/jobs/"+id+"/audio", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("audio for failed job: status = %d, want 409", resp.StatusCode)
	}

	// metadata stays downloadable for failed jobs; it carries the error
	resp = doJSON(t, app, http.MethodGet, "/jobs/"+id+"/metadata", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metadata for failed job: status = %d, want 200", resp.StatusCode)
	}
}
