package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roadwatch/internal/config"
	"roadwatch/internal/logger"
	"roadwatch/internal/media"
	"roadwatch/internal/models"
	"roadwatch/internal/pipeline"
)

// fakeRunner records which pipeline entry point was hit and with what.
type fakeRunner struct {
	imageCalls  int
	videoCalls  int
	cameraCalls int
	lastPath    string
	lastPayload string
	location    string
	summary     *models.DetectionSummary
	err         error
}

func (r *fakeRunner) RunImageDetection(userID int64, artifactPath, location string) (*models.DetectionSummary, error) {
	r.imageCalls++
	r.lastPath = artifactPath
	r.location = location
	return r.summary, r.err
}

func (r *fakeRunner) RunVideoDetection(userID int64, artifactPath, location string) (*models.DetectionSummary, error) {
	r.videoCalls++
	r.lastPath = artifactPath
	r.location = location
	return r.summary, r.err
}

func (r *fakeRunner) RunCameraDetection(userID int64, encoded, location string) (*models.DetectionSummary, error) {
	r.cameraCalls++
	r.lastPayload = encoded
	r.location = location
	return r.summary, r.err
}

func newHandlerFixture(t *testing.T) (*fakeRunner, *media.Store, *logger.Logger) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "handler_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	log := logger.NewLogger(&config.Config{LogDirectory: filepath.Join(tempDir, "logs")})
	store := media.NewStore(filepath.Join(tempDir, "uploads"), log)
	runner := &fakeRunner{
		summary: &models.DetectionSummary{RunID: "run-1", Type: models.TypeImage, TotalCount: 1},
	}
	return runner, store, log
}

func multipartBody(t *testing.T, filename, location string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write([]byte("fake media bytes"))
	if location != "" {
		writer.WriteField("location", location)
	}
	writer.Close()
	return &body, writer.FormDataContentType()
}

func TestUploadHandler_ImageRoutesToImagePipeline(t *testing.T) {
	runner, store, log := newHandlerFixture(t)
	handler := UploadHandler(runner, store, log)

	body, contentType := multipartBody(t, "road.jpg", "Main St")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if runner.imageCalls != 1 || runner.videoCalls != 0 {
		t.Errorf("Expected image pipeline, got image=%d video=%d", runner.imageCalls, runner.videoCalls)
	}
	if runner.location != "Main St" {
		t.Errorf("Expected location Main St, got %s", runner.location)
	}

	var summary models.DetectionSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if summary.RunID != "run-1" {
		t.Errorf("Expected run-1 in response, got %s", summary.RunID)
	}
}

func TestUploadHandler_VideoRoutesToVideoPipeline(t *testing.T) {
	runner, store, log := newHandlerFixture(t)
	handler := UploadHandler(runner, store, log)

	body, contentType := multipartBody(t, "dashcam.mp4", "")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if runner.videoCalls != 1 || runner.imageCalls != 0 {
		t.Errorf("Expected video pipeline, got image=%d video=%d", runner.imageCalls, runner.videoCalls)
	}
	if runner.location != "Unknown" {
		t.Errorf("Expected default location Unknown, got %s", runner.location)
	}
}

func TestUploadHandler_UnsupportedType(t *testing.T) {
	runner, store, log := newHandlerFixture(t)
	handler := UploadHandler(runner, store, log)

	body, contentType := multipartBody(t, "notes.txt", "")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected 415, got %d", rec.Code)
	}
	if runner.imageCalls+runner.videoCalls != 0 {
		t.Error("Expected no pipeline run for rejected upload")
	}
}

func TestUploadHandler_MissingFile(t *testing.T) {
	runner, store, log := newHandlerFixture(t)
	handler := UploadHandler(runner, store, log)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if runner.imageCalls+runner.videoCalls != 0 {
		t.Error("Expected no pipeline run without a file")
	}
}

func TestUploadHandler_MethodNotAllowed(t *testing.T) {
	runner, store, log := newHandlerFixture(t)
	handler := UploadHandler(runner, store, log)

	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestUploadHandler_InternalFailureHidden(t *testing.T) {
	runner, store, log := newHandlerFixture(t)
	runner.err = &pipeline.Error{Kind: pipeline.KindModelUnavailable, Message: "detection model unavailable"}
	handler := UploadHandler(runner, store, log)

	body, contentType := multipartBody(t, "road.jpg", "")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "model") {
		t.Errorf("Expected internal detail hidden, got %q", rec.Body.String())
	}
}
