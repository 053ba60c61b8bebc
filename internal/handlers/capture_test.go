package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roadwatch/internal/pipeline"
)

func TestCaptureHandler_RunsCameraPipeline(t *testing.T) {
	runner, _, log := newHandlerFixture(t)
	handler := CaptureHandler(runner, log)

	body := `{"image": "ZnJhbWU=", "location": "Bridge 12"}`
	req := httptest.NewRequest(http.MethodPost, "/api/capture", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if runner.cameraCalls != 1 {
		t.Errorf("Expected 1 camera run, got %d", runner.cameraCalls)
	}
	if runner.lastPayload != "ZnJhbWU=" {
		t.Errorf("Expected payload forwarded, got %q", runner.lastPayload)
	}
	if runner.location != "Bridge 12" {
		t.Errorf("Expected location Bridge 12, got %s", runner.location)
	}
}

func TestCaptureHandler_InvalidJSON(t *testing.T) {
	runner, _, log := newHandlerFixture(t)
	handler := CaptureHandler(runner, log)

	req := httptest.NewRequest(http.MethodPost, "/api/capture", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if runner.cameraCalls != 0 {
		t.Error("Expected no camera run for invalid JSON")
	}
}

func TestCaptureHandler_UserErrorSurfacedVerbatim(t *testing.T) {
	runner, _, log := newHandlerFixture(t)
	runner.err = &pipeline.Error{Kind: pipeline.KindInvalidInput, Message: "empty or invalid payload"}
	handler := CaptureHandler(runner, log)

	req := httptest.NewRequest(http.MethodPost, "/api/capture", strings.NewReader(`{"image": ""}`))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid payload") {
		t.Errorf("Expected user-correctable detail surfaced, got %q", rec.Body.String())
	}
}
