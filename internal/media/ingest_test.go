package media

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roadwatch/internal/config"
	"roadwatch/internal/logger"
	"roadwatch/internal/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "ingest_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	log := logger.NewLogger(&config.Config{LogDirectory: filepath.Join(tempDir, "logs")})
	return NewStore(filepath.Join(tempDir, "uploads"), log), tempDir
}

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		expected models.DetectionType
	}{
		{"road.jpg", models.TypeImage},
		{"road.JPEG", models.TypeImage},
		{"road.png", models.TypeImage},
		{"dashcam.mp4", models.TypeVideo},
		{"dashcam.MOV", models.TypeVideo},
		{"survey.mkv", models.TypeVideo},
	}

	for _, tt := range tests {
		kind, err := Classify(tt.filename)
		if err != nil {
			t.Errorf("Classify(%q) failed: %v", tt.filename, err)
			continue
		}
		if kind != tt.expected {
			t.Errorf("Classify(%q) = %s, expected %s", tt.filename, kind, tt.expected)
		}
	}
}

func TestClassify_Unsupported(t *testing.T) {
	for _, filename := range []string{"notes.txt", "archive.zip", "noextension", "road.gif"} {
		if _, err := Classify(filename); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Classify(%q): expected ErrUnsupportedType, got %v", filename, err)
		}
	}
}

func TestSaveUpload_WritesTimestampedFile(t *testing.T) {
	store, _ := newTestStore(t)

	artifact, err := store.SaveUpload("pothole photo.jpg", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}

	if artifact.Kind != models.TypeImage {
		t.Errorf("Expected image kind, got %s", artifact.Kind)
	}
	if !strings.HasSuffix(artifact.Filename, "_pothole_photo.jpg") {
		t.Errorf("Expected sanitized original name suffix, got %s", artifact.Filename)
	}
	// Sortable timestamp prefix: 8 date digits, underscore, 6 time digits.
	if len(artifact.Filename) < len("20060102_150405_") {
		t.Errorf("Expected timestamp prefix, got %s", artifact.Filename)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("Failed to read staged artifact: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Errorf("Staged bytes mismatch: %q", data)
	}
}

func TestSaveUpload_VideoGoesToVideoDirectory(t *testing.T) {
	store, _ := newTestStore(t)

	artifact, err := store.SaveUpload("dashcam.mp4", strings.NewReader("fake video bytes"))
	if err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}

	if artifact.Kind != models.TypeVideo {
		t.Errorf("Expected video kind, got %s", artifact.Kind)
	}
	if filepath.Base(filepath.Dir(artifact.Path)) != "videos" {
		t.Errorf("Expected videos directory, got %s", artifact.Path)
	}
}

func TestSaveUpload_EmptyInput(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.SaveUpload("", strings.NewReader("data")); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload for missing filename, got %v", err)
	}
	if _, err := store.SaveUpload("road.jpg", strings.NewReader("")); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload for empty body, got %v", err)
	}
}

func TestSaveCapture(t *testing.T) {
	store, _ := newTestStore(t)
	payload := base64.StdEncoding.EncodeToString([]byte("fake jpeg bytes"))

	artifact, err := store.SaveCapture(payload)
	if err != nil {
		t.Fatalf("SaveCapture failed: %v", err)
	}

	if artifact.Kind != models.TypeCamera {
		t.Errorf("Expected camera kind, got %s", artifact.Kind)
	}
	if !strings.HasSuffix(artifact.Filename, "_capture.jpg") {
		t.Errorf("Expected synthetic capture name, got %s", artifact.Filename)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("Failed to read staged capture: %v", err)
	}
	if string(data) != "fake jpeg bytes" {
		t.Errorf("Decoded bytes mismatch: %q", data)
	}
}

func TestSaveCapture_DataURIPrefix(t *testing.T) {
	store, _ := newTestStore(t)
	payload := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("frame"))

	artifact, err := store.SaveCapture(payload)
	if err != nil {
		t.Fatalf("SaveCapture failed: %v", err)
	}

	data, _ := os.ReadFile(artifact.Path)
	if string(data) != "frame" {
		t.Errorf("Expected data-URI prefix stripped, got %q", data)
	}
}

func TestSaveCapture_InvalidPayload(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.SaveCapture(""); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload for empty capture, got %v", err)
	}
	if _, err := store.SaveCapture("%%% not base64 %%%"); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload for bad base64, got %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"road.jpg", "road.jpg"},
		{"../secret.jpg", "secret.jpg"},
		{"/etc/passwd.png", "passwd.png"},
		{"C:\\Users\\cam\\shot.jpg", "shot.jpg"},
		{"my photo.jpg", "my_photo.jpg"},
	}

	for _, tt := range tests {
		if got := sanitizeName(tt.input); got != tt.expected {
			t.Errorf("sanitizeName(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
