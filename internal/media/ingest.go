package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"roadwatch/internal/logger"
	"roadwatch/internal/models"
)

var (
	// ErrEmptyPayload is returned for missing, empty, or undecodable input.
	ErrEmptyPayload = errors.New("empty or invalid media payload")
	// ErrUnsupportedType is returned when the file extension matches no allow-list.
	ErrUnsupportedType = errors.New("unsupported media type")
)

// timestampLayout is the sortable prefix applied to every stored filename.
const timestampLayout = "20060102_150405"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// Artifact is a staged media file on durable storage. Immutable once written.
type Artifact struct {
	Kind     models.DetectionType
	Filename string
	Path     string
}

// Store stages raw input (uploads, camera captures) under per-kind directories.
type Store struct {
	uploadDir string
	logger    *logger.Logger
}

func NewStore(uploadDir string, logger *logger.Logger) *Store {
	return &Store{
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Classify maps a declared filename to image or video by extension.
func Classify(filename string) (models.DetectionType, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case imageExtensions[ext]:
		return models.TypeImage, nil
	case videoExtensions[ext]:
		return models.TypeVideo, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

// SaveUpload classifies and writes an uploaded file, returning the staged
// artifact. The stored name is the original prefixed with a sortable
// timestamp so concurrent uploads of the same file cannot collide.
func (s *Store) SaveUpload(originalName string, src io.Reader) (*Artifact, error) {
	if originalName == "" || src == nil {
		return nil, ErrEmptyPayload
	}

	kind, err := Classify(originalName)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s_%s", time.Now().Format(timestampLayout), sanitizeName(originalName))
	path, err := s.write(kind, filename, src)
	if err != nil {
		return nil, err
	}

	s.logger.Info("📥 Staged %s upload: %s", kind, filename)
	return &Artifact{Kind: kind, Filename: filename, Path: path}, nil
}

// SaveCapture decodes a base64 camera frame (optionally carrying a
// data-URI prefix) and stages it as a synthetic image artifact.
func (s *Store) SaveCapture(encoded string) (*Artifact, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	if encoded == "" {
		return nil, ErrEmptyPayload
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("%w: bad base64 image", ErrEmptyPayload)
	}

	filename := fmt.Sprintf("%s_capture.jpg", time.Now().Format(timestampLayout))
	path, err := s.write(models.TypeCamera, filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	s.logger.Info("📷 Staged camera capture: %s", filename)
	return &Artifact{Kind: models.TypeCamera, Filename: filename, Path: path}, nil
}

// write streams the payload into the per-kind directory. Best-effort
// fail-fast: an empty payload is removed, a partial write is not retried.
func (s *Store) write(kind models.DetectionType, filename string, src io.Reader) (string, error) {
	dir := filepath.Join(s.uploadDir, kindDirectory(kind))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}

	written, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if closeErr != nil {
		return "", fmt.Errorf("failed to close artifact: %w", closeErr)
	}
	if written == 0 {
		os.Remove(path)
		return "", ErrEmptyPayload
	}

	return path, nil
}

// kindDirectory keeps camera captures with images; only the record keeps
// the distinction.
func kindDirectory(kind models.DetectionType) string {
	if kind == models.TypeVideo {
		return "videos"
	}
	return "images"
}

// sanitizeName strips any path components from a client-declared filename.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.ReplaceAll(name, " ", "_")
}
