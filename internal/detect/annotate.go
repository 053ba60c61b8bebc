package detect

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"roadwatch/internal/models"
)

// ErrRenderWrite means the annotated frame could not be written to storage.
var ErrRenderWrite = errors.New("failed to write annotated frame")

// Annotator draws detection geometry onto frame copies and persists them
// under <resultDir>/detected.
type Annotator struct {
	resultDir string
}

func NewAnnotator(resultDir string) *Annotator {
	return &Annotator{resultDir: resultDir}
}

// Render draws each box with its label and confidence on a copy of the
// frame and writes it to a path derived from the artifact name and frame
// index. Returns the written path.
func (a *Annotator) Render(frame gocv.Mat, boxes []models.BoundingBox, artifactName string, frameIndex int) (string, error) {
	red := color.RGBA{R: 255, G: 0, B: 0, A: 0}

	annotated := frame.Clone()
	defer annotated.Close()

	for _, box := range boxes {
		rect := image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height)
		if err := gocv.Rectangle(&annotated, rect, red, 2); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRenderWrite, err)
		}

		label := fmt.Sprintf("%s (%.2f)", box.Label, box.Confidence)
		pt := image.Pt(box.X, box.Y-5)
		if err := gocv.PutText(&annotated, label, pt, gocv.FontHersheySimplex, 0.5, red, 1); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRenderWrite, err)
		}
	}

	dir := filepath.Join(a.resultDir, "detected")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderWrite, err)
	}

	path := filepath.Join(dir, ResultFilename(artifactName, frameIndex))
	if ok := gocv.IMWrite(path, annotated); !ok {
		return "", fmt.Errorf("%w: %s", ErrRenderWrite, path)
	}

	return path, nil
}

// ResultFilename derives the deterministic annotated-frame name from the
// staged artifact name (already timestamp-prefixed) and the frame index.
func ResultFilename(artifactName string, frameIndex int) string {
	stem := strings.TrimSuffix(artifactName, filepath.Ext(artifactName))
	return fmt.Sprintf("detected_%s_f%04d.jpg", stem, frameIndex)
}

// ParseResultFilename extracts the run timestamp and frame index back out
// of an annotated-frame name. Used by the migrate tool to backfill records
// from a results directory.
// Format: detected_20060102_150405_<original>_f0007.jpg
func ParseResultFilename(name string) (timestamp time.Time, frameIndex int, err error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if !strings.HasPrefix(stem, "detected_") {
		return time.Time{}, 0, fmt.Errorf("invalid result filename: %s", name)
	}
	stem = strings.TrimPrefix(stem, "detected_")

	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return time.Time{}, 0, fmt.Errorf("invalid result filename: %s", name)
	}

	timestamp, err = time.Parse("20060102_150405", parts[0]+"_"+parts[1])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	last := parts[len(parts)-1]
	if !strings.HasPrefix(last, "f") {
		return time.Time{}, 0, fmt.Errorf("missing frame index: %s", name)
	}
	frameIndex, err = strconv.Atoi(strings.TrimPrefix(last, "f"))
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("failed to parse frame index: %w", err)
	}

	return timestamp, frameIndex, nil
}
