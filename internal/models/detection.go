package models

import "time"

// DetectionType identifies which kind of input produced a pipeline run.
type DetectionType string

const (
	TypeImage  DetectionType = "image"
	TypeVideo  DetectionType = "video"
	TypeCamera DetectionType = "camera"
)

// BoundingBox is a single detection produced by the model for one frame.
type BoundingBox struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// PositiveFrame describes one frame that had at least one detection and
// was successfully annotated.
type PositiveFrame struct {
	FrameIndex int    `json:"frame_index"`
	BoxCount   int    `json:"box_count"`
	ResultPath string `json:"result_path"`
}

// DetectionSummary is the aggregate outcome of one pipeline run. It is
// built once per run, handed to persistence and alerting, then discarded.
type DetectionSummary struct {
	RunID      string          `json:"run_id"`
	Type       DetectionType   `json:"type"`
	Location   string          `json:"location"`
	SourcePath string          `json:"source_path"`
	TotalCount int             `json:"total_count"`
	Positives  []PositiveFrame `json:"positives"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ResultPath returns the annotated artifact path for single-frame runs,
// or empty for video runs (which may have many).
func (s *DetectionSummary) ResultPath() string {
	if s.Type == TypeVideo {
		return ""
	}
	if len(s.Positives) == 0 {
		return ""
	}
	return s.Positives[0].ResultPath
}
