package models

import "time"

// DefaultUserID is the owner recorded when the web layer provides no
// authenticated user (the password gate has a single operator account).
const DefaultUserID int64 = 1

// DetectionRecord is the durable row appended once per completed run.
// Records are never updated or deleted by the pipeline.
type DetectionRecord struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"detection_type"`
	Location   string    `json:"location"`
	SourcePath string    `json:"source_path"`
	ResultPath string    `json:"result_path,omitempty"` // empty for video runs
	TotalCount int       `json:"total_count"`
	AlertSent  bool      `json:"alert_sent"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordFilter contains filtering options for querying detection records.
type RecordFilter struct {
	Type      string
	Location  string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}
