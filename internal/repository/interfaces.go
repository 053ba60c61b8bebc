package repository

import (
	"roadwatch/internal/models"
)

// RecordRepository defines the interface for detection record operations.
// The pipeline only appends; reads serve the web layer and the migrate tool.
type RecordRepository interface {
	// Create operations
	Insert(rec *models.DetectionRecord) (int64, error)
	InsertBatch(records []models.DetectionRecord) error

	// Read operations
	GetByID(id int64) (*models.DetectionRecord, error)
	GetAll(filter *models.RecordFilter) ([]models.DetectionRecord, error)
	GetTotalCount(filter *models.RecordFilter) (int, error)
}
