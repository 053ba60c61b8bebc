package handlers

import (
	"net/http"

	"roadwatch/internal/logger"
	"roadwatch/internal/models"
	"roadwatch/internal/pipeline"
)

// Runner is the pipeline surface the web layer consumes.
type Runner interface {
	RunImageDetection(userID int64, artifactPath, location string) (*models.DetectionSummary, error)
	RunVideoDetection(userID int64, artifactPath, location string) (*models.DetectionSummary, error)
	RunCameraDetection(userID int64, encoded, location string) (*models.DetectionSummary, error)
}

// writePipelineError surfaces user-correctable failures verbatim and hides
// everything else behind a generic message, logging the detail server-side.
func writePipelineError(w http.ResponseWriter, logger *logger.Logger, err error) {
	if pipeline.IsUserError(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.Error("Detection run failed: %v", err)
	http.Error(w, "Detection failed", http.StatusInternalServerError)
}
