package handlers

import (
	"encoding/json"
	"net/http"

	"roadwatch/internal/logger"
	"roadwatch/internal/models"
)

type captureRequest struct {
	Image    string `json:"image"`
	Location string `json:"location"`
}

// CaptureHandler runs the camera pipeline on a single base64-encoded frame.
func CaptureHandler(runner Runner, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req captureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Location == "" {
			req.Location = "Unknown"
		}

		summary, err := runner.RunCameraDetection(models.DefaultUserID, req.Image, req.Location)
		if err != nil {
			writePipelineError(w, logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}
