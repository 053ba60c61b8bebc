package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"roadwatch/internal/logger"
	"roadwatch/internal/media"
	"roadwatch/internal/models"
)

// UploadHandler stages a multipart upload (field "media") and routes it to
// the image or video pipeline depending on its classified kind.
func UploadHandler(runner Runner, store *media.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		file, header, err := r.FormFile("media")
		if err != nil {
			http.Error(w, "No file selected", http.StatusBadRequest)
			return
		}
		defer file.Close()

		location := r.FormValue("location")
		if location == "" {
			location = "Unknown"
		}

		artifact, err := store.SaveUpload(header.Filename, file)
		if err != nil {
			switch {
			case errors.Is(err, media.ErrUnsupportedType):
				http.Error(w, "Unsupported media type", http.StatusUnsupportedMediaType)
			case errors.Is(err, media.ErrEmptyPayload):
				http.Error(w, "Empty upload", http.StatusBadRequest)
			default:
				logger.Error("Failed to stage upload: %v", err)
				http.Error(w, "Upload failed", http.StatusInternalServerError)
			}
			return
		}

		var summary *models.DetectionSummary
		if artifact.Kind == models.TypeVideo {
			summary, err = runner.RunVideoDetection(models.DefaultUserID, artifact.Path, location)
		} else {
			summary, err = runner.RunImageDetection(models.DefaultUserID, artifact.Path, location)
		}
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
