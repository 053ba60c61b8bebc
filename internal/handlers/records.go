package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"

	"roadwatch/internal/config"
	"roadwatch/internal/logger"
	"roadwatch/internal/models"
	"roadwatch/internal/repository"
)

type RecordsData struct {
	Records     []models.DetectionRecord `json:"records"`
	Length      int                      `json:"length"`
	TotalPages  int                      `json:"totalPages"`
	CurrentPage int                      `json:"currentPage"`
	Limit       int                      `json:"pageSize"`
}

// GetRecordsHandler lists persisted detection records, newest first.
func GetRecordsHandler(repo repository.RecordRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if page <= 0 || err != nil {
			page = 1
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || err != nil {
			limit = 10
		}

		filter := &models.RecordFilter{
			Type:   r.URL.Query().Get("type"),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}

		records, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Failed to query detection records: %v", err)
			http.Error(w, "Unable to read detection records", http.StatusInternalServerError)
			return
		}

		total, err := repo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Failed to count detection records: %v", err)
			http.Error(w, "Unable to read detection records", http.StatusInternalServerError)
			return
		}

		data := RecordsData{
			Records:     records,
			Length:      total,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ViewResultHandler serves one annotated result artifact by filename.
func ViewResultHandler(config *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image := filepath.Base(r.URL.Query().Get("image"))
		if image == "." || image == "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(config.ResultDirectory, "detected", image))
	}
}
