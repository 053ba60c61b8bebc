package routes

import (
	"net/http"

	"roadwatch/internal/config"
	"roadwatch/internal/handlers"
	"roadwatch/internal/logger"
	"roadwatch/internal/media"
	"roadwatch/internal/middleware"
	"roadwatch/internal/repository"
)

// SetupRoutes registers the detection API endpoints and wraps the mux with
// the authentication middleware.
func SetupRoutes(runner handlers.Runner, store *media.Store, records repository.RecordRepository, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Detection endpoints
	mux.HandleFunc("/api/upload", handlers.UploadHandler(runner, store, logger))
	mux.HandleFunc("/api/capture", handlers.CaptureHandler(runner, logger))
	mux.HandleFunc("/api/camera/live", handlers.LiveCameraHandler(runner, logger))

	// Record endpoints
	mux.HandleFunc("/api/records", handlers.GetRecordsHandler(records, logger))
	mux.HandleFunc("/api/records/view", handlers.ViewResultHandler(cfg))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handlers.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handlers.LogoutHandler)

	return middleware.AuthMiddleware(mux)
}
