package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"roadwatch/internal/alert"
	"roadwatch/internal/config"
	"roadwatch/internal/detect"
	"roadwatch/internal/logger"
	"roadwatch/internal/media"
	"roadwatch/internal/pipeline"
	"roadwatch/internal/repository/sqlite"
	"roadwatch/internal/routes"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	records  *sqlite.RecordRepository
	engine   *detect.Engine
	store    *media.Store
	pipeline *pipeline.Pipeline
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	for _, dir := range []string{cfg.UploadDirectory, cfg.ResultDirectory, filepath.Dir(cfg.DatabasePath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	records := sqlite.NewRecordRepository(db)
	engine := detect.NewEngine(cfg, log)
	annotator := detect.NewAnnotator(cfg.ResultDirectory)
	mailer := alert.NewMailer(cfg, log)
	store := media.NewStore(cfg.UploadDirectory, log)

	pl := pipeline.New(engine, annotator, mailer, records, store, log)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		records:  records,
		engine:   engine,
		store:    store,
		pipeline: pl,
	}, nil
}

func (a *App) Run() error {
	router := routes.SetupRoutes(a.pipeline, a.store, a.records, a.config, a.logger)

	fmt.Printf("🛣️  Road Damage Detection Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Uploads: %s\n", a.config.UploadDirectory)
	fmt.Printf("📁 Results: %s\n", a.config.ResultDirectory)
	fmt.Printf("🤖 AI Model: %s\n", a.config.ModelPath)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

// Close releases the model and the database handle.
func (a *App) Close() {
	a.engine.Close()
	a.db.Close()
}
