package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"roadwatch/internal/detect"
	"roadwatch/internal/models"
	"roadwatch/internal/repository/sqlite"
)

func main() {
	resultsDir := flag.String("results", filepath.Join("static", "results", "detected"), "Directory containing annotated result images")
	dbPath := flag.String("db", filepath.Join("data", "roadwatch.db"), "Database path")
	flag.Parse()

	fmt.Printf("Backfilling detection records from %s into %s\n", *resultsDir, *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	files, err := os.ReadDir(*resultsDir)
	if err != nil {
		log.Fatalf("Failed to read results directory: %v", err)
	}

	var records []models.DetectionRecord
	skipped := 0
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".jpg" {
			continue
		}

		timestamp, frameIndex, err := detect.ParseResultFilename(file.Name())
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		kind := models.TypeImage
		if frameIndex > 0 {
			kind = models.TypeVideo
		}

		// An annotated artifact implies at least one detection; the exact
		// count is not recoverable from the filename.
		records = append(records, models.DetectionRecord{
			UserID:     models.DefaultUserID,
			Type:       string(kind),
			Location:   "Unknown",
			SourcePath: "",
			ResultPath: filepath.Join(*resultsDir, file.Name()),
			TotalCount: 1,
			AlertSent:  false,
			CreatedAt:  timestamp,
		})
	}

	if len(records) == 0 {
		fmt.Println("No result images found to backfill")
		return
	}

	repo := sqlite.NewRecordRepository(db)
	fmt.Printf("Inserting %d detection records...\n", len(records))
	if err := repo.InsertBatch(records); err != nil {
		log.Fatalf("Failed to insert records: %v", err)
	}

	fmt.Printf("✅ Successfully backfilled %d detection records\n", len(records))
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (invalid format)\n", skipped)
	}
}
