package sqlite

import (
	"database/sql"
	"fmt"

	"roadwatch/internal/models"
)

// RecordRepository implements repository.RecordRepository for SQLite.
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new SQLite detection record repository.
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Insert appends a new detection record.
func (r *RecordRepository) Insert(rec *models.DetectionRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO detection_records (user_id, detection_type, location, source_path, result_path, total_count, alert_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.UserID, rec.Type, rec.Location, rec.SourcePath, nullableString(rec.ResultPath), rec.TotalCount, rec.AlertSent, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection record: %w", err)
	}

	return result.LastInsertId()
}

// InsertBatch appends multiple records in a single transaction. Used by the
// migrate tool to backfill from a results directory.
func (r *RecordRepository) InsertBatch(records []models.DetectionRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO detection_records (user_id, detection_type, location, source_path, result_path, total_count, alert_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.UserID, rec.Type, rec.Location, rec.SourcePath, nullableString(rec.ResultPath), rec.TotalCount, rec.AlertSent, rec.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert detection record: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a single detection record.
func (r *RecordRepository) GetByID(id int64) (*models.DetectionRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var rec models.DetectionRecord
	var resultPath sql.NullString
	err := r.db.Conn().QueryRow(`
		SELECT id, user_id, detection_type, location, source_path, result_path, total_count, alert_sent, created_at
		FROM detection_records WHERE id = ?
	`, id).Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Location, &rec.SourcePath, &resultPath, &rec.TotalCount, &rec.AlertSent, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query detection record: %w", err)
	}
	rec.ResultPath = resultPath.String

	return &rec, nil
}

// GetAll retrieves detection records matching the filter, newest first.
func (r *RecordRepository) GetAll(filter *models.RecordFilter) ([]models.DetectionRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, user_id, detection_type, location, source_path, result_path, total_count, alert_sent, created_at
		FROM detection_records
		WHERE 1=1
	`
	query, args := applyFilter(query, filter)

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detection records: %w", err)
	}
	defer rows.Close()

	var records []models.DetectionRecord
	for rows.Next() {
		var rec models.DetectionRecord
		var resultPath sql.NullString
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Location, &rec.SourcePath, &resultPath, &rec.TotalCount, &rec.AlertSent, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection record: %w", err)
		}
		rec.ResultPath = resultPath.String
		records = append(records, rec)
	}

	return records, nil
}

// GetTotalCount returns the count of records matching the filter
// (without limit/offset).
func (r *RecordRepository) GetTotalCount(filter *models.RecordFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT COUNT(*) FROM detection_records WHERE 1=1`
	query, args := applyFilter(query, filter)

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count detection records: %w", err)
	}

	return count, nil
}

// applyFilter appends WHERE clauses for the set filter fields.
func applyFilter(query string, filter *models.RecordFilter) (string, []interface{}) {
	args := []interface{}{}

	if filter.Type != "" {
		query += " AND detection_type = ?"
		args = append(args, filter.Type)
	}
	if filter.Location != "" {
		query += " AND location = ?"
		args = append(args, filter.Location)
	}
	if !filter.StartDate.IsZero() {
		query += " AND DATE(created_at) >= DATE(?)"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND DATE(created_at) <= DATE(?)"
		args = append(args, filter.EndDate)
	}

	return query, args
}

// nullableString maps empty strings to NULL (video runs have no single
// result artifact).
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
