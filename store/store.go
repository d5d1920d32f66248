// Package store persists batch jobs and per-hotel results in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/use-agent/revscan/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL DEFAULT 'pending',
	total_hotels INTEGER NOT NULL,
	scanned_count INTEGER NOT NULL DEFAULT 0,
	duetto_pixel_count INTEGER NOT NULL DEFAULT 0,
	gamechanger_count INTEGER NOT NULL DEFAULT 0,
	competitor_rms_count INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	error_message TEXT
);

CREATE TABLE IF NOT EXISTS job_hotels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL REFERENCES jobs(id),
	hotel_index INTEGER NOT NULL,
	hotel_name TEXT NOT NULL,
	hotel_website TEXT NOT NULL,
	hotel_city TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	result_json TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_job_hotels_job_id ON job_hotels(job_id);
`

// Store wraps the SQLite connection. database/sql serializes access, so a
// single Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (and creates, if needed) the job database at path. ":memory:"
// gives an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// SQLite handles one writer at a time; a larger pool just trades
	// lock errors for waiting.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreateJob inserts a new pending job and its hotel rows.
func (s *Store) CreateJob(jobID string, hotels []models.Hotel) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := now()
	if _, err := tx.Exec(
		`INSERT INTO jobs (id, status, total_hotels, created_at, updated_at) VALUES (?, 'pending', ?, ?, ?)`,
		jobID, len(hotels), ts, ts,
	); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	for i, h := range hotels {
		if _, err := tx.Exec(
			`INSERT INTO job_hotels (job_id, hotel_index, hotel_name, hotel_website, hotel_city, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 'pending', ?, ?)`,
			jobID, i, h.Name, h.Website, h.City, ts, ts,
		); err != nil {
			return fmt.Errorf("insert job hotel: %w", err)
		}
	}
	return tx.Commit()
}

// GetJob fetches one job, or nil when it does not exist.
func (s *Store) GetJob(jobID string) (*models.Job, error) {
	row := s.db.QueryRow(
		`SELECT id, status, total_hotels, scanned_count, duetto_pixel_count,
		        gamechanger_count, competitor_rms_count, created_at, updated_at,
		        COALESCE(error_message, '')
		 FROM jobs WHERE id = ?`, jobID)

	var j models.Job
	err := row.Scan(&j.ID, &j.Status, &j.TotalHotels, &j.ScannedCount,
		&j.PixelCount, &j.GameChangerCount, &j.CompetitorRMSCount,
		&j.CreatedAt, &j.UpdatedAt, &j.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetJobHotels fetches all hotel rows for a job, ordered by index.
func (s *Store) GetJobHotels(jobID string) ([]models.JobHotel, error) {
	rows, err := s.db.Query(
		`SELECT job_id, hotel_index, hotel_name, hotel_website, hotel_city,
		        status, COALESCE(result_json, '')
		 FROM job_hotels WHERE job_id = ? ORDER BY hotel_index`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hotels []models.JobHotel
	for rows.Next() {
		var h models.JobHotel
		if err := rows.Scan(&h.JobID, &h.HotelIndex, &h.HotelName,
			&h.Website, &h.City, &h.Status, &h.ResultJSON); err != nil {
			return nil, err
		}
		hotels = append(hotels, h)
	}
	return hotels, rows.Err()
}

// UpdateHotelStatus sets one hotel row's status.
func (s *Store) UpdateHotelStatus(jobID string, hotelIndex int, status string) error {
	_, err := s.db.Exec(
		`UPDATE job_hotels SET status = ?, updated_at = ? WHERE job_id = ? AND hotel_index = ?`,
		status, now(), jobID, hotelIndex)
	return err
}

// SaveHotelResult stores a completed hotel's result and bumps the job
// counters.
func (s *Store) SaveHotelResult(jobID string, hotelIndex int, resultJSON string, pixel, gamechanger, competitor bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := now()
	if _, err := tx.Exec(
		`UPDATE job_hotels SET status = 'done', result_json = ?, updated_at = ? WHERE job_id = ? AND hotel_index = ?`,
		resultJSON, ts, jobID, hotelIndex,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`UPDATE jobs SET
			scanned_count = scanned_count + 1,
			duetto_pixel_count = duetto_pixel_count + ?,
			gamechanger_count = gamechanger_count + ?,
			competitor_rms_count = competitor_rms_count + ?,
			updated_at = ?
		 WHERE id = ?`,
		boolToInt(pixel), boolToInt(gamechanger), boolToInt(competitor), ts, jobID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveHotelError marks a hotel as errored, keeping whatever partial result
// JSON the scan produced.
func (s *Store) SaveHotelError(jobID string, hotelIndex int, errorJSON string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := now()
	if _, err := tx.Exec(
		`UPDATE job_hotels SET status = 'error', result_json = ?, updated_at = ? WHERE job_id = ? AND hotel_index = ?`,
		errorJSON, ts, jobID, hotelIndex,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`UPDATE jobs SET scanned_count = scanned_count + 1, updated_at = ? WHERE id = ?`,
		ts, jobID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) MarkJobRunning(jobID string) error {
	_, err := s.db.Exec(`UPDATE jobs SET status = 'running', updated_at = ? WHERE id = ?`, now(), jobID)
	return err
}

func (s *Store) MarkJobDone(jobID string) error {
	_, err := s.db.Exec(`UPDATE jobs SET status = 'done', updated_at = ? WHERE id = ?`, now(), jobID)
	return err
}

func (s *Store) MarkJobFailed(jobID, errMsg string) error {
	_, err := s.db.Exec(`UPDATE jobs SET status = 'failed', error_message = ?, updated_at = ? WHERE id = ?`,
		errMsg, now(), jobID)
	return err
}

// ListJobs returns jobs most recent first.
func (s *Store) ListJobs(limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, status, total_hotels, scanned_count, duetto_pixel_count,
		        gamechanger_count, competitor_rms_count, created_at, updated_at,
		        COALESCE(error_message, '')
		 FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.Status, &j.TotalHotels, &j.ScannedCount,
			&j.PixelCount, &j.GameChangerCount, &j.CompetitorRMSCount,
			&j.CreatedAt, &j.UpdatedAt, &j.ErrorMessage); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// GetJobResults returns the raw result JSON for every hotel in a job that
// has one, ordered by index.
func (s *Store) GetJobResults(jobID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT result_json FROM job_hotels WHERE job_id = ? AND result_json IS NOT NULL ORDER BY hotel_index`,
		jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RecoverOrphanedJobs fails any job left running by a previous process.
// Called once at startup.
func (s *Store) RecoverOrphanedJobs() error {
	_, err := s.db.Exec(
		`UPDATE jobs SET status = 'failed', error_message = 'Interrupted by server restart', updated_at = ? WHERE status = 'running'`,
		now())
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
