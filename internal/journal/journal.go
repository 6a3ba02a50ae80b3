// Package journal persists refresh cycle outcomes in SQLite, so operators
// can see what the exporter has been doing across restarts.
package journal

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"
)

// Cycle statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Journal handles SQLite cycle storage.
type Journal struct {
	db *sql.DB
}

// CycleRecord represents one refresh cycle.
type CycleRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Error      string
	RowCounts  map[string]int
	Duration   time.Duration
}

// Open creates a new journal at path, creating the file and its directory
// as needed.
func Open(path string) (*Journal, error) {
	// Expand ~ in path
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return j, nil
}

// migrate creates the necessary tables
func (j *Journal) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS refresh_cycles (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			row_counts TEXT,
			duration_ms INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cycles_started ON refresh_cycles(started_at);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record saves a finished cycle.
func (j *Journal) Record(rec *CycleRecord) error {
	countsJSON, _ := sonic.Marshal(rec.RowCounts)

	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO refresh_cycles (id, started_at, finished_at, status, error, row_counts, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.StartedAt.UTC(), rec.FinishedAt.UTC(), rec.Status, rec.Error, string(countsJSON), rec.Duration.Milliseconds())

	return err
}

// Recent retrieves the most recent cycles, newest first.
func (j *Journal) Recent(limit int) ([]*CycleRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, started_at, finished_at, status, error, row_counts, duration_ms
		FROM refresh_cycles
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var countsJSON string
		var durationMS int64

		err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.FinishedAt, &rec.Status, &rec.Error, &countsJSON, &durationMS)
		if err != nil {
			return nil, err
		}

		sonic.Unmarshal([]byte(countsJSON), &rec.RowCounts)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Prune deletes cycles that started more than retention ago and reports
// how many were removed.
func (j *Journal) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC()

	res, err := j.db.Exec(`DELETE FROM refresh_cycles WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
