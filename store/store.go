// Package store persists validation reports to SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/databus-cr/databus-go/validation"
)

// Store manages the SQLite report history database.
type Store struct {
	db *sql.DB
}

// RunSummary is one row of the validation history.
type RunSummary struct {
	ID          int64
	FeedPath    string
	Status      string
	Score       int
	Errors      int
	Warnings    int
	ValidatedAt time.Time
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database, which is useful for testing.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		feed_path TEXT NOT NULL,
		status TEXT NOT NULL,
		score INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		validated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		severity TEXT NOT NULL,
		rule TEXT NOT NULL,
		message TEXT NOT NULL,
		tbl TEXT,
		row_num INTEGER,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_validated_at ON runs(validated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_issues_run_id ON issues(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveReport stores one validation run and its issues, returning the run id.
func (s *Store) SaveReport(feedPath string, r *validation.Report) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO runs (feed_path, status, score, error_count, warning_count, validated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		feedPath, r.Status, r.Score, len(r.Errors), len(r.Warnings), time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO issues (run_id, position, severity, rule, message, tbl, row_num)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	pos := 0
	for _, issue := range r.Errors {
		if _, err := stmt.Exec(runID, pos, string(issue.Severity), issue.Rule, issue.Message, issue.Table, issue.Row); err != nil {
			return 0, fmt.Errorf("save issue: %w", err)
		}
		pos++
	}
	for _, issue := range r.Warnings {
		if _, err := stmt.Exec(runID, pos, string(issue.Severity), issue.Rule, issue.Message, issue.Table, issue.Row); err != nil {
			return 0, fmt.Errorf("save issue: %w", err)
		}
		pos++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns the most recent validation runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, feed_path, status, score, error_count, warning_count, validated_at
		 FROM runs ORDER BY validated_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var ts int64
		if err := rows.Scan(&r.ID, &r.FeedPath, &r.Status, &r.Score, &r.Errors, &r.Warnings, &ts); err != nil {
			return nil, err
		}
		r.ValidatedAt = time.Unix(ts, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetReport reconstructs the full report for one run.
func (s *Store) GetReport(runID int64) (*validation.Report, error) {
	var report validation.Report
	err := s.db.QueryRow(
		`SELECT status, score FROM runs WHERE id = ?`, runID,
	).Scan(&report.Status, &report.Score)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT severity, rule, message, tbl, row_num FROM issues
		 WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report.Errors = []validation.Issue{}
	report.Warnings = []validation.Issue{}
	for rows.Next() {
		var issue validation.Issue
		var severity string
		if err := rows.Scan(&severity, &issue.Rule, &issue.Message, &issue.Table, &issue.Row); err != nil {
			return nil, err
		}
		issue.Severity = validation.Severity(severity)
		if issue.Severity == validation.SeverityError {
			report.Errors = append(report.Errors, issue)
		} else {
			report.Warnings = append(report.Warnings, issue)
		}
	}
	return &report, rows.Err()
}
