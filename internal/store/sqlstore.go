package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and applies the schema.
// Creates the parent directory (e.g. .splatpipe) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schema1); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion1); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v > schemaVersion1:
		return fmt.Errorf("store schema version %d is newer than this build supports (%d)", v, schemaVersion1)
	}
	return nil
}

// Close implements Store.
func (s *SqlStore) Close() error { return s.db.Close() }

// StartRun implements Store.
func (s *SqlStore) StartRun(run *Run) (int64, error) {
	args, err := json.Marshal(run.Args)
	if err != nil {
		return 0, fmt.Errorf("marshal args: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO runs (kind, dataset_path, model_path, args, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Kind, run.DatasetPath, run.ModelPath, string(args), StatusRunning, nowUTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// FinishRun implements Store.
func (s *SqlStore) FinishRun(id int64, status, errText string) error {
	res, err := s.db.Exec(
		"UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?",
		status, errText, nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun implements Store.
func (s *SqlStore) GetRun(id int64) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, kind, dataset_path, model_path, args, status, error, started_at, finished_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	return run, err
}

// RecentRuns implements Store.
func (s *SqlStore) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, kind, dataset_path, model_path, args, status, error, started_at, finished_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		args       string
		errText    sql.NullString
		dataset    sql.NullString
		model      sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	err := sc.Scan(&run.ID, &run.Kind, &dataset, &model, &args, &run.Status, &errText, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	run.DatasetPath = nullStr(dataset)
	run.ModelPath = nullStr(model)
	run.Error = nullStr(errText)
	if err := json.Unmarshal([]byte(args), &run.Args); err != nil {
		return nil, fmt.Errorf("unmarshal run args: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	if finishedAt.Valid {
		if t, err := time.Parse(time.RFC3339, finishedAt.String); err == nil {
			run.FinishedAt = t
		}
	}
	return &run, nil
}
