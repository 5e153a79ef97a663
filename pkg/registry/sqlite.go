package registry

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const (
	selectScoresSQL = `SELECT metric, value, latency_ms FROM score WHERE repo_id = ?`
	hasScoreSQL     = `SELECT COUNT(*) FROM score WHERE repo_id = ?`
	deleteScoresSQL = `DELETE FROM score WHERE repo_id = ?`
	insertScoreSQL  = `INSERT INTO score (repo_id, metric, value, latency_ms, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (repo_id, metric) DO UPDATE SET
			value = excluded.value,
			latency_ms = excluded.latency_ms,
			updated_at = excluded.updated_at
	`
	clearScoresSQL = `DELETE FROM score`
)

//go:embed sql/*
var ddl embed.FS

// SQLite is a durable registry backed by a single SQLite database file,
// one row per repo and metric.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and ensures the
// schema exists. The schema statements are idempotent so repeated opens of
// the same file are safe.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	b, err := ddl.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read the schema creation file: %w", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema in %s: %w", path, err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) GetScore(repoID string) (Entry, bool) {
	rows, err := s.db.Query(selectScoresSQL, repoID)
	if err != nil {
		slog.Warn("failed to query scores", "repo", repoID, "error", err)
		return nil, false
	}
	defer rows.Close()

	e := make(Entry)
	for rows.Next() {
		var metric, value string
		var latency int64
		if err := rows.Scan(&metric, &value, &latency); err != nil {
			slog.Warn("failed to scan score row", "repo", repoID, "error", err)
			return nil, false
		}

		var v Value
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			// damaged row degrades to a full cache miss for the repo
			slog.Warn("unreadable score value", "repo", repoID, "metric", metric, "error", err)
			return nil, false
		}

		e[metric] = MetricResult{Name: metric, Value: v, LatencyMs: latency}
	}
	if err := rows.Err(); err != nil {
		slog.Warn("failed reading score rows", "repo", repoID, "error", err)
		return nil, false
	}

	if len(e) == 0 {
		return nil, false
	}
	return e, true
}

func (s *SQLite) SaveScore(repoID string, scores Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting score tx: %w", err)
	}

	if _, err := tx.Exec(deleteScoresSQL, repoID); err != nil {
		rollback(tx)
		return fmt.Errorf("error clearing previous scores for %s: %w", repoID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for name, res := range scores {
		b, err := json.Marshal(res.Value)
		if err != nil {
			rollback(tx)
			return fmt.Errorf("error marshaling %s value for %s: %w", name, repoID, err)
		}
		if _, err := tx.Exec(insertScoreSQL, repoID, name, string(b), res.LatencyMs, now); err != nil {
			rollback(tx)
			return fmt.Errorf("error saving %s score for %s: %w", name, repoID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing score tx: %w", err)
	}
	return nil
}

func (s *SQLite) HasScore(repoID string) bool {
	var count int
	if err := s.db.QueryRow(hasScoreSQL, repoID).Scan(&count); err != nil {
		slog.Warn("failed to count scores", "repo", repoID, "error", err)
		return false
	}
	return count > 0
}

func (s *SQLite) Clear() error {
	if _, err := s.db.Exec(clearScoresSQL); err != nil {
		return fmt.Errorf("error clearing scores: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		slog.Warn("error rolling back tx", "error", err)
	}
}
