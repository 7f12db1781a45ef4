// Package store persists users and completed fact-check history in
// postgres. The cache owns hot results; this is the durable record of
// what was analyzed and when.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/factlens/factlens/internal/verdict"
)

type Store struct {
	DB *sql.DB
}

// NewWithDSN opens and pings a postgres connection.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// CheckRecord is one completed fact-check.
type CheckRecord struct {
	ID         string          `json:"id"`
	ContentKey string          `json:"content_key"`
	ResultText string          `json:"result_text"`
	Status     verdict.Verdict `json:"status"`
	FromCache  bool            `json:"from_cache"`
	DurationMS int             `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CreateUser inserts a user with a pre-hashed password.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)`,
		uuid.NewString(), email, passwordHash)
	return err
}

// GetUserByEmail returns the user's id and password hash.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = $1`, email).Scan(&id, &hash)
	if err != nil {
		return "", "", err
	}
	return id, hash, nil
}

// RecordCheck appends a completed check to the history.
func (s *Store) RecordCheck(ctx context.Context, rec CheckRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO checks (id, content_key, result_text, status, from_cache, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.ContentKey, rec.ResultText, string(rec.Status), rec.FromCache, rec.DurationMS, rec.CreatedAt)
	return err
}

// ListChecks returns the most recent checks, newest first.
func (s *Store) ListChecks(ctx context.Context, limit int) ([]CheckRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, content_key, result_text, status, from_cache, duration_ms, created_at
		 FROM checks ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CheckRecord
	for rows.Next() {
		var rec CheckRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.ContentKey, &rec.ResultText, &status, &rec.FromCache, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Status = verdict.Verdict(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
