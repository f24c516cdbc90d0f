package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sbenjam1n/clientintake/internal/submission"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS submissions (
    id           TEXT PRIMARY KEY,
    field_values TEXT NOT NULL,
    signature    TEXT NOT NULL,
    submitted_at TEXT NOT NULL,
    created_at   TEXT NOT NULL
)`

// sqliteTime is fixed width so text ordering matches time ordering. Rows are read back with
// time.RFC3339Nano, which accepts any fraction length.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQL stores submissions through database/sql. It backs single-node deployments on SQLite.
type SQL struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s := NewSQL(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open database handle.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db, now: time.Now}
}

// Migrate creates the submissions table.
func (s *SQL) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create submissions table: %w", err)
	}
	return nil
}

func (s *SQL) Save(ctx context.Context, rec submission.Record) error {
	valuesJSON, err := json.Marshal(rec.Values)
	if err != nil {
		return fmt.Errorf("marshal values for %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, field_values, signature, submitted_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(valuesJSON), rec.Signature,
		rec.SubmittedAt.UTC().Format(sqliteTime), s.now().UTC().Format(sqliteTime),
	)
	if err != nil {
		return fmt.Errorf("insert submission %s: %w", rec.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*Submission, error) {
	var sub Submission
	var valuesJSON, submittedAt, createdAt string
	if err := row.Scan(&sub.ID, &valuesJSON, &sub.Signature, &submittedAt, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(valuesJSON), &sub.Values); err != nil {
		return nil, fmt.Errorf("unmarshal values for submission %s: %w", sub.ID, err)
	}
	var err error
	if sub.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
		return nil, fmt.Errorf("parse submitted_at for %s: %w", sub.ID, err)
	}
	if sub.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", sub.ID, err)
	}
	return &sub, nil
}

func (s *SQL) Get(ctx context.Context, id string) (*Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, field_values, signature, submitted_at, created_at FROM submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch submission %s: %w", id, err)
	}
	return sub, nil
}

func (s *SQL) List(ctx context.Context, limit int) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, field_values, signature, submitted_at, created_at FROM submissions ORDER BY submitted_at DESC LIMIT ?`,
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

func (s *SQL) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

func (s *SQL) Close() {
	s.db.Close()
}
