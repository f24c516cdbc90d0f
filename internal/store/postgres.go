package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sbenjam1n/clientintake/internal/submission"
)

// querier is the subset of *pgxpool.Pool (and pgx.Tx) the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres stores submissions in the submissions table (migrations/001_initial.sql).
type Postgres struct {
	db   querier
	pool *pgxpool.Pool
}

// NewPostgres wraps a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool, pool: pool}
}

func (p *Postgres) Save(ctx context.Context, rec submission.Record) error {
	valuesJSON, err := json.Marshal(rec.Values)
	if err != nil {
		return fmt.Errorf("marshal values for %s: %w", rec.ID, err)
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO submissions (id, field_values, signature, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, valuesJSON, rec.Signature, rec.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert submission %s: %w", rec.ID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Submission, error) {
	var s Submission
	var valuesJSON []byte
	err := p.db.QueryRow(ctx, `
		SELECT id, field_values, signature, submitted_at, created_at
		FROM submissions
		WHERE id = $1
	`, id).Scan(&s.ID, &valuesJSON, &s.Signature, &s.SubmittedAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch submission %s: %w", id, err)
	}
	if err := json.Unmarshal(valuesJSON, &s.Values); err != nil {
		return nil, fmt.Errorf("unmarshal values for submission %s: %w", id, err)
	}
	return &s, nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]Submission, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, field_values, signature, submitted_at, created_at
		FROM submissions
		ORDER BY submitted_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		var valuesJSON []byte
		if err := rows.Scan(&s.ID, &valuesJSON, &s.Signature, &s.SubmittedAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(valuesJSON, &s.Values); err != nil {
			return nil, fmt.Errorf("unmarshal values for submission %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
