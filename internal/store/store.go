package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sbenjam1n/clientintake/internal/submission"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("submission not found")

// Submission is a persisted intake record.
type Submission struct {
	ID          string            `json:"id"`
	Values      map[string]string `json:"values"`
	Signature   string            `json:"signature"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Store persists submitted records.
type Store interface {
	Save(ctx context.Context, rec submission.Record) error
	Get(ctx context.Context, id string) (*Submission, error)
	List(ctx context.Context, limit int) ([]Submission, error)
	Count(ctx context.Context) (int64, error)
	Close()
}

// IsSQLiteURL reports whether a database URL selects the embedded SQLite store.
func IsSQLiteURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "sqlite:") || strings.HasPrefix(databaseURL, "file:")
}

// SQLitePath strips the sqlite: scheme from a database URL.
func SQLitePath(databaseURL string) string {
	p := strings.TrimPrefix(databaseURL, "sqlite:")
	return strings.TrimPrefix(p, "//")
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
