package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sbenjam1n/clientintake/internal/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2026, 10, 19, 9, 15, 0, 0, time.UTC)

func sampleRecord(id string) submission.Record {
	return submission.Record{
		ID:          id,
		Values:      map[string]string{"patientName": "Ada", "agreeTerms": "on"},
		Signature:   "data:image/png;base64,AA==",
		SubmittedAt: submittedAt,
	}
}

func TestSQLSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewSQL(db)
	s.now = func() time.Time { return submittedAt }

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WithArgs("sub-1", `{"agreeTerms":"on","patientName":"Ada"}`, "data:image/png;base64,AA==",
			"2026-10-19T09:15:00.000000000Z", "2026-10-19T09:15:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Save(context.Background(), sampleRecord("sub-1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewSQL(db)

	cols := []string{"id", "field_values", "signature", "submitted_at", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, field_values")).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("sub-1", `{"patientName":"Ada"}`, "", "2026-10-19T09:15:00Z", "2026-10-19T09:16:00Z"))

	got, err := s.Get(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Values["patientName"])
	assert.True(t, got.SubmittedAt.Equal(submittedAt))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, field_values")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLListClampsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewSQL(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY submitted_at DESC LIMIT ?")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "field_values", "signature", "submitted_at", "created_at"}))

	out, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, sampleRecord("a")))
	later := sampleRecord("b")
	later.SubmittedAt = submittedAt.Add(time.Hour)
	require.NoError(t, s.Save(ctx, later))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, sampleRecord("a").Values, got.Values)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Save(ctx, sampleRecord("a")), "duplicate id")
}

func TestSQLiteListOrdersSubSecond(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	defer s.Close()

	older := sampleRecord("older")
	newer := sampleRecord("newer")
	newer.SubmittedAt = submittedAt.Add(500 * time.Millisecond)
	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)
	assert.True(t, list[0].SubmittedAt.Equal(newer.SubmittedAt))
}

func TestSQLiteURL(t *testing.T) {
	assert.True(t, IsSQLiteURL("sqlite:///var/lib/intake.db"))
	assert.True(t, IsSQLiteURL("file:intake.db"))
	assert.False(t, IsSQLiteURL("postgres://localhost/intake"))
	assert.Equal(t, "/var/lib/intake.db", SQLitePath("sqlite:///var/lib/intake.db"))
	assert.Equal(t, "intake.db", SQLitePath("sqlite:intake.db"))
}
