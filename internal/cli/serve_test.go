package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sbenjam1n/clientintake/internal/config"
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/store"
	"github.com/sbenjam1n/clientintake/internal/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestBuildTransportStoresOnlyForwardedRecords(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer endpoint.Close()
	withConfig(t, &config.Config{SubmitURL: endpoint.URL})

	ctx := context.Background()
	st, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	defer st.Close()

	sub := submission.New(buildTransport(st), nil, submission.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	fields, sig := filledThrough(6), form.SignatureFromPNG([]byte("png"))

	for range 2 {
		_, err := sub.Submit(ctx, "session-1", form.DefaultSchema(), fields, sig)
		var te *submission.TransportError
		require.ErrorAs(t, err, &te)
	}
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected forwards leave nothing stored")

	fail.Store(false)
	receipt, err := sub.Submit(ctx, "session-1", form.DefaultSchema(), fields, sig)
	require.NoError(t, err)
	got, err := st.Get(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Values["patientName"])
}

func TestBuildTransportWithoutSubmitURL(t *testing.T) {
	withConfig(t, &config.Config{})

	ctx := context.Background()
	st, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	defer st.Close()

	tr := buildTransport(st)
	require.NoError(t, tr.Submit(ctx, submission.Record{ID: "sub-1", Values: map[string]string{}}))
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
