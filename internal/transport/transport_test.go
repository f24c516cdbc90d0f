package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sbenjam1n/clientintake/internal/store"
	"github.com/sbenjam1n/clientintake/internal/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rec = submission.Record{
	ID:          "sub-1",
	Values:      map[string]string{"patientName": "Ada"},
	Signature:   "data:image/png;base64,AA==",
	SubmittedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
}

func TestHTTPTransportPostsForm(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewHTTP(srv.URL).Submit(context.Background(), rec))
	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", got.Header.Get("Content-Type"))
	assert.Equal(t, "sub-1", got.Header.Get("Idempotency-Key"))
	assert.Equal(t, "Ada", got.PostForm.Get("patientName"))
	assert.Equal(t, rec.Signature, got.PostForm.Get("signature"))
	assert.Equal(t, "2026-10-19T12:00:00Z", got.PostForm.Get("submittedAt"))
}

func TestHTTPTransportNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewHTTP(srv.URL).Submit(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestFormSubmitNotifier(t *testing.T) {
	var fields map[string]string
	var path, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, accept = r.URL.Path, r.Header.Get("Accept")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		w.Write([]byte(`{"success":"true"}`))
	}))
	defer srv.Close()

	n := NewFormSubmit(srv.URL+"/", "office@example.com")
	err := n.Notify(context.Background(), submission.Notification{
		ClientName: "Ada", PayerName: "N/A", PayerEmail: "p@example.com", PayerPhone: "555",
	})
	require.NoError(t, err)
	assert.Equal(t, "/ajax/office@example.com", path)
	assert.Equal(t, "application/json", accept)
	assert.Equal(t, map[string]string{
		"Client Name": "Ada",
		"Payer Name":  "N/A",
		"Payer Email": "p@example.com",
		"Payer Phone": "555",
		"_subject":    NotificationSubject,
		"_captcha":    "false",
		"_template":   "table",
	}, fields)
}

func TestFormSubmitNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewFormSubmit(srv.URL, "x@example.com").Notify(context.Background(), submission.Notification{})
	assert.ErrorContains(t, err, "502")
}

type memStore struct {
	store.Store
	saved []submission.Record
	err   error
}

func (m *memStore) Save(_ context.Context, r submission.Record) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, r)
	return nil
}

func TestFanoutStopsAtFirstFailure(t *testing.T) {
	ok := &memStore{}
	bad := &memStore{err: errors.New("disk full")}
	after := &memStore{}

	err := Fanout{StoreTransport{ok}, StoreTransport{bad}, StoreTransport{after}}.Submit(context.Background(), rec)
	assert.EqualError(t, err, "disk full")
	assert.Len(t, ok.saved, 1)
	assert.Empty(t, after.saved)
}
