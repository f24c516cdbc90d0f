// Package transport delivers submission records and payer notifications.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sbenjam1n/clientintake/internal/submission"
)

const defaultTimeout = 10 * time.Second

// HTTPTransport posts records as application/x-www-form-urlencoded to a
// fixed endpoint.
type HTTPTransport struct {
	Endpoint string
	HTTP     *http.Client
}

// NewHTTP creates a transport posting to endpoint.
func NewHTTP(endpoint string) *HTTPTransport {
	return &HTTPTransport{Endpoint: endpoint, HTTP: &http.Client{Timeout: defaultTimeout}}
}

func (t *HTTPTransport) Submit(ctx context.Context, rec submission.Record) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, strings.NewReader(rec.Form().Encode()))
	if err != nil {
		return fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec.ID != "" {
		req.Header.Set("Idempotency-Key", rec.ID)
	}

	resp, err := t.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError("submit endpoint", resp)
	}
	return nil
}

func statusError(who string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("%s returned %d: %s", who, resp.StatusCode, msg)
	}
	return fmt.Errorf("%s returned %d", who, resp.StatusCode)
}
