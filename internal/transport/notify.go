package transport

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/sbenjam1n/clientintake/internal/submission"
)

// NotificationSubject is the subject line of every payer notification.
const NotificationSubject = "New client contract submitted"

// FormSubmitNotifier relays notifications through a FormSubmit-compatible
// form-to-email service: POST <base>/ajax/<recipient> as multipart form data.
type FormSubmitNotifier struct {
	BaseURL   string
	Recipient string
	HTTP      *http.Client
}

// NewFormSubmit creates a notifier that mails recipient through baseURL.
func NewFormSubmit(baseURL, recipient string) *FormSubmitNotifier {
	return &FormSubmitNotifier{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Recipient: recipient,
		HTTP:      &http.Client{Timeout: defaultTimeout},
	}
}

// Endpoint returns the ajax URL notifications are posted to.
func (n *FormSubmitNotifier) Endpoint() string {
	return n.BaseURL + "/ajax/" + url.PathEscape(n.Recipient)
}

func (n *FormSubmitNotifier) Notify(ctx context.Context, note submission.Notification) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range [][2]string{
		{"Client Name", note.ClientName},
		{"Payer Name", note.PayerName},
		{"Payer Email", note.PayerEmail},
		{"Payer Phone", note.PayerPhone},
		{"_subject", NotificationSubject},
		{"_captcha", "false"},
		{"_template", "table"},
	} {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint(), &buf)
	if err != nil {
		return fmt.Errorf("build notify request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := n.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError("notify endpoint", resp)
	}
	return nil
}
