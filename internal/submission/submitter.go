package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/gate"
)

// ErrInFlight is returned when a submit is attempted while another for the same form is running.
var ErrInFlight = errors.New("a submission for this form is already in progress")

// PreconditionError means the form was not ready at submit time. No network call was made.
type PreconditionError struct {
	Decision gate.Decision
}

func (e *PreconditionError) Error() string {
	return "form incomplete, missing: " + strings.Join(e.Decision.Blockers, ", ")
}

// TransportError means the record could not be delivered. Nothing was persisted and the
// submission can be retried.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("submit record: %v", e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// Transport delivers the completed record. Only success or failure is interpreted.
type Transport interface {
	Submit(ctx context.Context, rec Record) error
}

// Notifier sends the best-effort notification after a successful submit.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Receipt describes an accepted submission and where the host should go next.
type Receipt struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Redirect    string    `json:"redirect"`
}

// Config tunes a Submitter. Zero values get defaults.
type Config struct {
	Redirect      string
	NotifyTimeout time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

// Submitter runs the submit path: re-entrancy guard, a fresh gate check, the primary transport
// call, then the detached notification.
type Submitter struct {
	transport     Transport
	notifier      Notifier
	guard         *Guard
	redirect      string
	notifyTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// New creates a Submitter. notifier may be nil.
func New(t Transport, n Notifier, cfg Config) *Submitter {
	s := &Submitter{
		transport:     t,
		notifier:      n,
		guard:         NewGuard(),
		redirect:      cfg.Redirect,
		notifyTimeout: cfg.NotifyTimeout,
		logger:        cfg.Logger,
		now:           cfg.Now,
	}
	if s.redirect == "" {
		s.redirect = "thank-you.html"
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = 15 * time.Second
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "submission")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit checks the form and delivers it. key identifies the form session for the
// re-entrancy guard; a second call with the same key fails with ErrInFlight until the first
// returns. Gating is recomputed here from the given values rather than trusted from the caller.
func (s *Submitter) Submit(ctx context.Context, key string, schema *form.Schema, fields form.FieldValues, sig form.Signature) (*Receipt, error) {
	release, ok := s.guard.Acquire(key)
	if !ok {
		return nil, ErrInFlight
	}
	defer release()

	st := gate.Recompute(schema, fields, sig)
	if d := gate.CanSubmit(st, schema, sig); !d.Allowed {
		return nil, &PreconditionError{Decision: d}
	}

	rec := BuildRecord(fields, sig, s.now())
	rec.ID = uuid.NewString()

	if err := s.transport.Submit(ctx, rec); err != nil {
		s.logger.Warn("submission failed", "submission_id", rec.ID, "error", err)
		return nil, &TransportError{Err: err}
	}
	s.logger.Info("submission accepted", "submission_id", rec.ID)

	s.notify(rec)

	return &Receipt{ID: rec.ID, SubmittedAt: rec.SubmittedAt, Redirect: s.redirect}, nil
}

// InFlight reports whether a submission for key is running.
func (s *Submitter) InFlight(key string) bool {
	return s.guard.InFlight(key)
}

// notify fires the notification on its own goroutine and context. Nothing waits for it and
// every failure, including a panic in the notifier, is dropped after a debug log line.
func (s *Submitter) notify(rec Record) {
	if s.notifier == nil {
		return
	}
	n := NotificationFor(rec)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Debug("notification panicked", "submission_id", rec.ID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Debug("notification dropped", "submission_id", rec.ID, "error", err)
		}
	}()
}
