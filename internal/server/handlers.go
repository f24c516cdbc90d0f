package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/gate"
	"github.com/sbenjam1n/clientintake/internal/httpx"
	"github.com/sbenjam1n/clientintake/internal/store"
	"github.com/sbenjam1n/clientintake/internal/submission"
)

// IdempotencyKeyHeader names the submit session when session_id is absent. A submit
// carrying neither is rejected.
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxBodyBytes caps form request bodies. It leaves room for a base64 signature PNG.
const MaxBodyBytes = 2 << 20

type formRequest struct {
	SessionID string           `json:"session_id,omitempty"`
	Fields    form.FieldValues `json:"fields"`
	Signature string           `json:"signature,omitempty"`
}

// EvaluateResponse is the body of POST /intake/v1/evaluate.
type EvaluateResponse struct {
	RequestID string              `json:"request_id"`
	Progress  gate.ProgressView   `json:"progress"`
	Sections  []gate.SectionState `json:"sections"`
	Summary   []gate.SummaryEntry `json:"summary"`
	Decision  gate.Decision       `json:"decision"`
}

func (s *Server) readForm(w http.ResponseWriter, r *http.Request) (*formRequest, form.Signature, bool) {
	var req formRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := httpx.ReadJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large",
				map[string]any{"limit_bytes": tooLarge.Limit})
			return nil, nil, false
		}
		httpx.WriteError(w, r, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return nil, nil, false
	}
	if req.Fields == nil {
		req.Fields = form.FieldValues{}
	}
	sig, err := form.ParseSignature(req.Signature)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "BAD_SIGNATURE", err.Error(), nil)
		return nil, nil, false
	}
	return &req, sig, true
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"request_id": httpx.RequestID(r),
		"schema":     s.schema,
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	req, sig, ok := s.readForm(w, r)
	if !ok {
		return
	}
	st := gate.Recompute(s.schema, req.Fields, sig)
	httpx.WriteJSON(w, http.StatusOK, EvaluateResponse{
		RequestID: httpx.RequestID(r),
		Progress:  gate.Project(st, s.schema, sig),
		Sections:  st.Sections,
		Summary:   gate.Summarize(req.Fields),
		Decision:  gate.CanSubmit(st, s.schema, sig),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, sig, ok := s.readForm(w, r)
	if !ok {
		return
	}
	key := req.SessionID
	if key == "" {
		key = r.Header.Get(IdempotencyKeyHeader)
	}
	if key == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "SESSION_REQUIRED",
			"session_id or the "+IdempotencyKeyHeader+" header is required", nil)
		return
	}

	receipt, err := s.submitter.Submit(r.Context(), key, s.schema, req.Fields, sig)
	var pre *submission.PreconditionError
	var te *submission.TransportError
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{
			"request_id": httpx.RequestID(r),
			"receipt":    receipt,
		})
	case errors.Is(err, submission.ErrInFlight):
		httpx.WriteError(w, r, http.StatusConflict, "IN_FLIGHT", err.Error(), nil)
	case errors.As(err, &pre):
		details := map[string]any{
			"blockers":        pre.Decision.Blockers,
			"first_offending": pre.Decision.FirstOffending,
		}
		if i := pre.Decision.FirstOffending; i >= 0 && i < len(s.schema.Sections) {
			details["section_id"] = s.schema.Sections[i].ID
		}
		httpx.WriteError(w, r, http.StatusUnprocessableEntity, "INCOMPLETE", err.Error(), details)
	case errors.As(err, &te):
		httpx.WriteError(w, r, http.StatusBadGateway, "TRANSPORT_FAILED", "There was an issue submitting the form. Please try again.", map[string]any{"retryable": true})
	default:
		s.logger.Error("submit failed", "error", err)
		httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httpx.WriteError(w, r, http.StatusNotImplemented, "NOT_CONFIGURED", "no submission store configured", nil)
		return
	}
	id := chi.URLParam(r, "submission_id")
	sub, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "DB_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"request_id": httpx.RequestID(r),
		"submission": sub,
	})
}
