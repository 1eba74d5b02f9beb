package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PabloGalante/speech-coach/internal/app/practice"
	"github.com/PabloGalante/speech-coach/internal/domain"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

// CredentialStore persists the analysis credential.
type CredentialStore interface {
	Set(ctx context.Context, credential string) error
}

type Server struct {
	sup   *practice.Supervisor
	creds CredentialStore
}

func NewServer(sup *practice.Supervisor, creds CredentialStore) http.Handler {
	s := &Server{sup: sup, creds: creds}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /sessions            → POST: start recording
	// /sessions/transcript → POST: push a transcript event
	// /sessions/stop       → POST: stop and analyze
	// /sessions/current    → GET: live snapshot
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/sessions/", s.handleSessionAction)

	mux.HandleFunc("/practice/text", s.handlePracticeText)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/credential", s.handleCredential)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type startSessionRequest struct {
	Scenario string `json:"scenario,omitempty"`
}

type startSessionResponse struct {
	SessionID string          `json:"session_id"`
	Scenario  domain.Scenario `json:"scenario"`
	State     practice.State  `json:"state"`
}

type practiceTextRequest struct {
	Text            string  `json:"text"`
	Scenario        string  `json:"scenario,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Outcome *practice.Outcome `json:"outcome,omitempty"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleStartSession(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/{action}
func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/sessions/transcript":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleTranscript(w, r)
	case "/sessions/stop":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleStopSession(w, r)
	case "/sessions/current":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, s.sup.Snapshot())
	default:
		http.NotFound(w, r)
	}
}

// /history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.sup.History(r.Context()))
	case http.MethodDelete:
		if err := s.sup.ClearHistory(r.Context()); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
	}

	scenario := domain.ParseScenario(req.Scenario)
	id, err := s.sup.Start(r.Context(), scenario)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusCreated, startSessionResponse{
		SessionID: id,
		Scenario:  scenario,
		State:     s.sup.State(),
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	var ev domain.TranscriptEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if err := s.sup.HandleTranscript(ev); err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.sup.Snapshot())
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	out, err := s.sup.Stop(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			writeError(w, r, err, nil)
			return
		}
		writeError(w, r, err, &out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePracticeText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req practiceTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.sup.PracticeText(r.Context(), req.Text, domain.ParseScenario(req.Scenario), req.DurationSeconds)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			writeError(w, r, err, nil)
			return
		}
		writeError(w, r, err, &out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCredential(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}

	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if err := s.creds.Set(r.Context(), req.APIKey); err != nil {
		writeError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusPreconditionFailed
	case errors.Is(err, domain.ErrAnalysisInFlight), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAnalysisService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, out *practice.Outcome) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Outcome: out})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
