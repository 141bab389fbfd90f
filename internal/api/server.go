// Package api exposes the interview over HTTP: one chat-style session
// resource whose messages drive the state machine, plus report generation
// and submission once the interview concludes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/uprotect/intake/internal/events"
	"github.com/uprotect/intake/internal/extractor"
	"github.com/uprotect/intake/internal/interview"
	"github.com/uprotect/intake/internal/keypool"
	"github.com/uprotect/intake/internal/store"
	"github.com/uprotect/intake/internal/submission"
)

// ReportExtractor turns a finished transcript into a structured record.
type ReportExtractor interface {
	Extract(ctx context.Context, transcript string) (*extractor.Record, error)
}

// CaseSubmitter delivers a built payload to the external form service.
type CaseSubmitter interface {
	Submit(ctx context.Context, payload map[string]string) (string, error)
}

// Deps carries the server's collaborators. Store and Events may be nil; the
// interview works without them, it just leaves no audit trail or events.
type Deps struct {
	Machine          *interview.Machine
	Extractor        ReportExtractor
	Submitter        CaseSubmitter
	Mapping          submission.FieldMapping
	CaseOwner        string
	EvidenceEmail    string
	EvidenceWhatsApp string
	Store            *store.Store
	Events           *events.Client
	Logger           *slog.Logger
}

// liveSession pairs a session with its per-session lock: inputs to one
// session are processed strictly one at a time, while independent sessions
// proceed concurrently.
type liveSession struct {
	mu      sync.Mutex
	session *interview.Session
	record  *extractor.Record // extraction cache, generate once
}

type Server struct {
	router *chi.Mux
	port   int
	deps   Deps

	mu       sync.Mutex
	sessions map[uuid.UUID]*liveSession
}

func NewServer(port int, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		deps:     deps,
		sessions: make(map[uuid.UUID]*liveSession),
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/messages", s.postMessage)
			r.Post("/report", s.generateReport)
			r.Post("/submit", s.submitReport)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.deps.Logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) lookup(r *http.Request) (*liveSession, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[id]
	return ls, ok
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	body := map[string]string{"error": message}
	if detail != "" {
		body["detail"] = detail
	}
	writeJSON(w, status, body)
}

// writeFailure maps the error taxonomy onto HTTP statuses. Provider
// exhaustion is a temporary outage, malformed extraction and rejected
// submissions are upstream faults reported with their raw detail.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var malformed *extractor.MalformedError
	var subErr *submission.Error

	switch {
	case errors.Is(err, keypool.ErrExhausted):
		writeError(w, http.StatusServiceUnavailable,
			"all interview capacity is in use right now — your answers are saved, please try again later", "")
	case errors.As(err, &malformed):
		writeError(w, http.StatusBadGateway,
			"the transcript analysis did not return a valid report; you can retry without re-answering", malformed.Raw)
	case errors.As(err, &subErr):
		writeError(w, http.StatusBadGateway,
			"the form service rejected the submission; it can be retried with the same report",
			fmt.Sprintf("status %d: %s", subErr.StatusCode, subErr.Body))
	case errors.Is(err, interview.ErrTerminal):
		writeError(w, http.StatusConflict, "the interview has already concluded", "")
	default:
		writeError(w, http.StatusBadGateway, "the interview agent is unavailable", err.Error())
	}
}
