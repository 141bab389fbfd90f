package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/uprotect/intake/internal/events"
	"github.com/uprotect/intake/internal/extractor"
	"github.com/uprotect/intake/internal/submission"
)

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Machine.NewSession()

	opening, err := s.deps.Machine.Begin(r.Context(), sess)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &liveSession{session: sess}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"message":    opening,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session", "")
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	currentTopic := ""
	if topic, active := ls.session.CurrentTopic(); active {
		currentTopic = topic.Key
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    ls.session.ID,
		"complete":      ls.session.Terminal(),
		"current_topic": currentTopic,
		"transcript":    ls.session.Transcript(),
		"report_ready":  ls.record != nil,
	})
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session", "")
		return
	}

	var req messageRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "a non-empty text field is required", "")
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	reply, err := s.deps.Machine.Respond(r.Context(), ls.session, req.Text)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	if ls.session.Terminal() {
		s.recordCompletion(r, ls)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  reply,
		"complete": ls.session.Terminal(),
	})
}

// recordCompletion persists the finished interview and announces it. Both
// are best-effort: a storage or bus outage must not take down a finished
// interview.
func (s *Server) recordCompletion(r *http.Request, ls *liveSession) {
	if s.deps.Store != nil {
		if err := s.deps.Store.WriteInterviewRecord(r.Context(), ls.session); err != nil {
			s.deps.Logger.Error("failed to persist interview", "session_id", ls.session.ID, "error", err)
		}
	}
	if s.deps.Events != nil {
		evt := events.InterviewCompleted{
			SessionID:   ls.session.ID.String(),
			Answers:     len(ls.session.Answers()),
			CompletedAt: time.Now().UTC(),
		}
		if err := s.deps.Events.Publish(events.SubjectInterviewCompleted, evt); err != nil {
			s.deps.Logger.Warn("failed to publish completion event", "session_id", ls.session.ID, "error", err)
		}
	}
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session", "")
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	record, err := s.ensureRecord(r, ls)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if record == nil {
		writeError(w, http.StatusConflict, "the interview is not finished yet", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"narrative": record.Narrative,
		"fields":    record.Fields,
	})
}

// ensureRecord returns the cached extraction, generating it on first use.
// Returns (nil, nil) when the session is not yet terminal.
func (s *Server) ensureRecord(r *http.Request, ls *liveSession) (*extractor.Record, error) {
	if !ls.session.Terminal() {
		return nil, nil
	}
	if ls.record != nil {
		return ls.record, nil
	}

	record, err := s.deps.Extractor.Extract(r.Context(), ls.session.TranscriptText())
	if err != nil {
		return nil, err
	}
	ls.record = record

	if s.deps.Store != nil {
		if err := s.deps.Store.WriteExtraction(r.Context(), ls.session.ID, record); err != nil {
			s.deps.Logger.Error("failed to persist extraction", "session_id", ls.session.ID, "error", err)
		}
	}
	if s.deps.Events != nil {
		evt := events.ReportExtracted{
			SessionID:   ls.session.ID.String(),
			FieldCount:  len(record.Fields),
			ExtractedAt: time.Now().UTC(),
		}
		if err := s.deps.Events.Publish(events.SubjectReportExtracted, evt); err != nil {
			s.deps.Logger.Warn("failed to publish extraction event", "session_id", ls.session.ID, "error", err)
		}
	}
	return record, nil
}

func (s *Server) submitReport(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session", "")
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	record, err := s.ensureRecord(r, ls)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if record == nil {
		writeError(w, http.StatusConflict, "the interview is not finished yet", "")
		return
	}

	payload := submission.BuildPayload(
		record.Fields,
		submission.FixedFields(s.deps.CaseOwner, time.Now()),
		s.deps.Mapping,
	)

	ack, err := s.deps.Submitter.Submit(r.Context(), payload)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	if s.deps.Store != nil {
		if _, err := s.deps.Store.WriteSubmissionReceipt(r.Context(), ls.session.ID, ack, payload); err != nil {
			s.deps.Logger.Error("failed to persist receipt", "session_id", ls.session.ID, "error", err)
		}
	}
	if s.deps.Events != nil {
		evt := events.CaseSubmitted{
			SessionID:     ls.session.ID.String(),
			SubmissionRef: ack,
			SubmittedAt:   time.Now().UTC(),
		}
		if err := s.deps.Events.Publish(events.SubjectCaseSubmitted, evt); err != nil {
			s.deps.Logger.Warn("failed to publish submission event", "session_id", ls.session.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"submission_ref": ack,
		"evidence_note":  s.evidenceNote(),
	})
}

// evidenceNote tells the respondent where to send non-text evidence; the
// chat channel itself carries no file uploads.
func (s *Server) evidenceNote() string {
	return "For any evidence such as photos, videos, or documents, please send them directly to email " +
		s.deps.EvidenceEmail + " or WhatsApp " + s.deps.EvidenceWhatsApp + "."
}
