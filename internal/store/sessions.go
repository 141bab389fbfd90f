package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/uprotect/intake/internal/extractor"
	"github.com/uprotect/intake/internal/interview"
)

// WriteInterviewRecord persists a completed session across the interview
// tables in one transaction.
// Tables: interview_sessions, interview_answers, interview_messages.
func (s *Store) WriteInterviewRecord(ctx context.Context, sess *interview.Session) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO interview_sessions (id, created_at, completed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET completed_at = now()`,
		sess.ID, sess.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for _, answer := range sess.Answers() {
		_, err = tx.Exec(ctx, `
			INSERT INTO interview_answers (id, session_id, topic_key, value, declined, collected_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), sess.ID, answer.TopicKey, answer.Value, answer.Declined, answer.CollectedAt,
		)
		if err != nil {
			return fmt.Errorf("insert answer %s: %w", answer.TopicKey, err)
		}
	}

	for seq, msg := range sess.Transcript() {
		_, err = tx.Exec(ctx, `
			INSERT INTO interview_messages (id, session_id, seq, speaker, text, said_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), sess.ID, seq, string(msg.Speaker), msg.Text, msg.At,
		)
		if err != nil {
			return fmt.Errorf("insert message %d: %w", seq, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// WriteExtraction persists the structured record generated for a session.
// Re-extraction after a malformed attempt overwrites the previous row.
func (s *Store) WriteExtraction(ctx context.Context, sessionID uuid.UUID, rec *extractor.Record) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO interview_extractions (session_id, narrative, fields, extracted_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id) DO UPDATE SET narrative = $2, fields = $3, extracted_at = now()`,
		sessionID, rec.Narrative, fields,
	)
	if err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}
