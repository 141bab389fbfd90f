package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// WriteSubmissionReceipt records an accepted external submission: the
// acknowledgement the form service returned and the exact payload that was
// sent, for later reconciliation.
func (s *Store) WriteSubmissionReceipt(ctx context.Context, sessionID uuid.UUID, ack string, payload map[string]string) (uuid.UUID, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	receiptID := uuid.New()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO submission_receipts (id, session_id, acknowledgement, payload, submitted_at)
		VALUES ($1, $2, $3, $4, now())`,
		receiptID, sessionID, ack, body,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert receipt: %w", err)
	}
	return receiptID, nil
}
