// Package events publishes interview lifecycle events to NATS so downstream
// systems (case management, alerting) can react without polling.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for interview lifecycle events.
const (
	SubjectInterviewCompleted = "intake.interview.completed"
	SubjectReportExtracted    = "intake.report.extracted"
	SubjectCaseSubmitted      = "intake.case.submitted"
)

// InterviewCompleted is published when a session reaches its terminal state.
type InterviewCompleted struct {
	SessionID   string    `json:"session_id"`
	Answers     int       `json:"answers"`
	CompletedAt time.Time `json:"completed_at"`
}

// ReportExtracted is published when a transcript was successfully turned
// into a structured record.
type ReportExtracted struct {
	SessionID   string    `json:"session_id"`
	FieldCount  int       `json:"field_count"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// CaseSubmitted is published when the external form service acknowledged a
// submission.
type CaseSubmitted struct {
	SessionID     string    `json:"session_id"`
	SubmissionRef string    `json:"submission_ref"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Close() {
	c.conn.Close()
}
