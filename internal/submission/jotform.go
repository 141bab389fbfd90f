package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultJotformBaseURL = "https://api.jotform.com"

// Error is a failed submission: the external service rejected the payload or
// was unreachable in a way that produced a response. The raw status and body
// are kept verbatim for operator debugging, and the same payload may be
// retried as-is.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("jotform submission failed: status %d: %s", e.StatusCode, e.Body)
}

// Client submits finished payloads to a Jotform form. It performs no payload
// construction; BuildPayload owns that.
type Client struct {
	apiKey  string
	formID  string
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

func NewClient(apiKey, formID string, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		formID:  formID,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
		baseURL: defaultJotformBaseURL,
	}
}

// SetTestBaseURL overrides the API endpoint. Intended for tests only.
func (c *Client) SetTestBaseURL(u string) { c.baseURL = u }

// Submit posts the payload as form data, one "submission[fieldID]" entry per
// external key, and returns Jotform's acknowledgement (the submission ID
// when present). Success requires a 200/201 response whose body also reports
// a 200-class responseCode.
func (c *Client) Submit(ctx context.Context, payload map[string]string) (string, error) {
	endpoint := fmt.Sprintf("%s/form/%s/submissions?apiKey=%s", c.baseURL, c.formID, url.QueryEscape(c.apiKey))

	form := url.Values{}
	for key, value := range payload {
		form.Set(fmt.Sprintf("submission[%s]", key), value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("jotform post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var ack struct {
		ResponseCode int    `json:"responseCode"`
		Message      string `json:"message"`
		Content      struct {
			SubmissionID string `json:"submissionID"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return "", &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if ack.ResponseCode != http.StatusOK && ack.ResponseCode != http.StatusCreated {
		return "", &Error{StatusCode: ack.ResponseCode, Body: string(body)}
	}

	ref := ack.Content.SubmissionID
	if ref == "" {
		ref = ack.Message
	}
	c.logger.Info("report submitted", "form_id", c.formID, "submission_id", ref)
	return ref, nil
}
