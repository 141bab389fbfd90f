package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/uprotect/intake/internal/keypool"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Message is one conversation turn. Role is "user" or "model".
type Message struct {
	Role string
	Text string
}

// Client calls the Gemini generateContent API. Keys come from a shared pool;
// a quota-exhausted key is retired and the call retried with the next one, so
// a single Complete call only fails on a non-quota error or when the whole
// pool is spent.
type Client struct {
	pool    *keypool.Pool
	model   string
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

func NewClient(pool *keypool.Pool, model string, logger *slog.Logger) *Client {
	return &Client{
		pool:    pool,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
		baseURL: defaultBaseURL,
	}
}

// SetTestBaseURL overrides the API endpoint. Intended for tests only.
func (c *Client) SetTestBaseURL(u string) { c.baseURL = u }

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

type request struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the system instruction and conversation to Gemini and
// returns the model's text reply. Safe to call again with identical input
// after any failure.
func (c *Client) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	reqBody := request{
		Contents: make([]content, 0, len(messages)),
	}
	if system != "" {
		reqBody.SystemInstruction = &content{Parts: []contentPart{{Text: system}}}
	}
	for _, m := range messages {
		reqBody.Contents = append(reqBody.Contents, content{
			Role:  m.Role,
			Parts: []contentPart{{Text: m.Text}},
		})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	for {
		key, err := c.pool.Active()
		if err != nil {
			return "", err
		}

		text, quotaHit, err := c.attempt(ctx, key, body)
		if quotaHit {
			c.pool.MarkExhausted(key)
			continue
		}
		if err != nil {
			return "", err
		}
		return text, nil
	}
}

// attempt performs one API call with one key. quotaHit reports that the key
// should be retired and the call retried with another.
func (c *Client) attempt(ctx context.Context, key string, body []byte) (text string, quotaHit bool, err error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			if resp.StatusCode == http.StatusTooManyRequests || errResp.Error.Status == "RESOURCE_EXHAUSTED" {
				return "", true, nil
			}
			return "", false, fmt.Errorf("api error %d: %s — %s", resp.StatusCode, errResp.Error.Status, errResp.Error.Message)
		}
		if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(respBody), "RESOURCE_EXHAUSTED") {
			return "", true, nil
		}
		return "", false, fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", false, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("empty response content")
	}

	var b strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), false, nil
}
