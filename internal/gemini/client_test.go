package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/uprotect/intake/internal/keypool"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "key-a" {
			t.Errorf("expected key-a header, got %q", got)
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SystemInstruction == nil || len(req.SystemInstruction.Parts) == 0 {
			t.Error("expected system instruction")
		}
		if len(req.Contents) != 2 {
			t.Errorf("expected 2 contents, got %d", len(req.Contents))
		}
		json.NewEncoder(w).Encode(textResponse("What is your full name?"))
	}))
	defer server.Close()

	pool := keypool.New([]string{"key-a"}, discardLogger())
	c := NewClient(pool, "test-model", discardLogger())
	c.SetTestBaseURL(server.URL)

	out, err := c.Complete(context.Background(), "be kind", []Message{
		{Role: "user", Text: "hello"},
		{Role: "model", Text: "hi"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "What is your full name?" {
		t.Errorf("unexpected reply %q", out)
	}
}

func TestComplete_RotatesOnQuota(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":    429,
					"status":  "RESOURCE_EXHAUSTED",
					"message": "quota exceeded",
				},
			})
			return
		}
		if got := r.Header.Get("x-goog-api-key"); got != "key-b" {
			t.Errorf("expected rotation to key-b, got %q", got)
		}
		json.NewEncoder(w).Encode(textResponse("ok"))
	}))
	defer server.Close()

	pool := keypool.New([]string{"key-a", "key-b"}, discardLogger())
	c := NewClient(pool, "test-model", discardLogger())
	c.SetTestBaseURL(server.URL)

	out, err := c.Complete(context.Background(), "", []Message{{Role: "user", Text: "hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Errorf("unexpected reply %q", out)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestComplete_PoolExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota"}}`)
	}))
	defer server.Close()

	pool := keypool.New([]string{"key-a", "key-b"}, discardLogger())
	c := NewClient(pool, "test-model", discardLogger())
	c.SetTestBaseURL(server.URL)

	_, err := c.Complete(context.Background(), "", []Message{{Role: "user", Text: "hi"}})
	if !errors.Is(err, keypool.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	// The pool stays spent for later calls without touching the API again.
	_, err = c.Complete(context.Background(), "", []Message{{Role: "user", Text: "hi"}})
	if !errors.Is(err, keypool.ErrExhausted) {
		t.Fatalf("expected ErrExhausted on second call, got %v", err)
	}
}

func TestComplete_NonQuotaErrorDoesNotRotate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"status":"INVALID_ARGUMENT","message":"bad request"}}`)
	}))
	defer server.Close()

	pool := keypool.New([]string{"key-a", "key-b"}, discardLogger())
	c := NewClient(pool, "test-model", discardLogger())
	c.SetTestBaseURL(server.URL)

	_, err := c.Complete(context.Background(), "", []Message{{Role: "user", Text: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, keypool.ErrExhausted) {
		t.Fatal("a non-quota error must not exhaust the pool")
	}

	// key-a is still the active key.
	key, err := pool.Active()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "key-a" {
		t.Errorf("expected key-a still active, got %q", key)
	}
}
