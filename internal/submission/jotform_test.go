package submission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubmit_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/form/240012345/submissions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("apiKey"); got != "jf-key" {
			t.Errorf("apiKey = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("submission[q3_name]"); got != "Jane Doe" {
			t.Errorf("submission[q3_name] = %q", got)
		}
		io.WriteString(w, `{"responseCode":200,"message":"success","content":{"submissionID":"5551234"}}`)
	}))
	defer server.Close()

	c := NewClient("jf-key", "240012345", discardLogger())
	c.SetTestBaseURL(server.URL)

	ref, err := c.Submit(context.Background(), map[string]string{"q3_name": "Jane Doe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "5551234" {
		t.Errorf("acknowledgement = %q, want submission id", ref)
	}
}

func TestSubmit_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"responseCode":401,"message":"invalid api key"}`)
	}))
	defer server.Close()

	c := NewClient("bad-key", "240012345", discardLogger())
	c.SetTestBaseURL(server.URL)

	_, err := c.Submit(context.Background(), map[string]string{"q3_name": "Jane Doe"})
	var subErr *Error
	if !errors.As(err, &subErr) {
		t.Fatalf("expected submission Error, got %v", err)
	}
	if subErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", subErr.StatusCode)
	}
	if subErr.Body == "" {
		t.Error("error must carry the raw body for operator debugging")
	}
}

func TestSubmit_BodyLevelFailure(t *testing.T) {
	// Jotform can answer 200 with a failing responseCode in the body.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"responseCode":400,"message":"form is disabled"}`)
	}))
	defer server.Close()

	c := NewClient("jf-key", "240012345", discardLogger())
	c.SetTestBaseURL(server.URL)

	_, err := c.Submit(context.Background(), map[string]string{"q3_name": "Jane Doe"})
	var subErr *Error
	if !errors.As(err, &subErr) {
		t.Fatalf("expected submission Error, got %v", err)
	}
	if subErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want the body responseCode", subErr.StatusCode)
	}
}

func TestLoadMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	content := "name: q3_name\nage: q4_age\ndateAnd: q22_dateAnd\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write mapping: %v", err)
	}

	mapping, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mapping["name"] != "q3_name" || mapping["dateAnd"] != "q22_dateAnd" {
		t.Errorf("mapping = %v", mapping)
	}

	if _, err := LoadMapping(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte(""), 0o600)
	if _, err := LoadMapping(empty); err == nil {
		t.Error("expected error for empty mapping")
	}
}
