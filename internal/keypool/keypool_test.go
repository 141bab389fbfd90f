package keypool

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestActive_PrefersLastWorkingKey(t *testing.T) {
	p := New([]string{"key-a", "key-b", "key-c"}, testLogger())

	key, err := p.Active()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "key-a" {
		t.Fatalf("expected key-a first, got %q", key)
	}

	p.MarkExhausted("key-a")

	key, err = p.Active()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "key-b" {
		t.Fatalf("expected rotation to key-b, got %q", key)
	}

	// key-b keeps being handed out while it works.
	for i := 0; i < 3; i++ {
		key, _ = p.Active()
		if key != "key-b" {
			t.Fatalf("expected sticky key-b, got %q", key)
		}
	}
}

func TestActive_Exhaustion(t *testing.T) {
	p := New([]string{"key-a", "key-b"}, testLogger())

	p.MarkExhausted("key-a")
	p.MarkExhausted("key-b")

	if _, err := p.Active(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	// Marking twice is harmless.
	p.MarkExhausted("key-b")
	if _, err := p.Active(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted after re-mark, got %v", err)
	}
}

func TestNew_DropsEmptyKeys(t *testing.T) {
	p := New([]string{"", "key-a", ""}, testLogger())
	if p.Size() != 1 {
		t.Fatalf("expected 1 key, got %d", p.Size())
	}
	key, err := p.Active()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "key-a" {
		t.Fatalf("expected key-a, got %q", key)
	}
}
