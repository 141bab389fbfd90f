// Package keypool manages a process-wide ordered pool of provider API keys.
// A key that hits its quota is marked exhausted for the remainder of the
// process lifetime; exhaustion is a terminal state for a credential, not a
// transient error to retry.
package keypool

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrExhausted is returned once every key in the pool has been marked
// exhausted. Callers must surface this as a recoverable "try later" failure
// and preserve any session state they hold.
var ErrExhausted = errors.New("keypool: all provider keys exhausted")

// Pool is safe for concurrent use by multiple sessions.
type Pool struct {
	mu        sync.Mutex
	keys      []string
	exhausted map[string]bool
	current   int // index of the last key that worked; rotation starts here
	logger    *slog.Logger
}

// New builds a pool from the given keys, preserving order. Empty keys are
// dropped. New panics on an empty pool only at the call site's peril: callers
// should validate configuration before constructing one.
func New(keys []string, logger *slog.Logger) *Pool {
	kept := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			kept = append(kept, k)
		}
	}
	return &Pool{
		keys:      kept,
		exhausted: make(map[string]bool),
		logger:    logger,
	}
}

// Size returns the number of keys in the pool, exhausted or not.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Active returns the first usable key, preferring the key that most recently
// succeeded. Returns ErrExhausted when none remain.
func (p *Pool) Active() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < len(p.keys); i++ {
		idx := (p.current + i) % len(p.keys)
		if !p.exhausted[p.keys[idx]] {
			p.current = idx
			return p.keys[idx], nil
		}
	}
	return "", ErrExhausted
}

// MarkExhausted permanently retires a key. Subsequent Active calls skip it.
func (p *Pool) MarkExhausted(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exhausted[key] {
		return
	}
	p.exhausted[key] = true

	remaining := 0
	for _, k := range p.keys {
		if !p.exhausted[k] {
			remaining++
		}
	}
	p.logger.Warn("provider key exhausted", "remaining", remaining)
}
