// Package audit writes an append-only JSONL decision log. Every scored
// message and sender check lands here with a stable event id, so
// disputed verdicts can be replayed and audited after the fact.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one audit record. Text is hashed upstream when privacy
// requires it; the logger writes whatever it is given.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Kind      string         `json:"kind"` // "scan" or "sender_check"
	Verdict   string         `json:"verdict"`
	Score     float64        `json:"score"`
	Method    string         `json:"method,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Logger appends events to a JSONL file. Safe for concurrent use. The
// zero value is a no-op logger.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// NewLogger opens (or creates) the log file for appending. An empty
// path returns a no-op logger rather than an error.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return &Logger{}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	return &Logger{file: f}, nil
}

// Record writes one event. The id and timestamp are assigned here.
// Write failures are logged, not returned: an audit hiccup must never
// block a verdict.
func (l *Logger) Record(kind, verdict string, score float64, method string, detail map[string]any) {
	if l == nil || l.file == nil {
		return
	}
	event := Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Verdict:   verdict,
		Score:     score,
		Method:    method,
		Detail:    detail,
	}
	line, err := json.Marshal(event)
	if err != nil {
		log.Printf("[WARN] audit event marshal failed: %v", err)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		log.Printf("[WARN] audit write failed: %v", err)
	}
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
