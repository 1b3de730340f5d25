// Package chainlog keeps an append-only JSON Lines audit trail of data handling actions.
package chainlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultPath = "data/chainlog.jsonl"

// Actions recorded by the service.
const (
	ActionIngest      = "ingest"
	ActionAnalyze     = "analyze"
	ActionReviewAlert = "review_alert"
)

// Entry is a single audit record.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Target    string         `json:"target"`
	SHA256    *string        `json:"sha256"`
	Meta      map[string]any `json:"meta"`
}

// Log appends entries to a JSON Lines file. It is safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewLog opens the log at CHAINLOG_PATH, or data/chainlog.jsonl when unset.
func NewLog() (*Log, error) {
	path := os.Getenv("CHAINLOG_PATH")
	if path == "" {
		path = defaultPath
	}
	return Open(path)
}

// Open prepares a log at path, creating parent directories as needed.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chainlog directory: %w", err)
	}
	slog.Info("chainlog initialized", "path", path)
	return &Log{path: path, now: time.Now}, nil
}

// Append fills in the entry's ID and timestamp and writes it as one line.
func (l *Log) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal chainlog entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open chainlog: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append chainlog entry: %w", err)
	}
	return nil
}

// Entries returns every entry in write order. Malformed lines are skipped.
func (l *Log) Entries(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := []Entry{}
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open chainlog: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNum++
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			slog.Warn("skipping malformed chainlog line", "line", lineNum, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chainlog: %w", err)
	}
	return entries, nil
}

// Digest is a helper for Entry.SHA256 fields.
func Digest(hexSum string) *string {
	if hexSum == "" {
		return nil
	}
	return &hexSum
}
