// Package audit redacts sensitive parameters and appends JSON-lines audit
// entries, one file per UTC day.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Action is the kind of event an AuditEntry records.
type Action string

const (
	ActionRequest  Action = "request"
	ActionResponse Action = "response"
	ActionDenied   Action = "denied"
	ActionError    Action = "error"
)

// Entry is one audit record. Sensitive parameter values are redacted before
// the entry ever reaches a Sink.
type Entry struct {
	Tool       string         `json:"tool"`
	Action     Action         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	UserID     string         `json:"userId"`
	SessionID  string         `json:"sessionId"`
	Role       string         `json:"role"`
	Timestamp  time.Time      `json:"timestamp"`
	Success    *bool          `json:"success,omitempty"`
	DurationMs *int64         `json:"durationMs,omitempty"`
	ErrorType  string         `json:"errorType,omitempty"`
}

// Sink persists a single audit entry. Implementations must not mutate entry.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
	// Entries returns the entries recorded for the given UTC date (YYYY-MM-DD).
	Entries(ctx context.Context, date string) ([]Entry, error)
}

// Auditor is the kernel-facing audit component. When disabled, every method
// is a no-op and no directory or file is ever created.
type Auditor struct {
	enabled bool
	sink    Sink
	logger  func(format string, args ...any)
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithStderrLogger overrides where write-failure diagnostics are logged.
// Defaults to fmt.Fprintf(os.Stderr, ...).
func WithStderrLogger(logf func(format string, args ...any)) Option {
	return func(a *Auditor) { a.logger = logf }
}

// NewDisabled returns an Auditor whose methods are all no-ops.
func NewDisabled() *Auditor {
	return &Auditor{enabled: false}
}

// New returns an enabled Auditor backed by sink.
func New(sink Sink, opts ...Option) *Auditor {
	a := &Auditor{
		enabled: true,
		sink:    sink,
		logger:  func(format string, args ...any) { fmt.Fprintf(os.Stderr, format, args...) },
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Record redacts entry.Parameters and appends the entry to the sink. Audit
// failures are logged to stderr and never propagated — audit must never
// take down the call it is recording.
func (a *Auditor) Record(ctx context.Context, entry Entry) {
	if !a.enabled || a.sink == nil {
		return
	}
	entry.Parameters = Redact(entry.Parameters)
	if err := a.sink.Append(ctx, entry); err != nil {
		a.logger("audit: append failed for tool %q action %q: %v\n", entry.Tool, entry.Action, err)
	}
}

// Entries returns the recorded entries for date (UTC, YYYY-MM-DD). When date
// is empty, today's date (UTC) is used.
func (a *Auditor) Entries(ctx context.Context, date string) ([]Entry, error) {
	if !a.enabled || a.sink == nil {
		return nil, nil
	}
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	return a.sink.Entries(ctx, date)
}

// FileSink is the default Sink: one append-only JSON-lines file per UTC day
// under dir, named YYYY-MM-DD.jsonl.
type FileSink struct {
	dir string
	mu  sync.Mutex
}

// NewFileSink returns a FileSink rooted at dir. The directory is created
// lazily on first write, never at construction time.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Append writes entry as one newline-terminated JSON object, appended to the
// current UTC day's file. The write is a single append-mode write call, so
// it is atomic per line under POSIX semantics.
func (f *FileSink) Append(_ context.Context, entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return errors.Wrap(err, "audit: create directory")
	}
	path := f.pathFor(entry.Timestamp)
	line, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "audit: marshal entry")
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "audit: open file")
	}
	defer file.Close()
	if _, err := file.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "audit: write entry")
	}
	return nil
}

// Entries reads and parses every line of the file for date (YYYY-MM-DD).
func (f *FileSink) Entries(_ context.Context, date string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := filepath.Join(f.dir, date+".jsonl")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "audit: read file")
	}
	return parseLines(data)
}

func (f *FileSink) pathFor(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return filepath.Join(f.dir, ts.UTC().Format("2006-01-02")+".jsonl")
}

func parseLines(data []byte) ([]Entry, error) {
	var entries []Entry
	start := 0
	for i, b := range data {
		if b != '\n' {
			continue
		}
		line := data[start:i]
		start = i + 1
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, errors.Wrap(err, "audit: parse line")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MultiSink fans an entry out to several sinks, e.g. combining the default
// FileSink with an operator-supplied durable backend. Append returns the
// first error encountered but still attempts every sink.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink returns a Sink that fans out to every sink in sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Append writes entry to every configured sink.
func (m *MultiSink) Append(ctx context.Context, entry Entry) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Append(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Entries reads from the first configured sink.
func (m *MultiSink) Entries(ctx context.Context, date string) ([]Entry, error) {
	if len(m.sinks) == 0 {
		return nil, nil
	}
	return m.sinks[0].Entries(ctx, date)
}
