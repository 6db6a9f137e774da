// Package ledger implements the Evidence Ledger & Audit Pipeline (ELAP),
// spec.md §4.2: an append-only record of every decision plus its full
// forensic audit context, with optional structured on-disk log streams.
//
// The process-wide log-path state follows the re-architecture guidance in
// spec.md §9: a single owned configuration value guarded by a lock,
// settable at start-of-run and read at every emission. No lock is held
// across I/O, so configuring a new path concurrently with an in-flight
// write never deadlocks — ordering between the two is explicitly
// unspecified (spec.md §5).
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fnproof/kernel/pkg/fnerr"
)

// LogSink is an optional JSON-lines sink bound to one environment
// variable; each NewLogSink call returns an independent instance. The
// Ledger is its only writer: the shape/stride and dtype-promotion suite
// drivers emit no log lines, so a sink configured for either of them
// receives only the ledger's decision events, if any.
type LogSink struct {
	mu     sync.Mutex
	path   string
	envVar string
	set    bool
}

// NewLogSink creates a sink that falls back to envVar when no programmatic
// path has been set.
func NewLogSink(envVar string) *LogSink {
	return &LogSink{envVar: envVar}
}

// SetPath programmatically configures the sink path. Programmatic
// configuration always wins over the environment variable (spec.md §4.2).
func (s *LogSink) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.set = true
}

// Path resolves the effective sink path: the programmatic value if set,
// otherwise the environment variable, otherwise empty (disabled).
func (s *LogSink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		return s.path
	}
	return os.Getenv(s.envVar)
}

// Enabled reports whether a sink path is currently configured.
func (s *LogSink) Enabled() bool {
	return s.Path() != ""
}

// WriteLine serializes v as a single JSON object and appends it as one
// line to the configured path, creating parent directories if needed. No
// lock is held during the write itself, only while reading the path
// (spec.md §5: "No lock is held across I/O to avoid deadlocks").
func (s *LogSink) WriteLine(v any) error {
	path := s.Path()
	if path == "" {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fnerr.NewInfraError(path, fmt.Errorf("marshal log line: %w", err))
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fnerr.NewInfraError(path, fmt.Errorf("create log dir: %w", err))
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fnerr.NewInfraError(path, fmt.Errorf("open log file: %w", err))
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fnerr.NewInfraError(path, fmt.Errorf("write log line: %w", err))
	}
	return nil
}
