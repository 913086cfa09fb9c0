// Package cmdlog keeps the ordered, append-only record of every
// orchestrated action and its outcome. Append never fails: a persistence
// problem is logged as a warning while the in-memory entry is kept.
package cmdlog

import (
	"sync"
	"time"

	"github.com/rileyhilliard/skm/internal/logger"
)

// Action enumerates the orchestrated operations.
type Action string

const (
	ActionCreate      Action = "create"
	ActionDelete      Action = "delete"
	ActionAgentAdd    Action = "agent-add"
	ActionAgentRemove Action = "agent-remove"
	ActionView        Action = "view"
	ActionCopy        Action = "copy"
)

// Outcome is the result of an action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// MaxRawOutput bounds the captured external-command output per entry.
const MaxRawOutput = 4096

// Entry is one immutable record of an executed action.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Target    string    `json:"target"`
	Outcome   Outcome   `json:"outcome"`
	Message   string    `json:"message,omitempty"`
	RawOutput string    `json:"raw_output,omitempty"`
}

// Failed reports whether the entry records a failure.
func (e Entry) Failed() bool {
	return e.Outcome == OutcomeFailure
}

// Log is a bounded, ordered command log. The orchestrator is the only
// appender; the TUI reads snapshots concurrently, hence the mutex.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	max     int
	sink    *fileSink
	log     logger.Logger
}

// New creates an in-memory log holding at most max entries; the oldest are
// dropped when the cap is reached.
func New(max int, log logger.Logger) *Log {
	if log == nil {
		log = logger.Noop()
	}
	if max < 1 {
		max = 1
	}
	return &Log{max: max, log: log}
}

// Append records an entry, truncating its raw output to MaxRawOutput and
// evicting the oldest entry when over capacity. It never fails; if a
// persistence sink is attached and rejects the write, a warning is logged
// and the in-memory entry stands.
func (l *Log) Append(e Entry) {
	if len(e.RawOutput) > MaxRawOutput {
		e.RawOutput = e.RawOutput[:MaxRawOutput]
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		if err := sink.write(e); err != nil {
			l.log.Warn("command log persistence: %v", err)
		}
	}
}

// Tail returns the most recent n entries, oldest first. n larger than the
// log returns everything; n below zero returns nothing.
func (l *Log) Tail(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Find returns entries matching pred, oldest first.
func (l *Log) Find(pred func(Entry) bool) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close releases the persistence sink, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	sink := l.sink
	l.sink = nil
	l.mu.Unlock()
	if sink == nil {
		return nil
	}
	return sink.close()
}
