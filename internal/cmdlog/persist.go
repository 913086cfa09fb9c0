package cmdlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/skm/internal/logger"
)

// fileSink appends entries to a local file, one JSON object per line.
type fileSink struct {
	f *os.File
}

func (s *fileSink) write(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if _, err := s.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

func (s *fileSink) close() error {
	return s.f.Close()
}

// NewPersistent creates a log backed by a JSON-lines file so entries
// survive restarts. Previous entries within the cap are loaded back in.
// If the file cannot be opened the returned log is still usable in-memory
// and the error describes the persistence problem.
func NewPersistent(max int, path string, log logger.Logger) (*Log, error) {
	l := New(max, log)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return l, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return l, fmt.Errorf("open log file: %w", err)
	}

	// Reload the previous session's tail before new appends.
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			// A torn or hand-edited line is skipped, not fatal.
			l.log.Warn("command log: skipping unparseable line: %v", err)
			continue
		}
		l.mu.Lock()
		l.entries = append(l.entries, e)
		if len(l.entries) > l.max {
			l.entries = l.entries[len(l.entries)-l.max:]
		}
		l.mu.Unlock()
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return l, fmt.Errorf("read log file: %w", err)
	}

	l.mu.Lock()
	l.sink = &fileSink{f: f}
	l.mu.Unlock()
	return l, nil
}
