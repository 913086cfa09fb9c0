// Package keystore maintains the authoritative in-memory model of SSH key
// pairs discovered in the configured key directory. The orchestrator is the
// only writer; the TUI and CLI read snapshots.
package keystore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/rileyhilliard/skm/internal/logger"
)

// ErrNotFound is returned when a requested key path is not in the store.
var ErrNotFound = errors.New(errors.ErrStore,
	"Key not found in store",
	"Run a refresh, or check the key name with 'skm list'")

// nonKeyFiles are well-known ~/.ssh files that are never key material.
var nonKeyFiles = map[string]bool{
	"config":           true,
	"known_hosts":      true,
	"known_hosts.old":  true,
	"authorized_keys":  true,
	"authorized_keys2": true,
	"environment":      true,
}

// Store holds the set of KeyRecords discovered in a key directory.
type Store struct {
	dir     string
	log     logger.Logger
	records map[string]*KeyRecord

	// extras are regular files in the key directory that are not part of
	// a key pair (config, known_hosts, orphaned halves). Kept for display.
	extras []string

	// warnings collects per-file scan problems from the last refresh.
	warnings []string
}

// New creates an empty store over the given key directory.
func New(dir string, log logger.Logger) *Store {
	if log == nil {
		log = logger.Noop()
	}
	return &Store{
		dir:     dir,
		log:     log,
		records: make(map[string]*KeyRecord),
	}
}

// Dir returns the key directory this store scans.
func (s *Store) Dir() string {
	return s.dir
}

// Refresh rescans the key directory and rebuilds the record set. A record is
// a private key file paired with a ".pub" neighbor. Unreadable entries are
// skipped with a warning; an unreadable directory is a scan error.
func (s *Store) Refresh() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrScan,
			"Cannot read key directory: "+s.dir,
			"Check that the directory exists and you have permission to read it")
	}

	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names[entry.Name()] = true
	}

	hostIndex := identityFileHosts(filepath.Join(s.dir, "config"))

	records := make(map[string]*KeyRecord)
	extras := []string{}
	warnings := []string{}

	for name := range names {
		if strings.HasSuffix(name, PublicKeySuffix) {
			// Public halves are folded into their private pair; an
			// orphan .pub is just a file.
			if !names[strings.TrimSuffix(name, PublicKeySuffix)] {
				extras = append(extras, name)
			}
			continue
		}
		if nonKeyFiles[name] || !names[name+PublicKeySuffix] {
			extras = append(extras, name)
			continue
		}

		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); err != nil {
			// Private file vanished or unreadable: the pair is invalid
			// and must not enter the store.
			warnings = append(warnings, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		rec, err := newRecord(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", name, err))
			extras = append(extras, name)
			continue
		}

		// Carry the derived agent flag across refreshes; the orchestrator
		// re-derives it from the agent listing afterwards.
		if prev, ok := s.records[path]; ok {
			rec.LoadedInAgent = prev.LoadedInAgent
		}
		rec.Hosts = hostIndex[path]
		records[path] = rec
	}

	sort.Strings(extras)
	for _, w := range warnings {
		s.log.Warn("scan: %s", w)
	}

	s.records = records
	s.extras = extras
	s.warnings = warnings
	return nil
}

// Get returns the record for a private key path, or ErrNotFound.
func (s *Store) Get(path string) (*KeyRecord, error) {
	rec, ok := s.records[path]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// GetByName resolves a key by file name within the key directory.
func (s *Store) GetByName(name string) (*KeyRecord, error) {
	return s.Get(filepath.Join(s.dir, name))
}

// Insert adds or replaces a record. Used by the orchestrator after a
// successful create.
func (s *Store) Insert(rec *KeyRecord) {
	s.records[rec.Path] = rec
}

// Remove deletes the record for path. Returns ErrNotFound if absent.
func (s *Store) Remove(path string) error {
	if _, ok := s.records[path]; !ok {
		return ErrNotFound
	}
	delete(s.records, path)
	return nil
}

// Len returns the number of key pairs in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns the key pairs sorted by name. The slice is a fresh copy;
// the pointed-to records are shared and must be treated as read-only by
// callers outside the orchestrator.
func (s *Store) Records() []*KeyRecord {
	out := make([]*KeyRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Extras returns non-pair files from the last scan, sorted by name.
func (s *Store) Extras() []string {
	return append([]string(nil), s.extras...)
}

// Warnings returns per-file problems from the last scan.
func (s *Store) Warnings() []string {
	return append([]string(nil), s.warnings...)
}
