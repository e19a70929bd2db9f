// Package totd persists the track-of-the-day record between requests.
package totd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is the single cached artifact. The payload belongs to the data
// provider; the store only ever looks at EndTimestamp.
type Record struct {
	// EndTimestamp is the epoch second at which this record stops being
	// valid. A record is stale once EndTimestamp < now.
	EndTimestamp int64           `json:"endTimestamp"`
	Payload      json.RawMessage `json:"payload"`
}

// Stale reports whether the record's validity window has passed.
func (r Record) Stale(now time.Time) bool {
	return r.EndTimestamp < now.Unix()
}

// RecomputeFunc produces a replacement record when the stored one is stale.
type RecomputeFunc func(ctx context.Context) (Record, error)

// Store is a file-backed single-record cache. The mutex serializes the whole
// read-check-recompute-write sequence, so at most one caller recomputes at a
// time; the daily job and the command path share one Store instance.
type Store struct {
	path string
	mu   sync.Mutex

	now func() time.Time
}

func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// GetFresh returns the stored record, recomputing and rewriting it first if
// it has gone stale. The freshly written file is read back and returned
// rather than trusting the in-memory value.
func (s *Store) GetFresh(ctx context.Context, recompute RecomputeFunc) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil && !os.IsNotExist(err) {
		return Record{}, err
	}
	if err == nil && !rec.Stale(s.now()) {
		return rec, nil
	}

	fresh, err := recompute(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("recompute totd: %w", err)
	}
	if err := s.write(fresh); err != nil {
		return Record{}, err
	}
	return s.read()
}

// Load returns the stored record without any freshness handling.
func (s *Store) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("read totd cache: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse totd cache: %w", err)
	}
	return rec, nil
}

// write replaces the file wholesale via tmp+rename so a crash mid-write
// never leaves a torn record behind.
func (s *Store) write(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode totd cache: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write totd cache: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write totd cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write totd cache: %w", err)
	}
	return nil
}
