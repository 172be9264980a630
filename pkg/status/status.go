// Package status derives coverage summaries from a checkpoint store. The
// summaries are recomputable at any time and are never consulted to decide
// whether a unit is done.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"paperharvest/pkg/checkpoint"
	"paperharvest/pkg/storage"
	"paperharvest/pkg/timeunit"
)

// ErrNoCheckpoints is returned when there is nothing to summarize
var ErrNoCheckpoints = errors.New("no checkpoints found")

// Summary describes the checkpointed days
type Summary struct {
	Earliest string   `json:"earliest"`
	Latest   string   `json:"latest"`
	Count    int      `json:"count"`
	Keys     []string `json:"-"`
}

// RangeDays is the number of calendar days from Earliest to Latest inclusive
func (s Summary) RangeDays() int {
	if s.Count == 0 {
		return 0
	}
	first, err1 := timeunit.ParseKey(s.Earliest)
	last, err2 := timeunit.ParseKey(s.Latest)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(last.Start().Sub(first.Start()).Hours()/24) + 1
}

// Missing is the number of days inside the range without a checkpoint
func (s Summary) Missing() int {
	return s.RangeDays() - s.Count
}

// Compute scans the store's keys
func Compute(ctx context.Context, store checkpoint.Store) (Summary, error) {
	keys, err := store.ListKeys(ctx)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Count: len(keys), Keys: keys}
	if len(keys) > 0 {
		s.Earliest = keys[0]
		s.Latest = keys[len(keys)-1]
	}
	return s, nil
}

// File is the persisted status document
type File struct {
	EarliestScraped string    `json:"earliest_scraped"`
	LatestScraped   string    `json:"latest_scraped"`
	LastUpdated     time.Time `json:"last_updated"`
	TotalFiles      int       `json:"total_files"`
}

// LoadFile reads a status document; a missing file yields nil
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode status file %s: %w", path, err)
	}
	return &f, nil
}

// Merge folds s into an existing document. Recorded extremes only widen.
func Merge(existing *File, s Summary, now time.Time) File {
	f := File{
		EarliestScraped: s.Earliest,
		LatestScraped:   s.Latest,
	}
	if existing != nil {
		if existing.EarliestScraped != "" && existing.EarliestScraped < f.EarliestScraped {
			f.EarliestScraped = existing.EarliestScraped
		}
		if existing.LatestScraped > f.LatestScraped {
			f.LatestScraped = existing.LatestScraped
		}
	}
	f.LastUpdated = now.UTC()
	f.TotalFiles = s.Count
	return f
}

// SaveFile merges s into the document at path and writes it atomically
func SaveFile(path string, s Summary, now time.Time) (File, error) {
	if s.Count == 0 {
		return File{}, ErrNoCheckpoints
	}
	existing, err := LoadFile(path)
	if err != nil {
		return File{}, err
	}
	f := Merge(existing, s, now)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("failed to encode status: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return File{}, fmt.Errorf("failed to create status directory: %w", err)
		}
	}
	if err := storage.WriteFileAtomic(path, data, 0644); err != nil {
		return File{}, err
	}
	return f, nil
}
