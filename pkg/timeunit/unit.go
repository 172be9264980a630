// Package timeunit models the half-open time windows a harvest is split into
// and resolves user intent (today, last N days, explicit range) into an
// ordered list of them.
package timeunit

import (
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the date format of unit keys. A day unit's key is its date; a
// chunk's key is its first and last day joined by ChunkKeySep.
const KeyLayout = "2006-01-02"

// ChunkKeySep separates the first and last day of a chunk key.
const ChunkKeySep = "_"

// Granularity selects how wide each unit is.
type Granularity int

const (
	// Day units span exactly one calendar day
	Day Granularity = iota
	// Chunk units span several days
	Chunk
)

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Chunk:
		return "chunk"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity parses "day" or "chunk"
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "day", "":
		return Day, nil
	case "chunk":
		return Chunk, nil
	default:
		return Day, fmt.Errorf("unknown granularity %q", s)
	}
}

// Unit is an immutable half-open interval [Start, End) in UTC, aligned to
// midnight.
type Unit struct {
	start time.Time
	end   time.Time
	gran  Granularity
}

// Midnight truncates t to 00:00 UTC of its calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayOf returns the day unit containing t.
func DayOf(t time.Time) Unit {
	start := Midnight(t)
	return Unit{start: start, end: start.AddDate(0, 0, 1), gran: Day}
}

// NewChunk returns a unit of the given number of days starting at start's
// date. A one-day chunk is a day unit.
func NewChunk(start time.Time, days int) Unit {
	if days <= 1 {
		return DayOf(start)
	}
	s := Midnight(start)
	return Unit{start: s, end: s.AddDate(0, 0, days), gran: Chunk}
}

// ParseKey parses a canonical key back into its unit: YYYY-MM-DD for a day,
// YYYY-MM-DD_YYYY-MM-DD (inclusive) for a chunk.
func ParseKey(key string) (Unit, error) {
	first, last, ranged := strings.Cut(key, ChunkKeySep)
	start, err := time.Parse(KeyLayout, first)
	if err != nil {
		return Unit{}, fmt.Errorf("invalid unit key %q: %w", key, err)
	}
	if !ranged {
		return DayOf(start), nil
	}
	end, err := time.Parse(KeyLayout, last)
	if err != nil {
		return Unit{}, fmt.Errorf("invalid unit key %q: %w", key, err)
	}
	if !end.After(start) {
		return Unit{}, fmt.Errorf("invalid unit key %q: a chunk spans at least two days", key)
	}
	return NewChunk(start, int(end.Sub(start).Hours()/24)+1), nil
}

func (u Unit) Start() time.Time         { return u.start }
func (u Unit) End() time.Time           { return u.end }
func (u Unit) Granularity() Granularity { return u.gran }

// Key identifies the unit in a checkpoint store. Chunks include their last
// day so chunks of different widths starting on the same date never collide.
func (u Unit) Key() string {
	if u.gran == Chunk {
		return u.start.Format(KeyLayout) + ChunkKeySep + u.lastDay().Format(KeyLayout)
	}
	return u.start.Format(KeyLayout)
}

func (u Unit) lastDay() time.Time { return u.end.AddDate(0, 0, -1) }

// Days is the number of calendar days the unit spans.
func (u Unit) Days() int {
	return int(u.end.Sub(u.start).Hours() / 24)
}

// Contains reports whether t falls inside [Start, End).
func (u Unit) Contains(t time.Time) bool {
	return !t.Before(u.start) && t.Before(u.end)
}

// IsZero reports whether u is the zero Unit.
func (u Unit) IsZero() bool { return u.start.IsZero() && u.end.IsZero() }

func (u Unit) String() string {
	if u.gran == Day {
		return u.Key()
	}
	return fmt.Sprintf("%s..%s", u.start.Format(KeyLayout), u.lastDay().Format(KeyLayout))
}

// Keys returns the keys of units in order.
func Keys(units []Unit) []string {
	keys := make([]string, len(units))
	for i, u := range units {
		keys[i] = u.Key()
	}
	return keys
}
