package timeunit

import (
	"time"

	errs "paperharvest/pkg/errors"
)

// Mode is the kind of harvest intent.
type Mode int

const (
	// ModeDaily harvests today only. It is the zero value.
	ModeDaily Mode = iota
	// ModeDays harvests the last N days ending today.
	ModeDays
	// ModeRange harvests an explicit inclusive date range.
	ModeRange
)

func (m Mode) String() string {
	switch m {
	case ModeDays:
		return "days"
	case ModeRange:
		return "range"
	default:
		return "daily"
	}
}

// Intent is a high-level description of which dates to harvest.
type Intent struct {
	Mode  Mode
	Days  int
	Start time.Time
	End   time.Time

	// ChunkDays > 1 groups the resolved days into multi-day chunks
	ChunkDays int
}

// Daily returns the today-only intent.
func Daily() Intent { return Intent{Mode: ModeDaily} }

// LastDays returns the intent for the n days ending today.
func LastDays(n int) Intent { return Intent{Mode: ModeDays, Days: n} }

// Between returns the intent for the inclusive range [start, end].
func Between(start, end time.Time) Intent {
	return Intent{Mode: ModeRange, Start: start, End: end}
}

// Resolver turns intents into unit sequences relative to a clock.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a resolver using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{Now: time.Now}
}

func (r *Resolver) today() time.Time {
	now := time.Now
	if r != nil && r.Now != nil {
		now = r.Now
	}
	return Midnight(now())
}

// Resolve maps intent to an ascending, non-overlapping unit sequence. It
// fails with an invalid_range error if N <= 0 or end is before start.
func (r *Resolver) Resolve(intent Intent) ([]Unit, error) {
	today := r.today()

	var first, last time.Time
	switch intent.Mode {
	case ModeDaily:
		first, last = today, today
	case ModeDays:
		if intent.Days <= 0 {
			return nil, errs.New(errs.ErrorTypeInvalidRange, "days must be positive, got %d", intent.Days)
		}
		first, last = today.AddDate(0, 0, -(intent.Days - 1)), today
	case ModeRange:
		if intent.Start.IsZero() || intent.End.IsZero() {
			return nil, errs.New(errs.ErrorTypeInvalidRange, "range needs both start and end")
		}
		first, last = Midnight(intent.Start), Midnight(intent.End)
		if last.Before(first) {
			return nil, errs.New(errs.ErrorTypeInvalidRange, "end %s is before start %s",
				last.Format(KeyLayout), first.Format(KeyLayout))
		}
	default:
		return nil, errs.New(errs.ErrorTypeInvalidRange, "unknown intent mode %d", intent.Mode)
	}

	if intent.ChunkDays < 0 {
		return nil, errs.New(errs.ErrorTypeInvalidRange, "chunk size must not be negative, got %d", intent.ChunkDays)
	}
	return Span(first, last, intent.ChunkDays), nil
}

// Span splits the inclusive day range [first, last] into units of chunkDays
// days (day units when chunkDays <= 1). The final chunk is shortened so no
// unit extends past last.
func Span(first, last time.Time, chunkDays int) []Unit {
	first, last = Midnight(first), Midnight(last)
	if last.Before(first) {
		return nil
	}
	stop := last.AddDate(0, 0, 1)

	var units []Unit
	for cur := first; cur.Before(stop); {
		if chunkDays <= 1 {
			units = append(units, DayOf(cur))
			cur = cur.AddDate(0, 0, 1)
			continue
		}
		n := chunkDays
		if remaining := int(stop.Sub(cur).Hours() / 24); remaining < n {
			n = remaining
		}
		u := NewChunk(cur, n)
		units = append(units, u)
		cur = u.end
	}
	return units
}
