package source

import (
	"context"
	"iter"
	"sort"
	"sync"

	"paperharvest/pkg/models"
)

// Memory is a PageSource over an in-memory record set. It is used to
// re-partition existing artifacts into checkpoints and as a test double.
type Memory struct {
	mu      sync.Mutex
	records []models.Record
	calls   int

	// FailWith, if set, is consulted on every Search; a non-nil error is
	// yielded after the first AfterRecords matching records.
	FailWith     func(q Query, call int) error
	AfterRecords int
}

// NewMemory creates a source over records
func NewMemory(records []models.Record) *Memory {
	return &Memory{records: append([]models.Record(nil), records...)}
}

// Calls returns how many searches have been started
func (m *Memory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Search yields the records published inside the window, ordered by
// publication time and capped at q.MaxResults.
func (m *Memory) Search(ctx context.Context, q Query) iter.Seq2[models.Record, error] {
	return func(yield func(models.Record, error) bool) {
		m.mu.Lock()
		m.calls++
		call := m.calls
		var matched []models.Record
		for _, r := range m.records {
			if !r.Published.Before(q.Start) && r.Published.Before(q.End) {
				matched = append(matched, r)
			}
		}
		m.mu.Unlock()

		sort.SliceStable(matched, func(i, j int) bool {
			if q.Order == Ascending {
				return matched[i].Published.Before(matched[j].Published)
			}
			return matched[i].Published.After(matched[j].Published)
		})
		if q.MaxResults > 0 && len(matched) > q.MaxResults {
			matched = matched[:q.MaxResults]
		}

		var failure error
		if m.FailWith != nil {
			failure = m.FailWith(q, call)
		}

		for i, r := range matched {
			if failure != nil && i == m.AfterRecords {
				yield(models.Record{}, failure)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(models.Record{}, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
		if failure != nil {
			yield(models.Record{}, failure)
		}
	}
}
