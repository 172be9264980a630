// Package source defines the capability the harvester pulls records from: a
// time-bounded, paginated search that yields records lazily.
package source

import (
	"context"
	"iter"
	"time"

	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/models"
)

// SortOrder is the order records are yielded in
type SortOrder int

const (
	// Descending yields the newest submissions first
	Descending SortOrder = iota
	Ascending
)

// Query is a single contiguous window [Start, End) with a result cap.
// Records come back sorted by submission time.
type Query struct {
	Start      time.Time
	End        time.Time
	MaxResults int
	Order      SortOrder
}

// PageSource yields the records matching q. Implementations page internally
// and stop at q.MaxResults. A yielded error ends the sequence: an
// empty_page error means the upstream returned an empty page where more
// results were expected; anything else is a retryable source failure.
type PageSource interface {
	Search(ctx context.Context, q Query) iter.Seq2[models.Record, error]
}

// EmptyPage builds the benign empty-page error
func EmptyPage(offset, total int) error {
	return errs.New(errs.ErrorTypeEmptyPage, "empty page at offset %d of %d", offset, total)
}

// IsEmptyPage reports whether err is the empty-page signal
func IsEmptyPage(err error) bool {
	return errs.Is(err, errs.ErrorTypeEmptyPage)
}
