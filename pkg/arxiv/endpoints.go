package arxiv

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the arXiv query API endpoint
	DefaultBaseURL = "http://export.arxiv.org/api/query"

	// DefaultPageSize is the number of entries requested per page
	DefaultPageSize = 100

	// MaxPageSize is the largest page the API serves in one response
	MaxPageSize = 2000

	// windowLayout is the timestamp format of submittedDate ranges
	windowLayout = "200601021504"
)

// SubmittedDateQuery builds the search_query for the half-open window
// [start, end). The API range is inclusive at minute resolution, so the
// upper bound is the last minute before end.
func SubmittedDateQuery(start, end time.Time) string {
	last := end.UTC().Add(-time.Minute)
	if last.Before(start.UTC()) {
		last = start.UTC()
	}
	return fmt.Sprintf("submittedDate:[%s TO %s]", start.UTC().Format(windowLayout), last.Format(windowLayout))
}

// PageURL constructs the URL for one page of a submittedDate window,
// newest submissions first.
func PageURL(baseURL string, start, end time.Time, offset, size int, ascending bool) string {
	if size <= 0 {
		size = DefaultPageSize
	} else if size > MaxPageSize {
		size = MaxPageSize
	}

	order := "descending"
	if ascending {
		order = "ascending"
	}

	params := url.Values{}
	params.Set("search_query", SubmittedDateQuery(start, end))
	params.Set("start", strconv.Itoa(offset))
	params.Set("max_results", strconv.Itoa(size))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", order)

	return baseURL + "?" + params.Encode()
}
