package harvester

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"paperharvest/pkg/models"
	"paperharvest/pkg/timeunit"
)

// Outcome is the final state of one unit within a run
type Outcome string

const (
	SkippedCached    Outcome = "skipped_cached"
	Fetched          Outcome = "fetched"
	FetchedEmpty     Outcome = "fetched_empty"
	SkippedCorrupt   Outcome = "skipped_corrupt"
	FailedAfterRetry Outcome = "failed_after_retry"
	Interrupted      Outcome = "interrupted"
)

// Outcomes lists every outcome in reporting order
var Outcomes = []Outcome{SkippedCached, Fetched, FetchedEmpty, SkippedCorrupt, FailedAfterRetry, Interrupted}

// UnitResult records what happened to one unit
type UnitResult struct {
	Unit     timeunit.Unit
	Outcome  Outcome
	Records  []models.Record
	Attempts int
	Duration time.Duration
	// Checkpointed is true when this run wrote the unit's checkpoint
	Checkpointed bool
	Err          error
}

// Run is the aggregate of one invocation
type Run struct {
	Started  time.Time
	Finished time.Time

	// Units holds one result per processed unit, in unit order
	Units []UnitResult
	// Records is the concatenation of the units' records in unit order
	Records []models.Record

	CombinedPath  string
	LatestPath    string
	EmergencyPath string

	counts map[Outcome]int
}

func newRun(started time.Time) *Run {
	return &Run{
		Started: started,
		Records: []models.Record{},
		counts:  make(map[Outcome]int),
	}
}

func (r *Run) add(ur UnitResult) {
	r.Units = append(r.Units, ur)
	r.Records = append(r.Records, ur.Records...)
	r.counts[ur.Outcome]++
}

// Count returns how many units ended with outcome o
func (r *Run) Count(o Outcome) int {
	return r.counts[o]
}

// Keys returns the keys of units that ended with any of the given outcomes
func (r *Run) Keys(outcomes ...Outcome) []string {
	var keys []string
	for _, u := range r.Units {
		for _, o := range outcomes {
			if u.Outcome == o {
				keys = append(keys, u.Unit.Key())
				break
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Summary renders the outcome counts, e.g. "fetched=2 skipped_cached=1"
func (r *Run) Summary() string {
	parts := make([]string, 0, len(Outcomes))
	for _, o := range Outcomes {
		if n := r.counts[o]; n > 0 {
			parts = append(parts, string(o)+"="+strconv.Itoa(n))
		}
	}
	if len(parts) == 0 {
		return "no units"
	}
	return strings.Join(parts, " ")
}
