package harvester

import (
	"context"
	"errors"
	"time"

	"paperharvest/internal/fetcher"
	"paperharvest/pkg/checkpoint"
	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/logger"
	"paperharvest/pkg/metrics"
	"paperharvest/pkg/ratelimit"
	"paperharvest/pkg/retry"
	"paperharvest/pkg/storage"
	"paperharvest/pkg/timeunit"
)

// UnitFetcher fetches all records of one unit
type UnitFetcher interface {
	FetchUnit(ctx context.Context, u timeunit.Unit) fetcher.Result
}

// Progress observes a run unit by unit
type Progress interface {
	UnitStarted(key string, index, total int)
	UnitFinished(key string, outcome string, records int, took time.Duration)
	Waiting(d time.Duration)
}

// RunOptions alter what a run writes besides checkpoints
type RunOptions struct {
	// Daily also refreshes latest.json
	Daily bool
}

// Harvester orchestrates checkpoint-aware fetching
type Harvester struct {
	store          checkpoint.Store
	fetcher        UnitFetcher
	artifacts      *storage.Manager
	politeness     *ratelimit.Politeness
	metrics        *metrics.Metrics
	progress       Progress
	refetchCorrupt bool
	now            func() time.Time
	logger         logger.Logger
}

// Option configures a Harvester
type Option func(*Harvester)

// WithPoliteness sets the delay taken after each fetched unit
func WithPoliteness(p *ratelimit.Politeness) Option {
	return func(h *Harvester) { h.politeness = p }
}

// WithMetrics records unit outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Harvester) { h.metrics = m }
}

// WithProgress reports each unit to p
func WithProgress(p Progress) Option {
	return func(h *Harvester) { h.progress = p }
}

// WithRefetchCorrupt re-fetches units whose checkpoint cannot be decoded.
// The corrupt checkpoint itself is never overwritten.
func WithRefetchCorrupt(on bool) Option {
	return func(h *Harvester) { h.refetchCorrupt = on }
}

// WithClock replaces the wall clock used to name artifacts
func WithClock(now func() time.Time) Option {
	return func(h *Harvester) { h.now = now }
}

// New creates a Harvester. artifacts may be nil, in which case no run
// artifacts are written.
func New(store checkpoint.Store, f UnitFetcher, artifacts *storage.Manager, log logger.Logger, opts ...Option) *Harvester {
	h := &Harvester{
		store:     store,
		fetcher:   f,
		artifacts: artifacts,
		now:       time.Now,
		logger:    logger.OrNop(log).WithField("component", "harvester"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes units in order. The returned Run is never nil. A non-nil
// error means the run aborted: storage became unavailable or ctx ended.
// In that case the aggregate has been written to an emergency artifact.
func (h *Harvester) Run(ctx context.Context, units []timeunit.Unit, opts RunOptions) (*Run, error) {
	run := newRun(h.now())

	h.logger.InfoWithFields("Starting harvest run", map[string]interface{}{
		"units": len(units),
		"first": firstKey(units),
		"last":  lastKey(units),
		"daily": opts.Daily,
	})

	for i, u := range units {
		if err := ctx.Err(); err != nil {
			return h.abort(run, err)
		}

		if h.progress != nil {
			h.progress.UnitStarted(u.Key(), i+1, len(units))
		}

		ur, err := h.processUnit(ctx, u)
		run.add(ur)
		h.report(ur)
		if err != nil {
			return h.abort(run, err)
		}

		if i < len(units)-1 && (ur.Outcome == Fetched || ur.Outcome == FetchedEmpty) {
			if err := h.pause(ctx); err != nil {
				return h.abort(run, err)
			}
		}
	}

	if err := h.writeArtifacts(run, len(units), opts); err != nil {
		return h.abort(run, err)
	}

	run.Finished = h.now()
	h.metrics.MarkSuccess(run.Finished)
	h.logSummary(run, nil)
	return run, nil
}

// processUnit resolves one unit. A returned error aborts the run.
func (h *Harvester) processUnit(ctx context.Context, u timeunit.Unit) (UnitResult, error) {
	key := u.Key()
	log := h.logger.WithField("unit", key)

	exists, err := h.store.Exists(ctx, key)
	if err != nil {
		return h.storeFailure(ctx, u, err)
	}

	corrupt := false
	if exists {
		records, err := h.store.Read(ctx, key)
		switch {
		case err == nil:
			return UnitResult{Unit: u, Outcome: SkippedCached, Records: records}, nil
		case errs.Is(err, errs.ErrorTypeCorruptCheckpoint):
			log.WithError(err).Error("Checkpoint is corrupt, leaving it for inspection")
			if !h.refetchCorrupt {
				return UnitResult{Unit: u, Outcome: SkippedCorrupt, Records: nil, Err: err}, nil
			}
			corrupt = true
		case errors.Is(err, checkpoint.ErrNotFound):
			// invalidated between Exists and Read
		default:
			return h.storeFailure(ctx, u, err)
		}
	}

	res := h.fetcher.FetchUnit(ctx, u)
	ur := UnitResult{
		Unit:     u,
		Records:  res.Records,
		Attempts: res.Attempts,
		Duration: res.Duration,
		Err:      res.Err,
	}

	switch {
	case res.Interrupted():
		ur.Outcome = Interrupted
		return ur, res.Err
	case res.Err != nil && errs.IsFatal(res.Err):
		ur.Outcome = FailedAfterRetry
		return ur, res.Err
	case res.Err != nil:
		ur.Outcome = FailedAfterRetry
	case len(res.Records) == 0:
		ur.Outcome = FetchedEmpty
	default:
		ur.Outcome = Fetched
	}

	if corrupt {
		log.Warn("Re-fetched unit with corrupt checkpoint; checkpoint not replaced")
		return ur, nil
	}

	// a unit that exhausted its retries is checkpointed with what it got
	if err := h.store.Write(ctx, key, res.Records); err != nil {
		if !errs.IsFatal(err) {
			err = errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "write checkpoint %s", key)
		}
		ur.Err = errors.Join(ur.Err, err)
		return ur, err
	}
	ur.Checkpointed = true
	return ur, nil
}

func (h *Harvester) storeFailure(ctx context.Context, u timeunit.Unit, err error) (UnitResult, error) {
	if ctx.Err() != nil {
		return UnitResult{Unit: u, Outcome: Interrupted, Err: ctx.Err()}, ctx.Err()
	}
	if !errs.IsFatal(err) {
		err = errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "checkpoint store")
	}
	return UnitResult{Unit: u, Outcome: FailedAfterRetry, Err: err}, err
}

func (h *Harvester) report(ur UnitResult) {
	fields := map[string]interface{}{
		"unit":     ur.Unit.Key(),
		"outcome":  string(ur.Outcome),
		"records":  len(ur.Records),
		"attempts": ur.Attempts,
	}
	if ur.Duration > 0 {
		fields["duration"] = ur.Duration.String()
	}

	switch ur.Outcome {
	case FailedAfterRetry, SkippedCorrupt, Interrupted:
		log := h.logger
		if ur.Err != nil {
			log = log.WithError(ur.Err)
		}
		log.WarnWithFields("Unit finished", fields)
	default:
		h.logger.InfoWithFields("Unit finished", fields)
	}

	fetched := 0
	if ur.Outcome != SkippedCached {
		fetched = len(ur.Records)
	}
	h.metrics.ObserveUnit(string(ur.Outcome), fetched, ur.Duration)

	if h.progress != nil {
		h.progress.UnitFinished(ur.Unit.Key(), string(ur.Outcome), len(ur.Records), ur.Duration)
	}
}

func (h *Harvester) pause(ctx context.Context) error {
	if h.politeness == nil {
		return ctx.Err()
	}
	d := h.politeness.Next()
	if h.progress != nil {
		h.progress.Waiting(d)
	}
	return retry.Wait(ctx, d)
}

func (h *Harvester) writeArtifacts(run *Run, units int, opts RunOptions) error {
	if h.artifacts == nil {
		return nil
	}
	if units > 1 {
		path, err := h.artifacts.WriteCombined(run.Started, run.Records)
		if err != nil {
			return errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "write combined artifact")
		}
		run.CombinedPath = path
	}
	if opts.Daily {
		path, err := h.artifacts.WriteLatest(run.Records)
		if err != nil {
			return errs.Wrap(errs.ErrorTypeStorageUnavailable, err, "write latest artifact")
		}
		run.LatestPath = path
	}
	return nil
}

// abort persists the aggregate and returns cause
func (h *Harvester) abort(run *Run, cause error) (*Run, error) {
	run.Finished = h.now()

	if h.artifacts != nil {
		path, err := h.artifacts.WriteEmergency(run.Started, run.Records)
		if err != nil {
			h.logger.WithError(err).Error("Emergency persistence failed")
			cause = errors.Join(cause, err)
		} else {
			run.EmergencyPath = path
			h.logger.WarnWithFields("Aggregate saved to emergency artifact", map[string]interface{}{
				"path":    path,
				"records": len(run.Records),
			})
		}
	}

	h.logSummary(run, cause)
	return run, cause
}

func (h *Harvester) logSummary(run *Run, cause error) {
	fields := map[string]interface{}{
		"summary":  run.Summary(),
		"units":    len(run.Units),
		"records":  len(run.Records),
		"duration": run.Finished.Sub(run.Started).String(),
	}
	if failed := run.Keys(FailedAfterRetry); len(failed) > 0 {
		fields["failed"] = failed
	}
	if skipped := run.Keys(SkippedCached, SkippedCorrupt); len(skipped) > 0 {
		fields["skipped"] = len(skipped)
	}
	if cause != nil {
		h.logger.WithError(cause).ErrorWithFields("Harvest run aborted", fields)
		return
	}
	h.logger.InfoWithFields("Harvest run complete", fields)
}

func firstKey(units []timeunit.Unit) string {
	if len(units) == 0 {
		return ""
	}
	return units[0].Key()
}

func lastKey(units []timeunit.Unit) string {
	if len(units) == 0 {
		return ""
	}
	return units[len(units)-1].Key()
}
