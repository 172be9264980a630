package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"paperharvest/internal/fetcher"
	"paperharvest/pkg/arxiv"
	"paperharvest/pkg/checkpoint"
	"paperharvest/pkg/config"
	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/harvester"
	"paperharvest/pkg/logger"
	"paperharvest/pkg/metrics"
	"paperharvest/pkg/models"
	"paperharvest/pkg/ratelimit"
	"paperharvest/pkg/retry"
	"paperharvest/pkg/scanner"
	"paperharvest/pkg/source"
	"paperharvest/pkg/storage"
	"paperharvest/pkg/timeunit"
	"paperharvest/pkg/ui"
)

var (
	// Harvest command flags
	daily     bool
	lastDays  int
	startDate string
	endDate   string
	chunkDays int
	backfill  bool
	horizon   int
	maxUnits  int
	fromFile  string
	storeKind string
)

// harvestCmd represents the harvest command
var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest arXiv submissions into per-unit checkpoints",
	Long: `Harvest arXiv submissions for a set of days.

Exactly one of --daily, --days, --start/--end or --backfill selects the dates;
with none of them today is harvested. Units that already have a checkpoint are
skipped, so a run can be repeated after a failure or an interrupt.`,
	Example: `  # Harvest today and refresh latest.json
  paperharvest harvest --daily

  # Harvest the last week
  paperharvest harvest --days 7

  # Harvest an explicit range in 7-day chunks
  paperharvest harvest --start 2024-01-01 --end 2024-03-31 --chunk-days 7

  # Fill the 90 most recent gaps of the last ten years
  paperharvest harvest --backfill --horizon 3650 --max-units 90

  # Split an existing combined artifact into per-day checkpoints
  paperharvest harvest --from-file public/data/2024-03-10.json`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().BoolVar(&daily, "daily", false, "harvest today and write latest.json")
	harvestCmd.Flags().IntVar(&lastDays, "days", 0, "harvest the last N days ending today")
	harvestCmd.Flags().StringVar(&startDate, "start", "", "first day of an explicit range (YYYY-MM-DD)")
	harvestCmd.Flags().StringVar(&endDate, "end", "", "last day of an explicit range (YYYY-MM-DD)")
	harvestCmd.Flags().IntVar(&chunkDays, "chunk-days", 0, "group days into chunks of N days")
	harvestCmd.Flags().BoolVar(&backfill, "backfill", false, "harvest days missing from the checkpoint store")
	harvestCmd.Flags().IntVar(&horizon, "horizon", 0, "days back to scan for gaps (default from config)")
	harvestCmd.Flags().IntVar(&maxUnits, "max-units", 0, "maximum gaps to fill (default from config)")
	harvestCmd.Flags().StringVar(&fromFile, "from-file", "", "re-partition an existing JSON artifact instead of querying arXiv")
	harvestCmd.Flags().StringVar(&storeKind, "storage", "", "checkpoint backend (file, redis)")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if chunkDays > 0 {
		flags["chunk-days"] = chunkDays
	}
	if storeKind != "" {
		flags["storage"] = storeKind
	}
	cfg, log, err := loadRuntime(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := checkIntent(); err != nil {
		return err
	}

	gran, err := timeunit.ParseGranularity(cfg.Harvest.Granularity)
	if err != nil {
		return err
	}
	chunk := 0
	if gran == timeunit.Chunk {
		chunk = cfg.Harvest.ChunkDays
	}
	if backfill && chunk > 1 {
		return errs.New(errs.ErrorTypeInvalidRange, "--backfill works on day units and cannot be chunked")
	}

	store, closeStore, err := openStore(ctx, cfg, log, chunk > 1)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()
	if cfg.Metrics.ListenAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.ListenAddr, log); err != nil {
				log.WithError(err).Error("Metrics listener stopped")
			}
		}()
	}

	src, politeness, units, err := planHarvest(ctx, cfg, store, log, chunk)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		ui.PrintSuccess("Nothing to harvest")
		return nil
	}
	ui.PrintInfo("Units", fmt.Sprintf("%d (%s .. %s)", len(units), units[0].Key(), units[len(units)-1].Key()))

	policy := retry.Policy{MaxAttempts: cfg.Retry.MaxAttempts, Backoff: cfg.Retry.Backoff}
	f := fetcher.New(src, policy, fetcher.Config{
		DayMaxResults:   cfg.Harvest.DayMaxResults,
		ChunkMaxResults: cfg.Harvest.ChunkMaxResults,
	}, log, fetcher.WithMetrics(m))

	artifacts := storage.NewManager(cfg.Storage.OutputDir, log)
	artifacts.SetPermissions(cfg.Storage.DirPermissions, cfg.Storage.FilePermissions)

	logger.LogComponentStart(log, "harvest", map[string]interface{}{
		"storage":      cfg.Storage.Backend,
		"granularity":  gran.String(),
		"max_attempts": cfg.Retry.MaxAttempts,
		"backoff":      cfg.Retry.Backoff,
		"from_file":    fromFile,
	})

	progress := ui.NewProgress(nil)
	h := harvester.New(store, f, artifacts, log,
		harvester.WithPoliteness(politeness),
		harvester.WithMetrics(m),
		harvester.WithProgress(progress),
		harvester.WithRefetchCorrupt(cfg.Harvest.RefetchCorrupt),
	)

	run, runErr := h.Run(ctx, units, harvester.RunOptions{Daily: isDaily()})
	progress.Complete(run.Summary())

	if run.CombinedPath != "" {
		ui.PrintInfo("Combined artifact", run.CombinedPath)
	}
	if run.LatestPath != "" {
		ui.PrintInfo("Latest artifact", run.LatestPath)
	}
	if run.EmergencyPath != "" {
		ui.PrintWarning("Emergency artifact", run.EmergencyPath)
	}
	if keys := run.Keys(harvester.FailedAfterRetry, harvester.SkippedCorrupt); len(keys) > 0 {
		ui.PrintWarning("Units to revisit", fmt.Sprint(keys))
	}

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.WithError(err).Warn("Failed to write metrics textfile")
		}
	}
	return runErr
}

func isDaily() bool {
	return !backfill && lastDays == 0 && startDate == "" && endDate == "" && fromFile == ""
}

// checkIntent rejects flag combinations naming more than one date selection
func checkIntent() error {
	n := 0
	for _, set := range []bool{daily, lastDays != 0, startDate != "" || endDate != "", backfill, fromFile != ""} {
		if set {
			n++
		}
	}
	if n > 1 {
		return errs.New(errs.ErrorTypeInvalidRange, "choose only one of --daily, --days, --start/--end, --backfill, --from-file")
	}
	return nil
}

// planHarvest picks the page source, the pause between units and the units
// to process.
func planHarvest(ctx context.Context, cfg *config.Config, store checkpoint.Store, log logger.Logger, chunk int) (source.PageSource, *ratelimit.Politeness, []timeunit.Unit, error) {
	if fromFile != "" {
		records, err := storage.ReadArtifact(fromFile)
		if err != nil {
			return nil, nil, nil, err
		}
		first, last, ok := publishedRange(records)
		if !ok {
			return source.NewMemory(records), nil, nil, nil
		}
		return source.NewMemory(records), nil, timeunit.Span(first, last, chunk), nil
	}

	src := arxiv.NewClient(cfg.Source, log)
	politeness := ratelimit.NewPoliteness(cfg.Harvest.InterUnitDelayMin, cfg.Harvest.InterUnitDelayMax)

	if backfill {
		h := horizon
		if h == 0 {
			h = cfg.Harvest.BackfillHorizonDays
		}
		n := maxUnits
		if n == 0 {
			n = cfg.Harvest.BackfillMaxUnits
		}
		units, err := scanner.New(store, log).FindMissing(ctx, h, n)
		return src, politeness, units, err
	}

	intent, err := buildIntent()
	if err != nil {
		return nil, nil, nil, err
	}
	intent.ChunkDays = chunk
	units, err := timeunit.NewResolver().Resolve(intent)
	return src, politeness, units, err
}

func buildIntent() (timeunit.Intent, error) {
	switch {
	case lastDays != 0:
		return timeunit.LastDays(lastDays), nil
	case startDate != "" || endDate != "":
		if startDate == "" || endDate == "" {
			return timeunit.Intent{}, errs.New(errs.ErrorTypeInvalidRange, "--start and --end must be given together")
		}
		start, err := time.Parse(timeunit.KeyLayout, startDate)
		if err != nil {
			return timeunit.Intent{}, errs.Wrap(errs.ErrorTypeInvalidRange, err, "parse --start")
		}
		end, err := time.Parse(timeunit.KeyLayout, endDate)
		if err != nil {
			return timeunit.Intent{}, errs.Wrap(errs.ErrorTypeInvalidRange, err, "parse --end")
		}
		return timeunit.Between(start, end), nil
	default:
		return timeunit.Daily(), nil
	}
}

func publishedRange(records []models.Record) (first, last time.Time, ok bool) {
	for _, r := range records {
		if r.Published.IsZero() {
			continue
		}
		if !ok || r.Published.Before(first) {
			first = r.Published
		}
		if !ok || r.Published.After(last) {
			last = r.Published
		}
		ok = true
	}
	return first, last, ok
}
