package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"paperharvest/pkg/status"
	"paperharvest/pkg/ui"
)

var chartPath string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize checkpoint coverage",
	Long: `Report the earliest and latest checkpointed days and how many there are,
then merge them into the status file. With --chart an HTML bar chart of
records per day is written as well.`,
	Example: `  paperharvest status
  paperharvest status --chart coverage.html`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&chartPath, "chart", "", "write an HTML coverage chart to this path")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime(nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, closeStore, err := openStore(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer closeStore()

	summary, err := status.Compute(ctx, store)
	if err != nil {
		return err
	}
	if summary.Count == 0 {
		ui.PrintWarning("No checkpoints yet", "run 'paperharvest harvest' first")
		return nil
	}

	ui.PrintHighlight("Checkpoint coverage")
	ui.PrintInfo("Earliest", summary.Earliest)
	ui.PrintInfo("Latest", summary.Latest)
	ui.PrintInfo("Days checkpointed", strconv.Itoa(summary.Count))
	ui.PrintInfo("Days missing in range", strconv.Itoa(summary.Missing()))

	file, err := status.SaveFile(cfg.Storage.StatusFile, summary, time.Now())
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Status file updated: %s (%s .. %s)", cfg.Storage.StatusFile, file.EarliestScraped, file.LatestScraped))

	if chartPath == "" {
		return nil
	}
	counts, corrupt, err := status.Counts(ctx, store, summary.Keys)
	if err != nil {
		return err
	}
	if len(corrupt) > 0 {
		ui.PrintWarning("Corrupt checkpoints left out of the chart", fmt.Sprint(corrupt))
	}
	out, err := os.Create(chartPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer out.Close()
	if err := status.RenderChart(out, summary, counts); err != nil {
		return err
	}
	ui.PrintSuccess("Coverage chart written: " + chartPath)
	return nil
}
