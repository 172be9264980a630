package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"paperharvest/pkg/timeunit"
	"paperharvest/pkg/ui"
)

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and invalidate unit checkpoints",
	Long: `Inspect and invalidate unit checkpoints.

A checkpointed unit is never fetched again until its checkpoint is
invalidated here. Day checkpoints are keyed YYYY-MM-DD, multi-day chunks
YYYY-MM-DD_YYYY-MM-DD (first and last day).`,
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpointed units",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointList,
}

var checkpointInvalidateCmd = &cobra.Command{
	Use:   "invalidate <key>...",
	Short: "Delete checkpoints so their units are fetched again",
	Example: `  # Refetch two days on the next run
  paperharvest checkpoint invalidate 2024-03-08 2024-03-09

  # Invalidate a 7-day chunk
  paperharvest checkpoint invalidate 2024-03-04_2024-03-10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheckpointInvalidate,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointListCmd)
	checkpointCmd.AddCommand(checkpointInvalidateCmd)
}

func runCheckpointList(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime(nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, closeStore, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer closeStore()

	keys, err := store.ListKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		ui.PrintWarning("No checkpoints", "")
		return nil
	}
	term := ui.Default()
	for _, key := range keys {
		written := "?"
		if t, err := store.WrittenAt(ctx, key); err == nil {
			written = t.Local().Format("2006-01-02 15:04:05")
		}
		term.Printf("%s  %s\n", key, term.Dim(written))
	}
	term.Printf("%s\n", term.Dim(fmt.Sprintf("%d checkpoints", len(keys))))
	return nil
}

func runCheckpointInvalidate(cmd *cobra.Command, args []string) error {
	for _, key := range args {
		if _, err := timeunit.ParseKey(key); err != nil {
			return err
		}
	}

	cfg, log, err := loadRuntime(nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, closeStore, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer closeStore()

	for _, key := range args {
		if err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("invalidate %s: %w", key, err)
		}
		ui.PrintSuccess("Invalidated " + key)
	}
	return nil
}
