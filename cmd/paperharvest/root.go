package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"paperharvest/pkg/checkpoint"
	"paperharvest/pkg/config"
	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/logger"
	"paperharvest/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "paperharvest",
	Short: "Resumable harvester for arXiv paper metadata",
	Long: `paperharvest collects arXiv paper metadata one day (or chunk of days)
at a time and checkpoints every completed unit, so interrupted or failed runs
can be repeated without fetching anything twice.

Features:
  - Daily, last-N-days, explicit range and backfill harvests
  - Per-unit retry with a fixed backoff
  - File or Redis checkpoint storage
  - Combined, latest and emergency JSON artifacts
  - Coverage status file and HTML chart
  - Postgres import of harvested papers`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		term := ui.Default()
		if noColor {
			term.SetColor(false)
		}
		if quiet {
			term.SetQuiet(true)
		}
		if cmd.Name() == "harvest" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./paperharvest.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`paperharvest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadRuntime loads the configuration with flag overrides and builds the
// logger every command shares.
func loadRuntime(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if quiet {
		flags["log-level"] = "error"
	}
	if noColor {
		flags["no-color"] = true
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// openStore returns the checkpoint store for day units. With chunks set, the
// store also routes multi-day chunk keys to their own namespace.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger, chunks bool) (checkpoint.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		days := checkpoint.NewRedisStore(client, cfg.Redis.KeyPrefix, log)
		if err := days.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		closer := func() { _ = client.Close() }
		if !chunks {
			return days, closer, nil
		}
		prefix := cfg.Redis.KeyPrefix
		if prefix == "" {
			prefix = "paperharvest"
		}
		return checkpoint.NewSplitStore(days, checkpoint.NewRedisStore(client, prefix+":chunks", log)), closer, nil
	case "file", "":
		perms := checkpoint.WithPermissions(cfg.Storage.DirPermissions, cfg.Storage.FilePermissions)
		days := checkpoint.NewFileStore(cfg.Storage.CheckpointDir, log, perms)
		if !chunks {
			return days, func() {}, nil
		}
		chunkDir := filepath.Join(cfg.Storage.CheckpointDir, "chunks")
		return checkpoint.NewSplitStore(days, checkpoint.NewFileStore(chunkDir, log, perms)), func() {}, nil
	default:
		return nil, nil, errs.New(errs.ErrorTypeStorageUnavailable, "unknown storage backend %q", cfg.Storage.Backend)
	}
}
