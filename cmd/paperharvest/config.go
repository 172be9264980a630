package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"paperharvest/pkg/config"
	"paperharvest/pkg/secrets"
	"paperharvest/pkg/ui"
)

const defaultConfigPath = "paperharvest.yaml"

const configHeader = `# paperharvest configuration
#
# Every setting can also come from a PAPERHARVEST_* environment variable
# (for example PAPERHARVEST_CHECKPOINT_DIR) or a .env file.
# Durations use Go syntax: 3s, 1m30s. Permissions are decimal file modes.

`

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage paperharvest configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables and .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Long: `Write a configuration file holding every option at its default value.

The file is created as 'paperharvest.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. Passwords in the
database URL and the Redis password are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	ui.Default().Printf("\nNext steps:\n")
	ui.Default().Printf("1. Adjust the checkpoint and output directories\n")
	ui.Default().Printf("2. Run 'paperharvest config validate --config %s'\n", path)
	ui.Default().Printf("3. Start with 'paperharvest harvest --daily'\n")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Database.URL != "" {
		display.Database.URL = secrets.Mask(display.Database.URL)
	}
	if display.Redis.Password != "" {
		display.Redis.Password = "***"
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	term := ui.Default()
	term.Printf("\n%s", data)
	term.Printf("\nConfiguration sources (in order of priority):\n")
	term.Printf("1. Command line flags\n")
	term.Printf("2. Environment variables (%s*)\n", config.EnvPrefix)
	if configFile != "" {
		term.Printf("3. Configuration file: %s\n", configFile)
	} else {
		term.Printf("3. Configuration file: (searched default locations)\n")
	}
	term.Printf("4. Default values\n")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.Storage.Backend == "file" {
		if err := os.MkdirAll(cfg.Storage.CheckpointDir, cfg.Storage.DirPermissions); err != nil {
			return fmt.Errorf("cannot create checkpoint directory: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.Storage.OutputDir, cfg.Storage.DirPermissions); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	if cfg.Harvest.InterUnitDelayMin == 0 {
		warnings = append(warnings, "inter-unit delay is zero; arXiv asks for a pause between calls")
	}
	if cfg.Source.RequestInterval < 3*time.Second {
		warnings = append(warnings, "request interval below 3s")
	}
	if cfg.Harvest.Granularity == "chunk" && cfg.Harvest.ChunkMaxResults < cfg.Harvest.DayMaxResults {
		warnings = append(warnings, "chunk result cap is lower than the day cap")
	}

	term := ui.Default()
	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings", "")
		for _, w := range warnings {
			term.Printf("  - %s\n", w)
		}
		term.Printf("\n")
	}

	ui.PrintSuccess("Configuration is valid")
	term.Printf("\nConfiguration summary:\n")
	term.Printf("  Granularity: %s\n", cfg.Harvest.Granularity)
	term.Printf("  Storage: %s (%s)\n", cfg.Storage.Backend, cfg.Storage.CheckpointDir)
	term.Printf("  Output directory: %s\n", cfg.Storage.OutputDir)
	term.Printf("  Retry: %d attempts, %s backoff\n", cfg.Retry.MaxAttempts, cfg.Retry.Backoff)
	term.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
