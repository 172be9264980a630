package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"paperharvest/pkg/database"
	"paperharvest/pkg/secrets"
	"paperharvest/pkg/ui"
)

var (
	databaseURL string
	dsnProfile  string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load checkpointed papers into Postgres",
	Long: `Upsert every checkpointed paper into Postgres together with its authors
and categories. The connection string is taken from --database-url, the
database.url setting, or the secret stored with 'paperharvest db login'.`,
	Example: `  paperharvest db login
  paperharvest import`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string")
	importCmd.Flags().StringVar(&dsnProfile, "profile", secrets.DefaultName, "stored connection string to use")
}

func runImport(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if databaseURL != "" {
		flags["database-url"] = databaseURL
	}
	cfg, log, err := loadRuntime(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn, err := resolveDSN(cfg.Database.URL, dsnProfile)
	if err != nil {
		return err
	}
	ui.PrintInfo("Database", secrets.Mask(dsn))

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
		ui.PrintWarning("No checkpoints to import", "")
		return nil
	}

	importer, err := database.Open(ctx, cfg.Database, dsn, log)
	if err != nil {
		return err
	}
	defer importer.Close()

	if err := importer.EnsureSchema(ctx); err != nil {
		return err
	}

	stats, err := importer.ImportStore(ctx, store, keys)
	term := ui.Default()
	for _, f := range stats.Files {
		if f.Err != nil {
			term.Printf("%s %s %s\n", term.Red("✗"), f.Key, f.Err)
			continue
		}
		term.Printf("%s %s %d imported, %d failed\n", term.Green("✓"), f.Key, f.Succeeded, f.Failed)
	}
	ui.PrintHighlight(fmt.Sprintf("Imported %d papers from %d checkpoints, %d failed", stats.Succeeded, len(stats.Files), stats.Failed))
	return err
}

func resolveDSN(configured, profile string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	m, err := secretsManager()
	if err != nil {
		return "", err
	}
	dsn, err := m.ResolveDSN("", profile)
	if err != nil {
		return "", fmt.Errorf("%w (run 'paperharvest db login' or set database.url)", err)
	}
	return dsn, nil
}

func secretsManager() (*secrets.Manager, error) {
	dir, err := secrets.ConfigDir()
	if err != nil {
		return nil, err
	}
	return secrets.NewManager(dir)
}
