package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"paperharvest/pkg/secrets"
	"paperharvest/pkg/ui"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the stored Postgres connection string",
	Long: `Manage the Postgres connection string used by 'paperharvest import'.

Connection strings are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables PAPERHARVEST_DATABASE_URL or DATABASE_URL (read-only)`,
}

var dbLoginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store a connection string securely",
	Example: `  # Prompt for the default connection string
  paperharvest db login

  # Store a second profile
  paperharvest db login staging`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDBLogin,
}

var dbLogoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored connection string",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDBLogout,
}

var dbShowCmd = &cobra.Command{
	Use:   "show [profile]",
	Short: "Show the stored connection string with the password masked",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDBShow,
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbLoginCmd)
	dbCmd.AddCommand(dbLogoutCmd)
	dbCmd.AddCommand(dbShowCmd)
}

func profileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return secrets.DefaultName
}

func runDBLogin(cmd *cobra.Command, args []string) error {
	m, err := secretsManager()
	if err != nil {
		return err
	}

	fmt.Print("🔑 Postgres connection string: ")
	dsn, err := readSecret()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read connection string: %w", err)
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return fmt.Errorf("%w: empty connection string", secrets.ErrInvalidSecret)
	}

	kind, err := m.Set(profileArg(args), dsn)
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Connection string saved to %s: %s", kind, secrets.Mask(dsn)))
	return nil
}

// readSecret reads without echo from a terminal, or a line from piped input
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		return string(b), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

func runDBLogout(cmd *cobra.Command, args []string) error {
	m, err := secretsManager()
	if err != nil {
		return err
	}
	name := profileArg(args)
	if err := m.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess("Connection string removed: " + name)
	return nil
}

func runDBShow(cmd *cobra.Command, args []string) error {
	m, err := secretsManager()
	if err != nil {
		return err
	}
	s, kind, err := m.Get(profileArg(args))
	if err != nil {
		return err
	}
	ui.PrintInfo("Profile", s.Name)
	ui.PrintInfo("Source", kind)
	ui.PrintInfo("Connection", secrets.Mask(s.Value))
	if !s.LastModified.IsZero() {
		ui.PrintInfo("Last modified", s.LastModified.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
