package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tcphotos/pkg/auth"
	"tcphotos/pkg/config"
	"tcphotos/pkg/portal"
	"tcphotos/pkg/ui"
)

var verifyLogin bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored portal password",
	Long: `Store the Transparent Classroom password outside the configuration file.

Passwords are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation

Set TC_PASSPHRASE to choose the passphrase of the encrypted file.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Store the portal password securely",
	Long: `Prompt for the password of the given login email and store it.

The email defaults to TC_EMAIL or portal.email from the configuration file.
With --verify (the default) the password is checked against the portal first.`,
	Example: `  # Store the password for the configured email
  tcphotos auth login

  # Store without signing in first
  tcphotos auth login parent@example.com --verify=false`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [email]",
	Short: "Remove the stored password",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status [email]",
	Short: "Show where the password will be read from",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().BoolVar(&verifyLogin, "verify", true, "sign in to the portal before storing the password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg := loadPartialConfig()
	email, err := emailArg(cfg, args, true)
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if _, source, err := manager.Retrieve(email); err == nil {
		if !confirm(fmt.Sprintf("A password for %s is already stored in the %s. Replace it? (y/N): ", auth.MaskEmail(email), source)) {
			return nil
		}
	}

	password, err := promptPassword(fmt.Sprintf("Password for %s: ", email))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return errors.New("password is required")
	}

	if verifyLogin {
		ui.PrintInfo("Signing in", cfg.Portal.BaseURL)
		a := portal.NewAuthenticator(portal.Options{
			BaseURL:   cfg.Portal.BaseURL,
			UserAgent: cfg.Portal.UserAgent,
			Timeout:   cfg.Portal.RequestTimeout,
		})
		if _, err := a.Authenticate(context.Background(), email, password); err != nil {
			return fmt.Errorf("sign-in failed, password not stored: %w", err)
		}
	}

	store, err := manager.Store(email, password)
	if err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Password for %s stored in the %s", auth.MaskEmail(email), store))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	email, err := emailArg(loadPartialConfig(), args, false)
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(email); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No stored password", auth.MaskEmail(email))
			return nil
		}
		return err
	}

	ui.PrintSuccess("Removed stored password for " + auth.MaskEmail(email))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadPartialConfig()
	email, err := emailArg(cfg, args, false)
	if err != nil {
		return err
	}

	ui.PrintInfo("Email", auth.MaskEmail(email))

	if cfg.Portal.Password != "" {
		ui.PrintInfo("Password", "set in environment or configuration file")
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if _, source, err := manager.Retrieve(email); err == nil {
		ui.PrintInfo("Password", "stored in the "+source)
		return nil
	}

	ui.PrintWarning("No password stored. Run 'tcphotos auth login' or set TC_PASSWORD")
	return nil
}

// loadPartialConfig reads the config file and environment without
// validation, so auth commands work before the rest is configured.
func loadPartialConfig() *config.Config {
	cfg := config.DefaultConfig()
	// Errors leave the defaults in place; the email can be passed explicitly
	_ = cfg.LoadFromFile(configFile)
	_ = cfg.LoadFromEnv()
	return cfg
}

// emailArg returns the email from args or the configuration, prompting on
// a terminal when allowed.
func emailArg(cfg *config.Config, args []string, interactive bool) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}
	if cfg.Portal.Email != "" {
		return cfg.Portal.Email, nil
	}
	if interactive && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print("Login email: ")
		input, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read email: %w", err)
		}
		if email := strings.TrimSpace(input); email != "" {
			return email, nil
		}
	}
	return "", errors.New("login email is required: pass it as an argument or set TC_EMAIL")
}

// promptPassword reads a password without echo. It fails when stdin is not
// a terminal.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal")
	}

	fmt.Print(label)
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(password)), nil
}

func confirm(question string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Print(question)
	input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y")
}
