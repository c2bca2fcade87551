package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tcphotos/pkg/config"
	"tcphotos/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tcphotos configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TC_*, SCHOOL, CHILD, SCHOOL_LAT, ...)
  - .env in the working directory and ~/.tcphotos.env
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with default values",
	Long: `Create a configuration file with every option at its default value.

The file is written to .tcphotos.yaml unless --config names another path.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after merging all sources. The password is masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Long: `Check required fields, value ranges, directory access and that
exiftool can be found when tagging is enabled.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".tcphotos.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set portal.email, portal.school_id, portal.child_id and the school location")
	fmt.Println("2. Run 'tcphotos auth login' to store your password")
	fmt.Println("3. Run 'tcphotos config validate' to check the configuration")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := loadPartialConfig()

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	var problems []error

	if err := cfg.ValidateCredentials(); err != nil {
		warnings = append(warnings, "no password configured; the keyring or a prompt will be used")
	}
	if cfg.School.Latitude == 0 && cfg.School.Longitude == 0 {
		warnings = append(warnings, "school location is 0,0; set SCHOOL_LAT and SCHOOL_LNG")
	}

	for _, dir := range []string{cfg.Output.PhotoDirectory, cfg.Cache.Directory} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create directory %s: %w", dir, err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if cfg.Tagger.Enabled {
		if _, err := exec.LookPath(cfg.Tagger.Path); err != nil {
			problems = append(problems, fmt.Errorf("exiftool not found at %q (use --no-tagger to skip IPTC tags): %w", cfg.Tagger.Path, err))
		}
	}

	for _, w := range warnings {
		ui.PrintWarning("Warning", w)
	}
	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Feed: school %d, child %d\n", cfg.Portal.SchoolID, cfg.Portal.ChildID)
	fmt.Printf("  Photo directory: %s\n", cfg.Output.PhotoDirectory)
	fmt.Printf("  Cache: %s (fresh for %s)\n", cfg.Cache.Directory, cfg.Cache.Timeout)
	fmt.Printf("  Location: %.6f, %.6f\n", cfg.School.Latitude, cfg.School.Longitude)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max attempts: %d\n", cfg.Retry.MaxAttempts)
	return nil
}
