package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tcphotos/pkg/auth"
	"tcphotos/pkg/config"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/metrics"
	"tcphotos/pkg/scraper"
	"tcphotos/pkg/ui"
)

var (
	// Scrape command flags
	photoDir     string
	cacheDir     string
	cacheTimeout int
	dryRun       bool
	stopOnError  bool
	maxPages     int
	maxAttempts  int
	metricsFile  string
	noTagger     bool
	notify       bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Download and tag every photo in the feed",
	Long: `Sign in, crawl every page of the configured child's feed and save each
photo with its metadata embedded.

The password is taken from TC_PASSWORD, the configuration file, the
credential store ('tcphotos auth login') or an interactive prompt, in that
order.

Photos already present in the photo directory are not downloaded again, but
their metadata is rewritten on every run.`,
	Example: `  # Archive using settings from .env or the config file
  tcphotos scrape

  # See what would be downloaded without writing anything
  tcphotos scrape --dry-run

  # Only look at the two newest pages, bypassing the cache
  tcphotos scrape --max-pages 2 --cache-timeout 0

  # Write Prometheus metrics for node_exporter
  tcphotos scrape --metrics-file /var/lib/node_exporter/tcphotos.prom`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	addScrapeFlags(scrapeCmd)
	// Also add these flags to the root command, which runs a scrape by default
	addScrapeFlags(rootCmd)
}

func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&photoDir, "photo-dir", "o", "", "directory for downloaded photos (default ./photos)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for cached feed pages (default ./cache)")
	cmd.Flags().IntVar(&cacheTimeout, "cache-timeout", 0, "seconds a cached page stays fresh, 0 disables the cache (default 14400)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "crawl and report without downloading or tagging")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "abort the run at the first photo that fails")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many feed pages (0 means all)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "attempts per request before giving up (default 3)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
	cmd.Flags().BoolVar(&noTagger, "no-tagger", false, "skip IPTC tagging with exiftool")
	cmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when the run ends")
}

// scrapeOverrides collects the flags the user actually set
func scrapeOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("photo-dir") {
		flags["photo-dir"] = photoDir
	}
	if changed("cache-dir") {
		flags["cache-dir"] = cacheDir
	}
	if changed("cache-timeout") {
		flags["cache-timeout"] = cacheTimeout
	}
	if changed("dry-run") {
		flags["dry-run"] = dryRun
	}
	if changed("stop-on-error") {
		flags["stop-on-error"] = stopOnError
	}
	if changed("max-pages") {
		flags["max-pages"] = maxPages
	}
	if changed("max-attempts") {
		flags["max-attempts"] = maxAttempts
	}
	if changed("metrics-file") {
		flags["metrics-file"] = metricsFile
	}
	if changed("no-tagger") {
		flags["no-tagger"] = noTagger
	}
	if changed("log-level") {
		flags["log-level"] = logLevel
	} else if !verbose {
		// Keep the console to the progress line unless asked otherwise
		flags["log-level"] = "error"
	}
	return flags
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, scrapeOverrides(cmd))
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("tcphotos starting")

	var store passwordRetriever
	if manager, err := auth.NewManager(); err != nil {
		log.WithError(err).Warn("Credential store unavailable")
	} else {
		store = manager
	}
	source, err := resolvePassword(cfg, store, promptPassword)
	if err != nil {
		return err
	}
	log.WithField("source", source).Debug("Resolved login password")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var out io.Writer = os.Stdout
	if ui.IsQuiet() {
		out = io.Discard
	}
	display := ui.NewProgressDisplay(out, verbose)
	recorder := metrics.NewRecorder()

	s, err := scraper.New(cfg, scraper.Dependencies{
		Metrics:  recorder,
		Observer: display,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %w", err)
	}

	if cfg.Scrape.DryRun {
		ui.PrintWarning("Dry run: nothing will be downloaded or modified")
	}

	summary, runErr := s.Run(ctx)
	if summary != nil && summary.Records > 0 {
		display.Complete(summary)
	}

	if cfg.Metrics.Textfile != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.WithError(err).Warn("Failed to write metrics textfile")
		}
	}

	if notify {
		ui.NewNotifier(out, true).RunFinished(summary, runErr)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return errors.New("interrupted")
		}
		if summary != nil && len(summary.Failures) > 0 {
			return fmt.Errorf("%d of %d photos failed", len(summary.Failures), summary.Photos)
		}
		return runErr
	}

	ui.PrintSuccess("Archive is up to date")
	return nil
}

// passwordRetriever is the part of auth.Manager used to find a stored password
type passwordRetriever interface {
	Retrieve(email string) (password, store string, err error)
}

// resolvePassword fills in cfg.Portal.Password when neither the environment
// nor the config file supplied it. It returns where the password came from.
func resolvePassword(cfg *config.Config, store passwordRetriever, prompt func(label string) (string, error)) (string, error) {
	if cfg.Portal.Password != "" {
		return "configuration", nil
	}

	if store != nil && cfg.Portal.Email != "" {
		if password, name, err := store.Retrieve(cfg.Portal.Email); err == nil {
			cfg.Portal.Password = password
			return name, nil
		}
	}

	if prompt != nil {
		password, err := prompt(fmt.Sprintf("Password for %s: ", cfg.Portal.Email))
		if err == nil && password != "" {
			cfg.Portal.Password = password
			return "prompt", nil
		}
	}

	return "", cfg.ValidateCredentials()
}
