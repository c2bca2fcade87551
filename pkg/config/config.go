package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the photo grabber
type Config struct {
	// Portal credentials and identifiers
	Portal PortalConfig `yaml:"portal" json:"portal"`

	// School location and keywords stamped into every photo
	School SchoolConfig `yaml:"school" json:"school"`

	// Page cache settings
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Run behaviour
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Retry policy for network calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Request throttling
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// External IPTC tagging utility
	Tagger TaggerConfig `yaml:"tagger" json:"tagger"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PortalConfig holds Transparent Classroom access settings
type PortalConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	Email          string        `yaml:"email" json:"email"`
	Password       string        `yaml:"password" json:"password"`
	SchoolID       int64         `yaml:"school_id" json:"school_id"`
	ChildID        int64         `yaml:"child_id" json:"child_id"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// SchoolConfig describes the constant location of the school
type SchoolConfig struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
	Keywords  string  `yaml:"keywords" json:"keywords"`
}

// CacheConfig holds the page cache configuration
type CacheConfig struct {
	Directory string        `yaml:"directory" json:"directory"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// OutputConfig holds photo directory configuration
type OutputConfig struct {
	PhotoDirectory string `yaml:"photo_directory" json:"photo_directory"`
}

// ScrapeConfig controls a single pipeline run
type ScrapeConfig struct {
	DryRun      bool `yaml:"dry_run" json:"dry_run"`
	StopOnError bool `yaml:"stop_on_error" json:"stop_on_error"`
	// MaxPages caps the crawl; 0 crawls until the portal returns an empty page
	MaxPages int `yaml:"max_pages" json:"max_pages"`
	// Timezone used to interpret the portal's creation timestamps.
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerMinute of 0 disables throttling
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// TaggerConfig configures the exiftool subprocess
type TaggerConfig struct {
	Enabled           bool   `yaml:"enabled" json:"enabled"`
	Path              string `yaml:"path" json:"path"`
	OverwriteOriginal bool   `yaml:"overwrite_original" json:"overwrite_original"`
}

// MetricsConfig configures the Prometheus textfile export
type MetricsConfig struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:        "https://www.transparentclassroom.com",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			RequestTimeout: 60 * time.Second,
		},
		Cache: CacheConfig{
			Directory: "./cache",
			Timeout:   4 * time.Hour,
		},
		Output: OutputConfig{
			PhotoDirectory: "./photos",
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Tagger: TaggerConfig{
			Enabled:           true,
			Path:              "exiftool",
			OverwriteOriginal: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int64) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid integer value for %s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	setFloat := func(name string, dst *float64) {
		if v := os.Getenv(name); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid float value for %s: %w", name, err))
				return
			}
			*dst = f
		}
	}

	setString("TC_BASE_URL", &c.Portal.BaseURL)
	setString("TC_EMAIL", &c.Portal.Email)
	setString("TC_PASSWORD", &c.Portal.Password)
	setInt("SCHOOL", &c.Portal.SchoolID)
	setInt("CHILD", &c.Portal.ChildID)

	setFloat("SCHOOL_LAT", &c.School.Latitude)
	setFloat("SCHOOL_LNG", &c.School.Longitude)
	setString("SCHOOL_KEYWORDS", &c.School.Keywords)

	setString("TC_CACHE_DIR", &c.Cache.Directory)
	var timeoutSecs int64 = -1
	setInt("TC_CACHE_TIMEOUT", &timeoutSecs)
	if timeoutSecs >= 0 {
		c.Cache.Timeout = time.Duration(timeoutSecs) * time.Second
	}

	setString("TC_PHOTO_DIR", &c.Output.PhotoDirectory)
	setString("TC_TIMEZONE", &c.Scrape.Timezone)
	setString("TC_EXIFTOOL", &c.Tagger.Path)
	setString("TC_METRICS_TEXTFILE", &c.Metrics.Textfile)
	setString("TC_LOG_LEVEL", &c.Logging.Level)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tcphotos.yaml",
		".tcphotos.yml",
		filepath.Join(home, ".config", "tcphotos", "config.yaml"),
		filepath.Join(home, ".config", "tcphotos", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. The password is checked
// separately by ValidateCredentials because it may come from the keyring.
func (c *Config) Validate() error {
	var errs []error

	if c.Portal.BaseURL == "" {
		errs = append(errs, errors.New("portal base URL is required"))
	}
	if c.Portal.Email == "" {
		errs = append(errs, errors.New("login email is required (TC_EMAIL)"))
	}
	if c.Portal.SchoolID <= 0 {
		errs = append(errs, errors.New("school ID must be positive (SCHOOL)"))
	}
	if c.Portal.ChildID <= 0 {
		errs = append(errs, errors.New("child ID must be positive (CHILD)"))
	}
	if c.Portal.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}

	if c.School.Latitude < -90 || c.School.Latitude > 90 {
		errs = append(errs, errors.New("school latitude must be within [-90, 90]"))
	}
	if c.School.Longitude < -180 || c.School.Longitude > 180 {
		errs = append(errs, errors.New("school longitude must be within [-180, 180]"))
	}

	if c.Cache.Directory == "" {
		errs = append(errs, errors.New("cache directory is required"))
	}
	if c.Cache.Timeout < 0 {
		errs = append(errs, errors.New("cache timeout cannot be negative"))
	}
	if c.Output.PhotoDirectory == "" {
		errs = append(errs, errors.New("photo directory is required"))
	}

	if c.Scrape.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}
	if c.Scrape.Timezone != "" {
		if _, err := time.LoadLocation(c.Scrape.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Scrape.Timezone, err))
		}
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.Tagger.Enabled && c.Tagger.Path == "" {
		errs = append(errs, errors.New("tagger path is required when the tagger is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateCredentials checks that both login fields are present
func (c *Config) ValidateCredentials() error {
	var errs []error
	if c.Portal.Email == "" {
		errs = append(errs, errors.New("login email is required (TC_EMAIL)"))
	}
	if c.Portal.Password == "" {
		errs = append(errs, errors.New("login password is required (TC_PASSWORD or 'tcphotos auth login')"))
	}
	return errors.Join(errs...)
}

// Location resolves Scrape.Timezone, defaulting to the host's local zone
func (c *Config) Location() (*time.Location, error) {
	if c.Scrape.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Scrape.Timezone)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Redacted returns a copy with the password masked, for display
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Portal.Password != "" {
		cp.Portal.Password = "********"
	}
	return &cp
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["photo-dir"].(string); ok && v != "" {
		c.Output.PhotoDirectory = v
	}
	if v, ok := flags["cache-dir"].(string); ok && v != "" {
		c.Cache.Directory = v
	}
	if v, ok := flags["cache-timeout"].(int); ok && v >= 0 {
		c.Cache.Timeout = time.Duration(v) * time.Second
	}
	if v, ok := flags["dry-run"].(bool); ok {
		c.Scrape.DryRun = v
	}
	if v, ok := flags["stop-on-error"].(bool); ok {
		c.Scrape.StopOnError = v
	}
	if v, ok := flags["max-pages"].(int); ok && v >= 0 {
		c.Scrape.MaxPages = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["metrics-file"].(string); ok && v != "" {
		c.Metrics.Textfile = v
	}
	if v, ok := flags["no-tagger"].(bool); ok && v {
		c.Tagger.Enabled = false
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tcphotos.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
