package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tcphotos/pkg/cache"
	"tcphotos/pkg/config"
	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/metadata"
	"tcphotos/pkg/metrics"
	"tcphotos/pkg/portal"
	"tcphotos/pkg/ratelimit"
	"tcphotos/pkg/retry"
	"tcphotos/pkg/storage"
)

// Failure records one photo record that could not be embedded
type Failure struct {
	PostID int64
	Err    error
}

// Summary is the outcome of one run
type Summary struct {
	Records    int
	Photos     int
	Processed  int
	Downloaded int
	// Skipped counts records without a photo attachment
	Skipped  int
	Failures []Failure
	DryRun   bool
	Duration time.Duration
}

// Dependencies overrides the collaborators New would build from config
type Dependencies struct {
	Authenticator Authenticator
	Tagger        metadata.Tagger
	Metrics       *metrics.Recorder
	Observer      Observer
	Logger        logger.Logger
}

// Scraper orchestrates sign-in, crawl and per-photo embedding
type Scraper struct {
	config   *config.Config
	auth     Authenticator
	crawler  *Crawler
	embedder *Embedder
	metrics  *metrics.Recorder
	observer Observer
	logger   logger.Logger
}

// New wires a Scraper from configuration
func New(cfg *config.Config, deps Dependencies) (*Scraper, error) {
	log := deps.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	observer := deps.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	tz, err := cfg.Location()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, "load timezone", err)
	}

	location := metadata.Coordinate{Latitude: cfg.School.Latitude, Longitude: cfg.School.Longitude}
	if err := location.Validate(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, "school location", err)
	}

	pageCache, err := cache.New(cfg.Cache.Directory, cfg.Cache.Timeout, log)
	if err != nil {
		return nil, err
	}

	storageManager, err := storage.NewManager(cfg.Output.PhotoDirectory)
	if err != nil {
		log.WithError(err).Error("Failed to create storage manager")
		return nil, errs.Wrap(errs.ErrorTypeConfig, "create photo directory", err)
	}

	auth := deps.Authenticator
	if auth == nil {
		retryCfg := retry.FromSettings(cfg.Retry, log)
		retryCfg.OnRetry = func(int, error, time.Duration) { deps.Metrics.Retried() }
		auth = FromPortal(portal.NewAuthenticator(portal.Options{
			BaseURL:   cfg.Portal.BaseURL,
			UserAgent: cfg.Portal.UserAgent,
			Timeout:   cfg.Portal.RequestTimeout,
			Limiter:   ratelimit.FromSettings(cfg.RateLimit),
			Retry:     retryCfg,
			Logger:    log,
		}))
	}

	tagger := deps.Tagger
	if tagger == nil {
		if cfg.Tagger.Enabled {
			tagger = metadata.NewExifTool(cfg.Tagger.Path, cfg.Tagger.OverwriteOriginal)
		} else {
			tagger = metadata.NopTagger{}
		}
	}

	fetcher := NewPageFetcher(pageCache, cfg.Portal.SchoolID, cfg.Portal.ChildID, log, deps.Metrics)

	return &Scraper{
		config:  cfg,
		auth:    auth,
		crawler: NewCrawler(fetcher, cfg.Scrape.MaxPages, log, observer),
		embedder: NewEmbedder(EmbedderOptions{
			Storage:  storageManager,
			Tagger:   tagger,
			Location: location,
			Keywords: cfg.School.Keywords,
			TimeZone: tz,
			DryRun:   cfg.Scrape.DryRun,
			Logger:   log,
		}),
		metrics:  deps.Metrics,
		observer: observer,
		logger:   log,
	}, nil
}

// Run executes the pipeline. Sign-in and crawl failures are fatal. Photo
// failures are collected in the Summary and joined into the returned error,
// unless StopOnError is set, in which case the first one ends the run.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	summary := &Summary{DryRun: s.config.Scrape.DryRun}
	defer func() {
		summary.Duration = time.Since(started)
		s.metrics.RunFinished(started, time.Now())
	}()

	s.logger.InfoWithFields("Starting run", map[string]interface{}{
		"school":  s.config.Portal.SchoolID,
		"child":   s.config.Portal.ChildID,
		"dry_run": s.config.Scrape.DryRun,
	})

	session, err := s.auth.Authenticate(ctx, s.config.Portal.Email, s.config.Portal.Password)
	if err != nil {
		s.logger.WithError(err).Error("Authentication failed")
		return summary, fmt.Errorf("authenticate: %w", err)
	}

	posts, err := s.crawler.CrawlAll(ctx, session)
	if err != nil {
		return summary, err
	}
	summary.Records = len(posts)

	withPhotos := 0
	for _, p := range posts {
		if p.HasPhoto() {
			withPhotos++
		}
	}
	s.observer.CrawlFinished(len(posts), withPhotos)
	s.logger.InfoWithFields("Crawl complete", map[string]interface{}{
		"records":     len(posts),
		"with_photos": withPhotos,
	})

	var failures []error
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return summary, errors.Join(append(failures, err)...)
		}
		if !post.HasPhoto() {
			summary.Skipped++
			continue
		}
		summary.Photos++

		s.observer.PhotoStarted(post)
		result, err := s.embedder.Embed(ctx, session, post)
		logger.LogPhoto(s.logger, post.ID, result != nil && result.Downloaded, err)

		if err != nil {
			summary.Failures = append(summary.Failures, Failure{PostID: post.ID, Err: err})
			failures = append(failures, err)
			s.metrics.PhotoFailed(string(errs.TypeOf(unwrapEmbedding(err))))
			s.observer.PhotoFailed(post, err)
			if s.config.Scrape.StopOnError {
				return summary, err
			}
			continue
		}

		summary.Processed++
		if result.Downloaded {
			summary.Downloaded++
		}
		if !result.DryRun {
			s.metrics.PhotoProcessed(result.Downloaded)
		}
		s.observer.PhotoFinished(result)
	}

	s.logger.InfoWithFields("Run complete", map[string]interface{}{
		"processed":  summary.Processed,
		"downloaded": summary.Downloaded,
		"failed":     len(summary.Failures),
	})

	return summary, errors.Join(failures...)
}

// unwrapEmbedding returns the cause behind an embedding error so failures
// can be counted by what actually went wrong.
func unwrapEmbedding(err error) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Type == errs.ErrorTypeEmbedding && e.Err != nil {
		return e.Err
	}
	return err
}
