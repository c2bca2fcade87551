package scraper

import (
	"context"
	"fmt"

	"tcphotos/pkg/logger"
	"tcphotos/pkg/portal"
)

// Crawler walks the posts pages in order until an empty page
type Crawler struct {
	fetcher  *PageFetcher
	maxPages int
	logger   logger.Logger
	observer Observer
}

// NewCrawler creates a Crawler. maxPages of 0 means no limit.
func NewCrawler(fetcher *PageFetcher, maxPages int, log logger.Logger, observer Observer) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Crawler{fetcher: fetcher, maxPages: maxPages, logger: log, observer: observer}
}

// CrawlAll returns the records of every page in page order. A fetch error
// aborts the crawl.
func (c *Crawler) CrawlAll(ctx context.Context, session Session) ([]portal.Post, error) {
	var all []portal.Post

	for page := 1; ; page++ {
		if c.maxPages > 0 && page > c.maxPages {
			c.logger.InfoWithFields("Reached page limit", map[string]interface{}{
				"max_pages": c.maxPages,
			})
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		posts, source, err := c.fetcher.FetchPage(ctx, session, page)
		if err != nil {
			c.logger.WithError(err).ErrorWithFields("Failed to fetch page", map[string]interface{}{
				"page": page,
			})
			return nil, fmt.Errorf("crawl page %d: %w", page, err)
		}

		logger.LogPage(c.logger, page, len(posts), source)
		c.observer.PageFetched(page, len(posts), source)

		if len(posts) == 0 {
			break
		}
		all = append(all, posts...)
	}

	return all, nil
}
