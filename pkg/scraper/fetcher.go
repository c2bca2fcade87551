package scraper

import (
	"context"
	"encoding/json"
	"fmt"

	"tcphotos/pkg/cache"
	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/metrics"
	"tcphotos/pkg/portal"
)

// PageFetcher returns one page of posts, served from the page cache when a
// fresh entry exists.
type PageFetcher struct {
	cache    *cache.PageCache
	schoolID int64
	childID  int64
	logger   logger.Logger
	metrics  *metrics.Recorder
}

// NewPageFetcher creates a PageFetcher for one school and child
func NewPageFetcher(c *cache.PageCache, schoolID, childID int64, log logger.Logger, rec *metrics.Recorder) *PageFetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &PageFetcher{
		cache:    c,
		schoolID: schoolID,
		childID:  childID,
		logger:   log,
		metrics:  rec,
	}
}

// FetchPage returns the posts of page and where they came from
func (f *PageFetcher) FetchPage(ctx context.Context, session Session, page int) ([]portal.Post, string, error) {
	data, hit, err := f.cache.Load(page)
	if err != nil {
		return nil, "", err
	}

	if hit {
		posts, err := DecodePage(data)
		if err != nil {
			f.logger.WithError(err).ErrorWithFields("Cache entry is corrupt", map[string]interface{}{
				"page": page,
				"path": f.cache.Path(page),
			})
			return nil, "", errs.Wrap(errs.ErrorTypeCache, fmt.Sprintf("decode cached page %d", page), err)
		}
		f.metrics.PageFetched(metrics.SourceCache)
		return posts, metrics.SourceCache, nil
	}

	raw, err := session.FetchPostsPage(ctx, f.schoolID, f.childID, page)
	if err != nil {
		return nil, "", err
	}

	canonical, err := cache.Canonicalize(raw)
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrorTypeParsing, fmt.Sprintf("parse page %d", page), err)
	}

	// Decode before storing so a well-formed but unexpected document is
	// never cached.
	posts, err := DecodePage(canonical)
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrorTypeParsing, fmt.Sprintf("decode page %d", page), err)
	}

	if err := f.cache.Store(page, canonical); err != nil {
		return nil, "", err
	}
	f.metrics.PageFetched(metrics.SourceNetwork)
	return posts, metrics.SourceNetwork, nil
}

// DecodePage parses a page document into posts
func DecodePage(data []byte) ([]portal.Post, error) {
	var posts []portal.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []portal.Post{}
	}
	return posts, nil
}
