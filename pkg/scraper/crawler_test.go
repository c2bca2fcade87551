package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
)

func TestCrawlAllStopsAtEmptyPage(t *testing.T) {
	session := newFakeSession()
	session.pages[1] = `[{"id":1},{"id":2}]`
	session.pages[2] = `[{"id":3}]`
	session.pages[3] = `[]`
	session.pages[4] = `[{"id":99}]`

	f := NewPageFetcher(newTestCache(t, time.Hour), 1, 2, logger.NewNopLogger(), nil)
	tl := logger.NewTestLogger()
	posts, err := NewCrawler(f, 0, tl, nil).CrawlAll(context.Background(), session)
	require.NoError(t, err)

	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, 1, session.pageCalls[3])
	assert.Zero(t, session.pageCalls[4], "page after the empty one is never requested")
	assert.Len(t, tl.GetMessagesByLevel("INFO"), 3, "each page is logged")
}

func TestCrawlAllMaxPages(t *testing.T) {
	session := newFakeSession()
	session.pages[1] = `[{"id":1}]`
	session.pages[2] = `[{"id":2}]`
	session.pages[3] = `[{"id":3}]`

	f := NewPageFetcher(newTestCache(t, time.Hour), 1, 2, logger.NewNopLogger(), nil)
	posts, err := NewCrawler(f, 2, logger.NewNopLogger(), nil).CrawlAll(context.Background(), session)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Zero(t, session.pageCalls[3])
}

func TestCrawlAllAbortsOnError(t *testing.T) {
	session := newFakeSession()
	session.pages[1] = `[{"id":1}]`
	session.pageErrors[2] = errs.Request("fetch page 2", 403)

	f := NewPageFetcher(newTestCache(t, time.Hour), 1, 2, logger.NewNopLogger(), nil)
	posts, err := NewCrawler(f, 0, logger.NewNopLogger(), nil).CrawlAll(context.Background(), session)
	require.Error(t, err)
	assert.Nil(t, posts)
	assert.Contains(t, err.Error(), "crawl page 2")
	assert.True(t, errs.IsType(err, errs.ErrorTypeRequest))
}

func TestCrawlAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewPageFetcher(newTestCache(t, time.Hour), 1, 2, logger.NewNopLogger(), nil)
	_, err := NewCrawler(f, 0, logger.NewNopLogger(), nil).CrawlAll(ctx, newFakeSession())
	assert.ErrorIs(t, err, context.Canceled)
}
