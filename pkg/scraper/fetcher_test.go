package scraper

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/metrics"
)

func TestFetchPageCacheTransparency(t *testing.T) {
	session := newFakeSession()
	session.pages[1] = `[` + postJSON(1, "http://x/1.jpg", "<p>A</p>", "Jane", "2024-01-01T10:00:00Z") + `,` +
		postJSON(2, "", "<p>B</p>", "Jane", "2024-01-02T10:00:00Z") + `]`

	rec := metrics.NewRecorder()
	f := NewPageFetcher(newTestCache(t, time.Hour), 1, 2, logger.NewNopLogger(), rec)

	live, source, err := f.FetchPage(context.Background(), session, 1)
	require.NoError(t, err)
	assert.Equal(t, metrics.SourceNetwork, source)
	require.Len(t, live, 2)

	cached, source, err := f.FetchPage(context.Background(), session, 1)
	require.NoError(t, err)
	assert.Equal(t, metrics.SourceCache, source)
	assert.Equal(t, live, cached)
	assert.Equal(t, 1, session.pageCalls[1], "second fetch is served from cache")
}

func TestFetchPageStoresCanonicalJSON(t *testing.T) {
	session := newFakeSession()
	session.pages[1] = `[{"z":1,"id":5}]`

	c := newTestCache(t, time.Hour)
	f := NewPageFetcher(c, 1, 2, logger.NewNopLogger(), nil)

	_, _, err := f.FetchPage(context.Background(), session, 1)
	require.NoError(t, err)

	data, err := os.ReadFile(c.Path(1))
	require.NoError(t, err)
	assert.Equal(t, "[\n    {\n        \"id\": 5,\n        \"z\": 1\n    }\n]", string(data))
}

func TestFetchPageExpiredCacheRefetches(t *testing.T) {
	session := newFakeSession()
	session.pages[1] = `[{"id":5}]`

	c := newTestCache(t, time.Hour)
	f := NewPageFetcher(c, 1, 2, logger.NewNopLogger(), nil)
	_, _, err := f.FetchPage(context.Background(), session, 1)
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(c.Path(1), old, old))

	_, source, err := f.FetchPage(context.Background(), session, 1)
	require.NoError(t, err)
	assert.Equal(t, "network", source)
	assert.Equal(t, 2, session.pageCalls[1])
}

func TestFetchPageCorruptCache(t *testing.T) {
	session := newFakeSession()
	c := newTestCache(t, time.Hour)
	require.NoError(t, c.Store(1, []byte(`{not json`)))

	f := NewPageFetcher(c, 1, 2, logger.NewNopLogger(), nil)
	_, _, err := f.FetchPage(context.Background(), session, 1)

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeCache))
	assert.Equal(t, 0, session.totalPageCalls(), "corruption is not treated as a miss")
}

func TestFetchPageRequestError(t *testing.T) {
	session := newFakeSession()
	session.pageErrors[1] = errs.Request("fetch page 1", 500)

	c := newTestCache(t, time.Hour)
	f := NewPageFetcher(c, 1, 2, logger.NewNopLogger(), nil)
	_, _, err := f.FetchPage(context.Background(), session, 1)

	require.Error(t, err)
	assert.Equal(t, 500, errs.StatusCode(err))
	assert.NoFileExists(t, c.Path(1))
}

func TestFetchPageNonJSONBody(t *testing.T) {
	session := newFakeSession()
	session.pages[1] = `<html>You need to sign in</html>`

	c := newTestCache(t, time.Hour)
	f := NewPageFetcher(c, 1, 2, logger.NewNopLogger(), nil)
	_, _, err := f.FetchPage(context.Background(), session, 1)

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
	assert.NoFileExists(t, c.Path(1))
}

func TestDecodePage(t *testing.T) {
	posts, err := DecodePage([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	posts, err = DecodePage([]byte(`[{"id":12345678901,"extra":"ignored","original_photo_url":"u"}]`))
	require.NoError(t, err)
	assert.Equal(t, int64(12345678901), posts[0].ID)
	assert.Equal(t, "u", posts[0].OriginalPhotoURL)

	_, err = DecodePage([]byte(`{"id":1}`))
	assert.Error(t, err)
}
