package scraper

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"tcphotos/pkg/cache"
	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/metadata"
)

// fakeSession serves canned pages and photos and counts every call
type fakeSession struct {
	mu         sync.Mutex
	pages      map[int]string
	photos     map[string][]byte
	pageCalls  map[int]int
	downloads  map[string]int
	pageErrors map[int]error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:      map[int]string{},
		photos:     map[string][]byte{},
		pageCalls:  map[int]int{},
		downloads:  map[string]int{},
		pageErrors: map[int]error{},
	}
}

func (f *fakeSession) FetchPostsPage(ctx context.Context, schoolID, childID int64, page int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls[page]++
	if err := f.pageErrors[page]; err != nil {
		return nil, err
	}
	body, ok := f.pages[page]
	if !ok {
		body = "[]"
	}
	return []byte(body), nil
}

func (f *fakeSession) Download(ctx context.Context, photoURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads[photoURL]++
	data, ok := f.photos[photoURL]
	if !ok {
		return nil, errs.Request("download photo", 404)
	}
	return data, nil
}

func (f *fakeSession) totalPageCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.pageCalls {
		n += c
	}
	return n
}

type fakeAuthenticator struct {
	session Session
	err     error
	calls   int
}

func (a *fakeAuthenticator) Authenticate(ctx context.Context, email, password string) (Session, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.session, nil
}

// recordingTagger captures IPTC calls instead of running exiftool
type recordingTagger struct {
	calls []taggerCall
	err   error
}

type taggerCall struct {
	Path   string
	Fields metadata.IPTC
}

func (r *recordingTagger) Tag(ctx context.Context, path string, fields metadata.IPTC) error {
	r.calls = append(r.calls, taggerCall{Path: path, Fields: fields})
	return r.err
}

func postJSON(id int64, photoURL, html, author, createdAt string) string {
	return fmt.Sprintf(`{"id":%d,"original_photo_url":%q,"html":%q,"author":%q,"created_at":%q}`,
		id, photoURL, html, author, createdAt)
}

func newTestCache(t *testing.T, timeout time.Duration) *cache.PageCache {
	t.Helper()
	c, err := cache.New(t.TempDir(), timeout, logger.NewNopLogger())
	require.NoError(t, err)
	return c
}
