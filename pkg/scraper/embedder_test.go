package scraper

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tcphotos/internal/testutil"
	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/metadata"
	"tcphotos/pkg/portal"
	"tcphotos/pkg/storage"
)

func newTestEmbedder(t *testing.T, tagger metadata.Tagger, dryRun bool) (*Embedder, *storage.Manager) {
	t.Helper()
	sm, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	return NewEmbedder(EmbedderOptions{
		Storage:  sm,
		Tagger:   tagger,
		Location: metadata.Coordinate{Latitude: 40, Longitude: -73},
		Keywords: "Montessori",
		TimeZone: time.UTC,
		DryRun:   dryRun,
		Logger:   logger.NewNopLogger(),
	}), sm
}

var samplePost = portal.Post{
	ID:               42,
	OriginalPhotoURL: "http://portal/42.jpg",
	HTML:             "<p>Hi</p>",
	Author:           "Jane",
	CreatedAt:        "2024-01-01T10:00:00Z",
}

func TestEmbedDownloadsAndTags(t *testing.T) {
	session := newFakeSession()
	session.photos[samplePost.OriginalPhotoURL] = testutil.ExifJPEG(t)
	tagger := &recordingTagger{}
	e, sm := newTestEmbedder(t, tagger, false)

	result, err := e.Embed(context.Background(), session, samplePost)
	require.NoError(t, err)

	assert.True(t, result.Downloaded)
	assert.Equal(t, sm.PhotoPath(42), result.Path)
	assert.Equal(t, "Hi", result.Description)
	assert.Equal(t, "Jane", result.Author)

	require.Len(t, tagger.calls, 1)
	assert.Equal(t, metadata.IPTC{ObjectName: "Hi", ByLine: "Jane", Keywords: "Montessori"}, tagger.calls[0].Fields)

	info, err := os.Stat(result.Path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
}

func TestEmbedIsIdempotent(t *testing.T) {
	session := newFakeSession()
	session.photos[samplePost.OriginalPhotoURL] = testutil.ExifJPEG(t)
	tagger := &recordingTagger{}
	e, _ := newTestEmbedder(t, tagger, false)

	first, err := e.Embed(context.Background(), session, samplePost)
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), session, samplePost)
	require.NoError(t, err)

	assert.True(t, first.Downloaded)
	assert.False(t, second.Downloaded)
	assert.Equal(t, 1, session.downloads[samplePost.OriginalPhotoURL], "photo fetched once")
	assert.Len(t, tagger.calls, 2, "metadata re-embedded every run")
}

func TestEmbedExistingFileSkipsNetwork(t *testing.T) {
	session := newFakeSession()
	e, sm := newTestEmbedder(t, &recordingTagger{}, false)
	testutil.WriteFile(t, sm.PhotoPath(42), testutil.ExifJPEG(t))

	result, err := e.Embed(context.Background(), session, samplePost)
	require.NoError(t, err)
	assert.False(t, result.Downloaded)
	assert.Empty(t, session.downloads)
}

func TestEmbedFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*fakeSession, *storage.Manager)
		tagger *recordingTagger
		post   portal.Post
	}{
		{
			name:   "download fails",
			setup:  func(*fakeSession, *storage.Manager) {},
			tagger: &recordingTagger{},
			post:   samplePost,
		},
		{
			name: "no exif container",
			setup: func(s *fakeSession, _ *storage.Manager) {
				s.photos[samplePost.OriginalPhotoURL] = testutil.PlainJPEG(t)
			},
			tagger: &recordingTagger{},
			post:   samplePost,
		},
		{
			name: "tagger fails",
			setup: func(s *fakeSession, _ *storage.Manager) {
				s.photos[samplePost.OriginalPhotoURL] = testutil.ExifJPEG(t)
			},
			tagger: &recordingTagger{err: errors.New("exit status 1")},
			post:   samplePost,
		},
		{
			name:   "bad timestamp",
			setup:  func(*fakeSession, *storage.Manager) {},
			tagger: &recordingTagger{},
			post:   portal.Post{ID: 42, OriginalPhotoURL: "u", CreatedAt: "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := newFakeSession()
			e, sm := newTestEmbedder(t, tt.tagger, false)
			tt.setup(session, sm)

			_, err := e.Embed(context.Background(), session, tt.post)
			require.Error(t, err)
			assert.True(t, errs.IsType(err, errs.ErrorTypeEmbedding))
			assert.Contains(t, err.Error(), "embed photo 42")
		})
	}
}

func TestEmbedWithoutExifContainer(t *testing.T) {
	session := newFakeSession()
	session.photos[samplePost.OriginalPhotoURL] = testutil.PlainJPEG(t)
	tagger := &recordingTagger{}
	e, _ := newTestEmbedder(t, tagger, false)

	result, err := e.Embed(context.Background(), session, samplePost)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, exif.ErrNoExif)
	assert.Empty(t, tagger.calls, "tagging is not attempted")
}

func TestEmbedDryRun(t *testing.T) {
	session := newFakeSession()
	tagger := &recordingTagger{}
	e, sm := newTestEmbedder(t, tagger, true)

	result, err := e.Embed(context.Background(), session, samplePost)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.True(t, result.Downloaded, "reports that a download would happen")
	assert.Empty(t, session.downloads)
	assert.Empty(t, tagger.calls)
	assert.False(t, sm.Exists(42))
}
