package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := NewRecorder()

	r.PageFetched(SourceCache)
	r.PageFetched(SourceNetwork)
	r.PageFetched(SourceNetwork)
	r.PhotoProcessed(true)
	r.PhotoProcessed(false)
	r.PhotoFailed("embedding")
	r.Retried()

	assert.Equal(t, 1.0, testutil.ToFloat64(r.PagesFetched.WithLabelValues(SourceCache)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.PagesFetched.WithLabelValues(SourceNetwork)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.PhotosProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PhotosDownload))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PhotosFailed.WithLabelValues("embedding")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Retries))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.PhotoProcessed(true)
	start := time.Unix(1700000000, 0)
	r.RunFinished(start, start.Add(90*time.Second))

	path := filepath.Join(t.TempDir(), "tcphotos.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tcphotos_photos_downloaded_total 1")
	assert.Contains(t, string(data), "tcphotos_run_duration_seconds 90")
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.PageFetched(SourceCache)
	r.PhotoProcessed(true)
	r.PhotoFailed("x")
	r.Retried()
	r.RunFinished(time.Now(), time.Now())
	assert.NoError(t, r.WriteTextfile("ignored"))
}
