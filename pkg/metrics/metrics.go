package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Page sources
const (
	SourceCache   = "cache"
	SourceNetwork = "network"
)

// Recorder collects the counters of one run on a private registry. A nil
// *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	PagesFetched    *prometheus.CounterVec
	PhotosProcessed prometheus.Counter
	PhotosDownload  prometheus.Counter
	PhotosFailed    *prometheus.CounterVec
	Retries         prometheus.Counter
	RunDuration     prometheus.Gauge
	LastRun         prometheus.Gauge
}

// NewRecorder registers the run metrics on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		PagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcphotos_pages_fetched_total",
				Help: "Posts pages retrieved, by source.",
			},
			[]string{"source"},
		),
		PhotosProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tcphotos_photos_processed_total",
			Help: "Photo records embedded successfully.",
		}),
		PhotosDownload: factory.NewCounter(prometheus.CounterOpts{
			Name: "tcphotos_photos_downloaded_total",
			Help: "Photos downloaded from the portal.",
		}),
		PhotosFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcphotos_photos_failed_total",
				Help: "Photo records that failed, by error type.",
			},
			[]string{"error_type"},
		),
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "tcphotos_retries_total",
			Help: "Network calls retried after a transient failure.",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tcphotos_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tcphotos_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) PageFetched(source string) {
	if r == nil {
		return
	}
	r.PagesFetched.WithLabelValues(source).Inc()
}

func (r *Recorder) PhotoProcessed(downloaded bool) {
	if r == nil {
		return
	}
	r.PhotosProcessed.Inc()
	if downloaded {
		r.PhotosDownload.Inc()
	}
}

func (r *Recorder) PhotoFailed(errorType string) {
	if r == nil {
		return
	}
	r.PhotosFailed.WithLabelValues(errorType).Inc()
}

func (r *Recorder) Retried() {
	if r == nil {
		return
	}
	r.Retries.Inc()
}

// RunFinished records the run's duration and completion time
func (r *Recorder) RunFinished(started, finished time.Time) {
	if r == nil {
		return
	}
	r.RunDuration.Set(finished.Sub(started).Seconds())
	r.LastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
