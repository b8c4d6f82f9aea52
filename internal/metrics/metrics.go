// Package metrics holds per-run counters that can be exported as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "audiobooker"

// download outcomes
const (
	OutcomeDownloaded = "downloaded"
	OutcomeSkipped    = "skipped"
	OutcomeExpired    = "expired"
	OutcomeInvalid    = "invalid"
	OutcomeFailed     = "failed"
)

// tool operations
const (
	OpAnalyze = "analyze"
	OpExtract = "extract"
)

// Recorder owns one registry per run so repeated runs in a process never collide.
type Recorder struct {
	registry *prometheus.Registry

	Locators       prometheus.Counter
	Downloads      *prometheus.CounterVec
	DownloadBytes  prometheus.Counter
	Silences       prometheus.Counter
	Segments       prometheus.Counter
	Published      prometheus.Counter
	ToolDuration   *prometheus.HistogramVec
	LastRunSuccess prometheus.Gauge
}

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		Locators: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locators_total",
			Help:      "Distinct media locators found in the capture",
		}),
		Downloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Media parts by download outcome",
		}, []string{"outcome"}),
		DownloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_bytes_total",
			Help:      "Bytes fetched from the media host",
		}),
		Silences: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "silences_total",
			Help:      "Silences accepted as chapter breaks",
		}),
		Segments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Chapter files written",
		}),
		Published: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "Files uploaded to object storage",
		}),
		ToolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "ffmpeg invocation time by operation",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"op"}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without error",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveTool records how long one tool invocation took.
func (r *Recorder) ObserveTool(op string, started time.Time) {
	r.ToolDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// MarkSuccess stamps the run as successful.
func (r *Recorder) MarkSuccess(at time.Time) {
	r.LastRunSuccess.Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
