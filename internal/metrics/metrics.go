// Package metrics counts engine runs in a private prometheus registry. The
// daemon exports it through the node_exporter textfile collector format;
// there is no HTTP endpoint.
package metrics

import (
	"catsort/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements organize.Recorder on top of prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	filesMoved    prometheus.Counter
	bytesMoved    prometheus.Counter
	runDuration   *prometheus.HistogramVec
	lastRun       *prometheus.GaugeVec
}

// NewRecorder registers the catsort collectors in a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catsort_runs_total",
			Help: "Engine runs by operation and status",
		}, []string{"operation", "status"}),
		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catsort_run_failures_total",
			Help: "Failed runs by the filter that stopped the chain",
		}, []string{"filter"}),
		filesMoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "catsort_files_moved_total",
			Help: "Files moved by engine runs",
		}),
		bytesMoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "catsort_bytes_moved_total",
			Help: "Bytes of regular files moved by engine runs",
		}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catsort_run_duration_seconds",
			Help:    "Engine run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		lastRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "catsort_last_run_timestamp_seconds",
			Help: "Start time of the latest run per managed directory",
		}, []string{"directory"}),
	}
}

// ObserveRun records one engine result.
func (r *Recorder) ObserveRun(operation string, res types.OrganizeResult) {
	r.runsTotal.WithLabelValues(operation, string(res.Status)).Inc()
	if res.Status == types.StatusSkipped {
		return
	}
	if res.Status == types.StatusFailure {
		r.failuresTotal.WithLabelValues(res.Filter).Inc()
	}
	r.filesMoved.Add(float64(res.FilesMoved))
	r.bytesMoved.Add(float64(res.BytesMoved))
	r.runDuration.WithLabelValues(operation).Observe(res.Duration.Seconds())
	if !res.Started.IsZero() {
		r.lastRun.WithLabelValues(res.Directory).Set(float64(res.Started.Unix()))
	}
}

// Registry exposes the registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current values to path in the text exposition
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
