// Package metrics counts processed and skipped work for a run and exports the
// counters in the Prometheus text format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rafaelsntn/keywords-common-crawl/models"
)

// Recorder holds the counters of one run on a private registry.
type Recorder struct {
	registry     *prometheus.Registry
	segments     *prometheus.CounterVec
	records      *prometheus.CounterVec
	observations prometheus.Counter
	bytes        prometheus.Counter
	phrases      prometheus.Gauge
}

// NewRecorder creates a Recorder with every counter registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyphrase_segments_total",
			Help: "Archive segments processed, by outcome.",
		}, []string{"outcome", "reason"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyphrase_records_total",
			Help: "Archive records seen, by outcome and skip reason.",
		}, []string{"outcome", "reason"}),
		observations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keyphrase_observations_total",
			Help: "Keyword observations committed to the vote store.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keyphrase_downloaded_bytes_total",
			Help: "Bytes of archive segments downloaded.",
		}),
		phrases: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keyphrase_phrases",
			Help: "Distinct phrases in the published output.",
		}),
	}
	r.registry.MustRegister(r.segments, r.records, r.observations, r.bytes, r.phrases)
	return r
}

// Registry exposes the registry, for tests and HTTP exposition.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveSegment counts a finished segment together with its records: the skipped
// ones by reason and, for a successful segment, the ones that produced a vote.
func (r *Recorder) ObserveSegment(res models.SegmentResult) {
	r.segments.WithLabelValues(res.Outcome.Status, res.Outcome.Reason).Inc()
	r.bytes.Add(float64(res.Bytes))

	for reason, n := range res.Skipped {
		r.records.WithLabelValues(models.StatusSkipped, reason).Add(float64(n))
	}
	if res.Outcome.IsOK() {
		r.records.WithLabelValues(models.StatusOK, "").Add(float64(res.Observations))
		r.observations.Add(float64(res.Observations))
	}
}

// SetPhrases records the number of distinct output phrases.
func (r *Recorder) SetPhrases(n int) {
	r.phrases.Set(float64(n))
}

// WriteTextfile writes all counters to path for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
