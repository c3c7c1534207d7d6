package stats

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	draftsDesc = prometheus.NewDesc(
		"catalogsync_drafts_total",
		"Drafts processed, by entity kind and outcome.",
		[]string{"kind", "outcome"}, nil,
	)
	waitingDesc = prometheus.NewDesc(
		"catalogsync_waiting_drafts",
		"Drafts parked on unresolved same-kind references.",
		[]string{"kind"}, nil,
	)
	durationDesc = prometheus.NewDesc(
		"catalogsync_run_duration_seconds",
		"Wall-clock duration of the last run.",
		[]string{"kind"}, nil,
	)
)

// Collector exports the latest run statistics of each kind to Prometheus.
type Collector struct {
	mu   sync.Mutex
	runs map[string]*Statistics
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{runs: map[string]*Statistics{}}
}

// Track exports s, replacing earlier statistics of the same kind.
func (c *Collector) Track(s *Statistics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[s.Kind()] = s
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- draftsDesc
	ch <- waitingDesc
	ch <- durationDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	runs := make([]*Statistics, 0, len(c.runs))
	for _, s := range c.runs {
		runs = append(runs, s)
	}
	c.mu.Unlock()

	for _, s := range runs {
		snap := s.Snapshot()
		outcomes := []struct {
			name  string
			value int
		}{
			{"created", snap.Created},
			{"updated", snap.Updated},
			{"up_to_date", snap.UpToDate},
			{"failed", snap.Failed},
		}
		for _, o := range outcomes {
			ch <- prometheus.MustNewConstMetric(draftsDesc, prometheus.CounterValue, float64(o.value), snap.Kind, o.name)
		}
		ch <- prometheus.MustNewConstMetric(waitingDesc, prometheus.GaugeValue, float64(snap.Waiting), snap.Kind)
		ch <- prometheus.MustNewConstMetric(durationDesc, prometheus.GaugeValue, snap.Elapsed.Seconds(), snap.Kind)
	}
}
