package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LiveStats provides the collector access to handler state.
type LiveStats interface {
	UploadsInFlight() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	stats LiveStats

	uploadsInFlight *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// stats may be nil (gauges report 0).
func NewCollector(stats LiveStats) *Collector {
	return &Collector{
		stats: stats,
		uploadsInFlight: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "uploads_in_flight"),
			"Current number of uploads waiting on the backend.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.uploadsInFlight
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	inFlight := 0
	if c.stats != nil {
		inFlight = c.stats.UploadsInFlight()
	}
	ch <- prometheus.MustNewConstMetric(c.uploadsInFlight, prometheus.GaugeValue, float64(inFlight))
}
