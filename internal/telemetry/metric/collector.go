package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/yedis-go/internal/storage"
)

// StatsSource is anything that reports storage statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*storage.KVStats, error)
}

// Collector reports storage engine statistics at scrape time.
type Collector struct {
	source  StatsSource
	timeout time.Duration

	keys *prometheus.Desc
	size *prometheus.Desc
}

// NewCollector creates a collector over source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source:  source,
		timeout: 5 * time.Second,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "keys"),
			"Approximate number of stored keys, including expired ones not yet swept",
			nil, nil),
		size: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "size_bytes"),
			"Approximate storage size in bytes",
			nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.size
}

// Collect implements prometheus.Collector. Nothing is reported when the
// engine fails to answer.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.source.Stats(ctx)
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(stats.TotalKeys))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(stats.TotalSize))
}
