package credentials

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	dispatchedDesc = prometheus.NewDesc(
		"research_credential_dispatched_total",
		"Oracle calls dispatched per credential",
		[]string{"credential"}, nil,
	)
	exhaustedDesc = prometheus.NewDesc(
		"research_credential_exhausted_total",
		"Rate-limit rejections per credential",
		[]string{"credential"}, nil,
	)
)

// Collector exports Stats at scrape time. Credentials are labelled by index,
// never by secret.
func (p *Pool) Collector() prometheus.Collector {
	return poolCollector{pool: p}
}

type poolCollector struct {
	pool *Pool
}

func (c poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- dispatchedDesc
	ch <- exhaustedDesc
}

func (c poolCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.pool.Stats() {
		label := strconv.Itoa(s.Index)
		ch <- prometheus.MustNewConstMetric(dispatchedDesc, prometheus.CounterValue, float64(s.Dispatched), label)
		ch <- prometheus.MustNewConstMetric(exhaustedDesc, prometheus.CounterValue, float64(s.Exhausted), label)
	}
}
