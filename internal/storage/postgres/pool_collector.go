package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	poolAcquiredDesc = prometheus.NewDesc(
		"db_pool_acquired_connections",
		"Connections currently checked out of the pool.",
		nil, prometheus.Labels{"driver": "postgres"},
	)
	poolIdleDesc = prometheus.NewDesc(
		"db_pool_idle_connections",
		"Idle connections held by the pool.",
		nil, prometheus.Labels{"driver": "postgres"},
	)
	poolMaxDesc = prometheus.NewDesc(
		"db_pool_max_connections",
		"Maximum size of the pool.",
		nil, prometheus.Labels{"driver": "postgres"},
	)
	poolWaitTotalDesc = prometheus.NewDesc(
		"db_pool_wait_total",
		"Acquires that had to wait for a connection because the pool was exhausted.",
		nil, prometheus.Labels{"driver": "postgres"},
	)
)

// PoolCollector reports pgxpool statistics on each scrape.
type PoolCollector struct {
	stat func() *pgxpool.Stat
}

// NewPoolCollector creates a PoolCollector reading stats from stat.
func NewPoolCollector(stat func() *pgxpool.Stat) *PoolCollector {
	return &PoolCollector{stat: stat}
}

// Describe sends the descriptors for the pool metrics.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolAcquiredDesc
	ch <- poolIdleDesc
	ch <- poolMaxDesc
	ch <- poolWaitTotalDesc
}

// Collect reads the current pool stats and sends them as metrics.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.stat == nil {
		return
	}
	st := c.stat()
	if st == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(poolAcquiredDesc, prometheus.GaugeValue, float64(st.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(poolIdleDesc, prometheus.GaugeValue, float64(st.IdleConns()))
	ch <- prometheus.MustNewConstMetric(poolMaxDesc, prometheus.GaugeValue, float64(st.MaxConns()))
	ch <- prometheus.MustNewConstMetric(poolWaitTotalDesc, prometheus.CounterValue, float64(st.EmptyAcquireCount()))
}
