package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DBQueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Repository query latency by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 3, 9),
		},
		[]string{"operation"},
	)

	DBErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Repository failures by operation and cause.",
		},
		[]string{"operation", "cause"},
	)
)

// RecordQuery observes one repository call. Not-found results are not errors.
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return
	}
	cause := "query"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		cause = "timeout"
	case errors.Is(err, context.Canceled):
		cause = "canceled"
	}
	DBErrors.WithLabelValues(operation, cause).Inc()
}

type poolSnapshot struct {
	total, acquired, idle, max int32
	waits                      int64
	waitTime                   time.Duration
}

// poolCollector reads pool statistics at scrape time.
type poolCollector struct {
	snapshot func() (poolSnapshot, bool)

	conns    *prometheus.Desc
	maxConns *prometheus.Desc
	waits    *prometheus.Desc
	waitSecs *prometheus.Desc
}

// NewPoolCollector exposes pgxpool connection statistics. A nil pool reports
// nothing.
func NewPoolCollector(pool *pgxpool.Pool) prometheus.Collector {
	return newPoolCollector(func() (poolSnapshot, bool) {
		if pool == nil {
			return poolSnapshot{}, false
		}
		s := pool.Stat()
		return poolSnapshot{
			total:    s.TotalConns(),
			acquired: s.AcquiredConns(),
			idle:     s.IdleConns(),
			max:      s.MaxConns(),
			waits:    s.EmptyAcquireCount(),
			waitTime: s.AcquireDuration(),
		}, true
	})
}

func newPoolCollector(snapshot func() (poolSnapshot, bool)) *poolCollector {
	name := func(n string) string { return prometheus.BuildFQName(namespace, "db_pool", n) }
	return &poolCollector{
		snapshot: snapshot,
		conns:    prometheus.NewDesc(name("connections"), "Pool connections by state.", []string{"state"}, nil),
		maxConns: prometheus.NewDesc(name("max_connections"), "Configured pool size.", nil, nil),
		waits:    prometheus.NewDesc(name("empty_acquire_total"), "Acquires that had to wait for a free connection.", nil, nil),
		waitSecs: prometheus.NewDesc(name("acquire_seconds_total"), "Cumulative time spent acquiring connections.", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.conns
	ch <- c.maxConns
	ch <- c.waits
	ch <- c.waitSecs
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s, ok := c.snapshot()
	if !ok {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.acquired), "acquired")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.idle), "idle")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.total), "total")
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(s.max))
	ch <- prometheus.MustNewConstMetric(c.waits, prometheus.CounterValue, float64(s.waits))
	ch <- prometheus.MustNewConstMetric(c.waitSecs, prometheus.CounterValue, s.waitTime.Seconds())
}
