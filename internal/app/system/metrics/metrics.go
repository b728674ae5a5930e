// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mentorconnect"

var (
	// DirectoryQueries counts directory page fetches by target role and result.
	DirectoryQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "directory",
		Name:      "queries_total",
		Help:      "Directory page fetches by target role and result.",
	}, []string{"role", "result"})

	// DirectoryDuration tracks directory page latency.
	DirectoryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "directory",
		Name:      "query_duration_seconds",
		Help:      "Directory page fetch duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	// ConnectionActions counts connection transitions by action and outcome
	// (changed, notice, conflict, error).
	ConnectionActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "connections",
		Name:      "actions_total",
		Help:      "Connection actions by action and outcome.",
	}, []string{"action", "outcome"})

	// MessagesSent counts stored direct messages.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "messages",
		Name:      "sent_total",
		Help:      "Direct messages stored.",
	})

	// RealtimeSubscriptions is the number of live broker subscriptions.
	RealtimeSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "subscriptions",
		Help:      "Active realtime subscriptions.",
	})

	// RealtimePublishErrors counts failed event publishes.
	RealtimePublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "publish_errors_total",
		Help:      "Realtime events that could not be published.",
	})
)

// ObserveSince records the seconds elapsed since start on h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Handler serves the default registry in the Prometheus text format. When
// token is set, scrapes must send it as "Authorization: Bearer <token>".
func Handler(token string) http.Handler {
	h := promhttp.Handler()
	if token == "" {
		return h
	}
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="metrics"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Counts are platform totals read at scrape time.
type Counts struct {
	Students      int64
	Alumni        int64
	Incomplete    int64
	Connections   int64
	Pending       int64
	Conversations int64
	Messages      int64
}

// CountsFunc reads current platform totals.
type CountsFunc func(ctx context.Context) Counts

// PlatformCollector exposes Counts as gauges, read when Prometheus scrapes.
type PlatformCollector struct {
	fetch   CountsFunc
	timeout time.Duration
	users   *prometheus.Desc
	pairs   *prometheus.Desc
	convos  *prometheus.Desc
	msgs    *prometheus.Desc
}

// NewPlatformCollector returns a collector backed by fetch.
func NewPlatformCollector(fetch CountsFunc, timeout time.Duration) *PlatformCollector {
	return &PlatformCollector{
		fetch:   fetch,
		timeout: timeout,
		users: prometheus.NewDesc(prometheus.BuildFQName(namespace, "platform", "users"),
			"Users by role and profile state.", []string{"role", "profile"}, nil),
		pairs: prometheus.NewDesc(prometheus.BuildFQName(namespace, "platform", "pairs"),
			"Mentor pairs by state.", []string{"state"}, nil),
		convos: prometheus.NewDesc(prometheus.BuildFQName(namespace, "platform", "conversations"),
			"Stored conversations.", nil, nil),
		msgs: prometheus.NewDesc(prometheus.BuildFQName(namespace, "platform", "messages"),
			"Stored messages.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PlatformCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.users
	ch <- c.pairs
	ch <- c.convos
	ch <- c.msgs
}

// Collect implements prometheus.Collector.
func (c *PlatformCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	n := c.fetch(ctx)

	ch <- prometheus.MustNewConstMetric(c.users, prometheus.GaugeValue, float64(n.Students), "student", "complete")
	ch <- prometheus.MustNewConstMetric(c.users, prometheus.GaugeValue, float64(n.Alumni), "alumni", "complete")
	ch <- prometheus.MustNewConstMetric(c.users, prometheus.GaugeValue, float64(n.Incomplete), "any", "incomplete")
	ch <- prometheus.MustNewConstMetric(c.pairs, prometheus.GaugeValue, float64(n.Connections), "connected")
	ch <- prometheus.MustNewConstMetric(c.pairs, prometheus.GaugeValue, float64(n.Pending), "requested")
	ch <- prometheus.MustNewConstMetric(c.convos, prometheus.GaugeValue, float64(n.Conversations))
	ch <- prometheus.MustNewConstMetric(c.msgs, prometheus.GaugeValue, float64(n.Messages))
}
