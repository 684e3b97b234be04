package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/juststeveking/vpnwatch/internal/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vpnwatch"

// Collector records monitor activity into a dedicated Prometheus registry
type Collector struct {
	registry      *prometheus.Registry
	probes        *prometheus.CounterVec
	probesSkipped prometheus.Counter
	probeDuration prometheus.Histogram
	failCount     prometheus.Gauge
	reconnects    *prometheus.CounterVec
	lastReconnect prometheus.Gauge
}

// NewCollector builds a collector with all metrics registered
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Probes sent to the target, by result.",
		}, []string{"result"}),
		probesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_skipped_total",
			Help:      "Probes skipped because a reconnect cooldown was active.",
		}),
		probeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Time taken by each probe.",
			Buckets:   prometheus.DefBuckets,
		}),
		failCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fail_count",
			Help:      "Current number of consecutive failed probes.",
		}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Reconnect sequences, by outcome and failed stage.",
		}, []string{"outcome", "stage"}),
		lastReconnect: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reconnect_timestamp_seconds",
			Help:      "Unix time the last reconnect sequence finished.",
		}),
	}

	c.registry.MustRegister(c.probes, c.probesSkipped, c.probeDuration, c.failCount, c.reconnects, c.lastReconnect)
	return c
}

// ProbeObserved implements monitor.Recorder
func (c *Collector) ProbeObserved(result monitor.ProbeResult) {
	c.probes.WithLabelValues(probeLabel(result)).Inc()
	if result.ResponseTime > 0 {
		c.probeDuration.Observe(result.ResponseTime.Seconds())
	}
}

// ProbeSkipped implements monitor.Recorder
func (c *Collector) ProbeSkipped() {
	c.probesSkipped.Inc()
}

// FailCount implements monitor.Recorder
func (c *Collector) FailCount(n int) {
	c.failCount.Set(float64(n))
}

// ReconnectFinished implements monitor.Recorder
func (c *Collector) ReconnectFinished(event monitor.ReconnectEvent) {
	outcome, stage := "success", ""
	if !event.OK() {
		outcome, stage = "failure", string(event.Stage)
	}
	c.reconnects.WithLabelValues(outcome, stage).Inc()
	c.lastReconnect.Set(float64(event.FinishedAt.Unix()))
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler exposes the registry over HTTP
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is cancelled
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func probeLabel(result monitor.ProbeResult) string {
	switch {
	case result.Err != nil:
		return "error"
	case result.Healthy:
		return "ok"
	default:
		return strconv.Itoa(result.StatusCode)
	}
}

var _ monitor.Recorder = (*Collector)(nil)
