// Package metrics exposes harvest progress as Prometheus metrics, either
// written to a node_exporter textfile at the end of a run or served over
// HTTP while a long backfill is running.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paperharvest/pkg/logger"
)

// Namespace prefixes every metric name
const Namespace = "paperharvest"

// Metrics holds the harvest collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	UnitsTotal         *prometheus.CounterVec
	RecordsTotal       prometheus.Counter
	FetchAttemptsTotal *prometheus.CounterVec
	UnitDuration       prometheus.Histogram
	LastSuccess        prometheus.Gauge
}

// New creates the collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UnitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "units_total",
			Help:      "Units processed, by outcome",
		}, []string{"outcome"}),
		RecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_total",
			Help:      "Records fetched from the source",
		}),
		FetchAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_attempts_total",
			Help:      "Unit fetch attempts, by result",
		}, []string{"result"}),
		UnitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "unit_duration_seconds",
			Help:      "Wall time spent fetching one unit, retries included",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4min
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without aborting",
		}),
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveUnit counts one finished unit
func (m *Metrics) ObserveUnit(outcome string, records int, took time.Duration) {
	if m == nil {
		return
	}
	m.UnitsTotal.WithLabelValues(outcome).Inc()
	m.RecordsTotal.Add(float64(records))
	if took > 0 {
		m.UnitDuration.Observe(took.Seconds())
	}
}

// ObserveAttempt counts one fetch attempt; result is "success" or "error"
func (m *Metrics) ObserveAttempt(result string) {
	if m == nil {
		return
	}
	m.FetchAttemptsTotal.WithLabelValues(result).Inc()
}

// MarkSuccess records the completion time of a run
func (m *Metrics) MarkSuccess(t time.Time) {
	if m == nil {
		return
	}
	m.LastSuccess.Set(float64(t.Unix()))
}

// WriteTextfile writes the current values in the text exposition format,
// atomically, for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, log logger.Logger) error {
	if m == nil || addr == "" {
		return nil
	}
	log = logger.OrNop(log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.InfoWithFields("serving metrics", map[string]interface{}{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
