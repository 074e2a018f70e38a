// Package metrics exposes pipeline counters to Prometheus. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amishk599/jobscout/internal/model"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	sourceFetches  *prometheus.CounterVec
	sourceRecords  *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	stageRecords   *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	lastSuccess    prometheus.Gauge
	estimates      *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_source_fetches_total",
			Help: "Source fetches by source and final state.",
		}, []string{"source", "state"}),
		sourceRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_source_records_total",
			Help: "Raw records returned per source.",
		}, []string{"source"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobscout_source_fetch_duration_seconds",
			Help:    "Duration of each source fetch.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"source"}),
		stageRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_stage_records_total",
			Help: "Records leaving each pipeline stage.",
		}, []string{"stage"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_rejections_total",
			Help: "Rejected records by reason.",
		}, []string{"reason"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobscout_run_duration_seconds",
			Help:    "Duration of each pipeline run.",
			Buckets: []float64{30, 60, 300, 900, 1800, 3600},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobscout_last_success_timestamp_seconds",
			Help: "Unix time of the last run that advanced the watermark.",
		}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_salary_estimates_total",
			Help: "Salary resolutions by method.",
		}, []string{"method"}),
	}
	m.registry.MustRegister(
		m.sourceFetches, m.sourceRecords, m.sourceDuration, m.stageRecords,
		m.rejections, m.runs, m.runDuration, m.lastSuccess, m.estimates,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveSource(st model.SourceStatus) {
	if m == nil {
		return
	}
	m.sourceFetches.WithLabelValues(st.Name, string(st.State)).Inc()
	if st.State == model.SourceSkipped {
		return
	}
	m.sourceRecords.WithLabelValues(st.Name).Add(float64(st.Records))
	m.sourceDuration.WithLabelValues(st.Name).Observe(st.Duration.Seconds())
}

func (m *Metrics) ObserveStage(stage string, n int) {
	if m == nil {
		return
	}
	m.stageRecords.WithLabelValues(stage).Add(float64(n))
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveEstimate(method string) {
	if m == nil {
		return
	}
	m.estimates.WithLabelValues(method).Inc()
}

// ObserveRun records a finished run. outcome is "ok", "cancelled" or "error".
func (m *Metrics) ObserveRun(outcome string, d time.Duration, advanced bool) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(d.Seconds())
	if advanced {
		m.lastSuccess.SetToCurrentTime()
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
