package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	zaplog "github.com/krisalay/clientsync/logger"
	"github.com/krisalay/clientsync/mutation"
	"github.com/krisalay/clientsync/types"
)

var (
	_ types.Metrics     = (*Manager)(nil)
	_ mutation.Recorder = (*Manager)(nil)
)

/*
Manager holds the Prometheus collectors of the sync layer on its own registry.

It is the cache's types.Metrics, the mutation tracker's Recorder and the chart
fetcher's Recorder at once.
*/
type Manager struct {
	Registry *prometheus.Registry

	CacheEvents   *prometheus.CounterVec
	Mutations     *prometheus.CounterVec
	ChartAttempts *prometheus.CounterVec
}

func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	cacheEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_events_total",
		Help:      "Cache lookups and removals by cache namespace and event.",
	}, []string{"cache", "event"})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Settled optimistic mutations by kind and final state.",
	}, []string{"kind", "state"})

	chartAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chart_attempts_total",
		Help:      "Chart fetch attempts by outcome.",
	}, []string{"outcome"})

	registry.MustRegister(
		cacheEvents,
		mutations,
		chartAttempts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:      registry,
		CacheEvents:   cacheEvents,
		Mutations:     mutations,
		ChartAttempts: chartAttempts,
	}
}

func (m *Manager) Hit(ns string)        { m.CacheEvents.WithLabelValues(ns, "hit").Inc() }
func (m *Manager) Miss(ns string)       { m.CacheEvents.WithLabelValues(ns, "miss").Inc() }
func (m *Manager) Expire(ns string)     { m.CacheEvents.WithLabelValues(ns, "expire").Inc() }
func (m *Manager) Invalidate(ns string) { m.CacheEvents.WithLabelValues(ns, "invalidate").Inc() }

func (m *Manager) Settled(kind string, state mutation.State) {
	m.Mutations.WithLabelValues(kind, string(state)).Inc()
}

func (m *Manager) ChartAttempt(outcome string) {
	m.ChartAttempts.WithLabelValues(outcome).Inc()
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables it.
func Serve(ctx context.Context, addr string, registry *prometheus.Registry, logger *zap.Logger) error {
	logger = zaplog.OrNop(logger)
	if addr == "" {
		logger.Info("metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server starting", zap.String("addr", addr), zap.String("path", "/metrics"))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
