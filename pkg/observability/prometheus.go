package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orgtree"

// Prometheus implements every hook interface on Prometheus collectors.
type Prometheus struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	toggles       *prometheus.CounterVec
	frameChanges  *prometheus.CounterVec
	styleWarnings prometheus.Counter

	loads          *prometheus.CounterVec
	renders        *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	cacheEvents    *prometheus.CounterVec
	cacheBytes     prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpErrors     *prometheus.CounterVec
	inFlightRoutes *prometheus.GaugeVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chart", Name: "builds_total",
			Help: "Tree builds by result.",
		}, []string{"result"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "chart", Name: "build_duration_seconds",
			Help:    "Duration of tree builds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chart", Name: "toggles_total",
			Help: "Node toggles by resulting state.",
		}, []string{"state"}),
		frameChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chart", Name: "frame_changes_total",
			Help: "Reconciled node changes by kind.",
		}, []string{"kind"}),
		styleWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chart", Name: "style_warnings_total",
			Help: "Style values replaced by defaults.",
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "loads_total",
			Help: "Record file loads by result.",
		}, []string{"result"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "renders_total",
			Help: "Render runs by result.",
		}, []string{"result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "stage_duration_seconds",
			Help: "Duration of pipeline stages.",
		}, []string{"stage"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "events_total",
			Help: "Cache lookups and writes.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the cache.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Preview server responses.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "Preview server response latency.",
		}, []string{"method", "route"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "errors_total",
			Help: "Preview server handler failures.",
		}, []string{"method", "route"}),
		inFlightRoutes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "in_flight_requests",
			Help: "Requests being served.",
		}, []string{"route"}),
	}

	for _, c := range []prometheus.Collector{
		p.builds, p.buildDuration, p.toggles, p.frameChanges, p.styleWarnings,
		p.loads, p.renders, p.stageDuration,
		p.cacheEvents, p.cacheBytes,
		p.httpRequests, p.httpDuration, p.httpErrors, p.inFlightRoutes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnBuild(_ int, d time.Duration, err error) {
	p.builds.WithLabelValues(result(err)).Inc()
	p.buildDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnToggle(_, state string) { p.toggles.WithLabelValues(state).Inc() }

func (p *Prometheus) OnFrame(enter, update, exit int) {
	p.frameChanges.WithLabelValues("enter").Add(float64(enter))
	p.frameChanges.WithLabelValues("update").Add(float64(update))
	p.frameChanges.WithLabelValues("exit").Add(float64(exit))
}

func (p *Prometheus) OnStyleWarning(string, error) { p.styleWarnings.Inc() }

func (p *Prometheus) OnLoadStart(context.Context, string) {}

func (p *Prometheus) OnLoadComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	p.loads.WithLabelValues(result(err)).Inc()
	p.stageDuration.WithLabelValues("load").Observe(d.Seconds())
}

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	p.renders.WithLabelValues(result(err)).Inc()
	p.stageDuration.WithLabelValues("render").Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnRequest(_ context.Context, _, route string) {
	p.inFlightRoutes.WithLabelValues(route).Inc()
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.inFlightRoutes.WithLabelValues(route).Dec()
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, method, route string, _ error) {
	p.httpErrors.WithLabelValues(method, route).Inc()
}

var (
	_ ChartHooks    = (*Prometheus)(nil)
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
