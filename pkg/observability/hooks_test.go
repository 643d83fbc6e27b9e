package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Chart hooks
	ch := NoopChartHooks{}
	ch.OnBuild(3, time.Millisecond, nil)
	ch.OnToggle("A", "expanded")
	ch.OnFrame(1, 2, 3)
	ch.OnStyleWarning("A", errors.New("bad width"))

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "data.json")
	p.OnLoadComplete(ctx, "data.json", 14, time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "artifact")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/api/nodes/{id}/toggle")
	h.OnResponse(ctx, "POST", "/api/nodes/{id}/toggle", 200, time.Second)
	h.OnError(ctx, "POST", "/api/nodes/{id}/toggle", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Chart().(NoopChartHooks); !ok {
		t.Error("Chart() should return NoopChartHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customChart := &testChartHooks{}
	SetChartHooks(customChart)
	if Chart() != customChart {
		t.Error("SetChartHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Chart().(NoopChartHooks); !ok {
		t.Error("Reset() should restore NoopChartHooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestPrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("NewPrometheus: %v", err)
	}
	ctx := context.Background()

	p.OnBuild(3, time.Millisecond, nil)
	p.OnBuild(0, time.Millisecond, errors.New("cycle"))
	p.OnToggle("A", "expanded")
	p.OnToggle("A", "collapsed")
	p.OnToggle("B", "expanded")
	p.OnFrame(2, 5, 1)
	p.OnStyleWarning("A", errors.New("bad"))
	p.OnCacheHit(ctx, "artifact")
	p.OnCacheSet(ctx, "artifact", 512)
	p.OnRequest(ctx, "GET", "/chart.svg")
	p.OnResponse(ctx, "GET", "/chart.svg", 200, time.Millisecond)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"ok builds", p.builds.WithLabelValues("ok"), 1},
		{"failed builds", p.builds.WithLabelValues("error"), 1},
		{"expanded toggles", p.toggles.WithLabelValues("expanded"), 2},
		{"entered", p.frameChanges.WithLabelValues("enter"), 2},
		{"updated", p.frameChanges.WithLabelValues("update"), 5},
		{"exited", p.frameChanges.WithLabelValues("exit"), 1},
		{"style warnings", p.styleWarnings, 1},
		{"cache hits", p.cacheEvents.WithLabelValues("artifact", "hit"), 1},
		{"cache bytes", p.cacheBytes, 512},
		{"requests", p.httpRequests.WithLabelValues("GET", "/chart.svg", "200"), 1},
		{"in flight", p.inFlightRoutes.WithLabelValues("/chart.svg"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := NewPrometheus(reg); err == nil {
		t.Error("registering twice should fail")
	}
}

// Test implementations
type testChartHooks struct{ NoopChartHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
