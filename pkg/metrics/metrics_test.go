package metrics

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test", "solver")

	if m.SolvesTotal == nil || m.SolveDuration == nil || m.DualIterations == nil {
		t.Fatal("solve metrics should be initialized")
	}

	// Повторная регистрация в новом реестре не паникует
	NewMetrics(prometheus.NewRegistry(), "test", "solver")
}

func TestGet(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	defaultMetrics = nil

	m := Get()
	if m == nil {
		t.Fatal("Get() should not return nil")
	}
	if m2 := Get(); m2 != m {
		t.Error("Get() should return same instance")
	}
}

func TestRecordSolve(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test", "record")

	m.RecordSolve(SolveRecord{
		Enumerator: "eppstein",
		Status:     "optimal",
		Duration:   20 * time.Millisecond,
		Iterations: 3,
		Paths:      2,
		Gap:        0,
		Cost:       5,
	})
	m.RecordSolve(SolveRecord{Enumerator: "eppstein", Status: "infeasible"})

	if got := testutil.ToFloat64(m.SolvesTotal.WithLabelValues("eppstein", "optimal")); got != 1 {
		t.Errorf("optimal solves = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SolvesTotal.WithLabelValues("eppstein", "infeasible")); got != 1 {
		t.Errorf("infeasible solves = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OptimalCost.WithLabelValues("eppstein")); got != 5 {
		t.Errorf("optimal cost = %v, want 5", got)
	}
}

func TestRecordCache(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test", "cache")

	m.RecordCache(true)
	m.RecordCache(false)
	m.RecordCache(false)

	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestRecordGraphSize(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test", "graph")

	m.RecordGraphSize("input", 100, 400)
	m.RecordGraphSize("pruned", 40, 120)

	if got := testutil.CollectAndCount(m.GraphNodesTotal); got != 2 {
		t.Errorf("graph node series = %d, want 2", got)
	}
}

func TestRuntimeCollector(t *testing.T) {
	runtime.GC()
	collector := NewRuntimeCollector("test", "runtime")

	descCh := make(chan *prometheus.Desc, 10)
	collector.Describe(descCh)
	close(descCh)

	count := 0
	for range descCh {
		count++
	}
	if count != 7 {
		t.Errorf("expected 7 descriptors, got %d", count)
	}

	metricCh := make(chan prometheus.Metric, 10)
	collector.Collect(metricCh)
	close(metricCh)

	count = 0
	for range metricCh {
		count++
	}
	if count < 6 {
		t.Errorf("expected at least 6 metrics, got %d", count)
	}
}

func TestSolveTracker(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_solves_in_flight"})
	tracker := NewSolveTracker(gauge)

	tracker.Start("eppstein")
	tracker.Start("eppstein")
	tracker.Start("yen")

	if tracker.Active("eppstein") != 2 {
		t.Errorf("Active(eppstein) = %d, want 2", tracker.Active("eppstein"))
	}
	if testutil.ToFloat64(gauge) != 3 {
		t.Errorf("in-flight gauge = %v, want 3", testutil.ToFloat64(gauge))
	}

	tracker.End("eppstein")
	tracker.End("eppstein")
	tracker.End("eppstein")
	if tracker.Active("eppstein") != 0 {
		t.Error("active count should not go negative")
	}
	if testutil.ToFloat64(gauge) != 1 {
		t.Errorf("in-flight gauge = %v, want 1", testutil.ToFloat64(gauge))
	}
}

func TestTimer(t *testing.T) {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_duration",
			Buckets: []float64{.01, .1, 1},
		},
		[]string{"enumerator"},
	)

	timer := NewTimer(histogram, "yen")
	time.Sleep(10 * time.Millisecond)

	if duration := timer.ObserveDuration(); duration < 10*time.Millisecond {
		t.Errorf("duration = %v, expected >= 10ms", duration)
	}
}

func TestNewMetricsServer(t *testing.T) {
	srv := NewMetricsServer(9999, "")
	if srv.Addr != ":9999" {
		t.Errorf("Addr = %s, want :9999", srv.Addr)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
