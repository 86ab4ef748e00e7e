package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics контейнер метрик решателя
type Metrics struct {
	// Решения
	SolvesTotal     *prometheus.CounterVec
	SolveDuration   *prometheus.HistogramVec
	SolvesInFlight  prometheus.Gauge
	DualIterations  *prometheus.HistogramVec
	EnumeratedPaths *prometheus.HistogramVec
	FinalGap        *prometheus.GaugeVec
	OptimalCost     *prometheus.GaugeVec

	// Граф
	GraphNodesTotal *prometheus.HistogramVec
	GraphEdgesTotal *prometheus.HistogramVec

	// Кэш
	CacheRequests *prometheus.CounterVec
	CacheLatency  *prometheus.HistogramVec

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var (
	defaultMetrics *Metrics
	defaultMu      sync.Mutex
)

// InitMetrics инициализирует метрики в глобальном реестре.
// Повторный вызов возвращает уже зарегистрированные метрики.
func InitMetrics(namespace, subsystem string) *Metrics {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultMetrics == nil {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer, namespace, subsystem)
	}
	return defaultMetrics
}

// NewMetrics регистрирует метрики в указанном реестре
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		SolvesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solves_total",
				Help:      "Total number of RCSP solves by enumerator and outcome",
			},
			[]string{"enumerator", "status"},
		),

		SolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of RCSP solves",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"enumerator"},
		),

		SolvesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solves_in_flight",
				Help:      "Current number of running solves",
			},
		),

		DualIterations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dual_iterations",
				Help:      "Number of dual ascent iterations per solve",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100},
			},
			[]string{"enumerator"},
		),

		EnumeratedPaths: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "enumerated_paths",
				Help:      "Number of k-shortest paths pulled during gap closing",
				Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000},
			},
			[]string{"enumerator"},
		),

		FinalGap: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "final_gap",
				Help:      "Relative gap between bounds of the last solve",
			},
			[]string{"enumerator"},
		),

		OptimalCost: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimal_cost",
				Help:      "Cost of the last optimal path",
			},
			[]string{"enumerator"},
		),

		GraphNodesTotal: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_nodes_total",
				Help:      "Number of vertices in solved graphs",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
			[]string{"stage"},
		),

		GraphEdgesTotal: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_edges_total",
				Help:      "Number of edges in solved graphs",
				Buckets:   []float64{20, 100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"stage"},
		),

		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_requests_total",
				Help:      "Result cache lookups by outcome",
			},
			[]string{"result"},
		),

		CacheLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_operation_duration_seconds",
				Help:      "Result cache latency by operation",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"operation"},
		),

		ServiceInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	reg.MustRegister(NewRuntimeCollector(namespace, subsystem))

	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	return InitMetrics("rcsp", "solver")
}

// SolveRecord итог одного решения
type SolveRecord struct {
	Enumerator string
	Status     string
	Duration   time.Duration
	Iterations int
	Paths      int
	Gap        float64
	Cost       float64
}

// RecordSolve записывает метрики решения
func (m *Metrics) RecordSolve(r SolveRecord) {
	m.SolvesTotal.WithLabelValues(r.Enumerator, r.Status).Inc()
	m.SolveDuration.WithLabelValues(r.Enumerator).Observe(r.Duration.Seconds())
	m.DualIterations.WithLabelValues(r.Enumerator).Observe(float64(r.Iterations))
	m.EnumeratedPaths.WithLabelValues(r.Enumerator).Observe(float64(r.Paths))
	m.FinalGap.WithLabelValues(r.Enumerator).Set(r.Gap)
	if r.Status == "optimal" {
		m.OptimalCost.WithLabelValues(r.Enumerator).Set(r.Cost)
	}
}

// RecordGraphSize записывает размер графа
func (m *Metrics) RecordGraphSize(stage string, nodes, edges int) {
	m.GraphNodesTotal.WithLabelValues(stage).Observe(float64(nodes))
	m.GraphEdgesTotal.WithLabelValues(stage).Observe(float64(edges))
}

// RecordCache записывает результат обращения к кэшу
func (m *Metrics) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewMetricsServer создаёт HTTP сервер для метрик
func NewMetricsServer(port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint
	})

	return &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
