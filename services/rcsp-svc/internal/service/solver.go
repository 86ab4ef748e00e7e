package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rcsp/pkg/apperror"
	"rcsp/pkg/audit"
	"rcsp/pkg/cache"
	"rcsp/pkg/config"
	"rcsp/pkg/domain"
	"rcsp/pkg/logger"
	"rcsp/pkg/metrics"
	"rcsp/pkg/telemetry"
	"rcsp/services/rcsp-svc/internal/algorithms"
	"rcsp/services/rcsp-svc/internal/converter"
	"rcsp/services/rcsp-svc/internal/report"
)

// SolveRequest задача RCSP
type SolveRequest struct {
	Graph     *domain.MultiGraph
	GraphFile string // только для отчёта
	Source    string
	Target    string
	Budget    float64

	// Enumerator переопределяет solver.enumerator из конфигурации
	Enumerator string
	// PrintPath переопределяет solver.print_path, если true
	PrintPath bool

	// Progress дополнительный получатель событий хода решения
	Progress func(algorithms.ProgressEvent)
}

// SolveResponse результат решения вместе с данными для отчёта
type SolveResponse struct {
	RunID    string
	CacheHit bool

	Result *algorithms.RCSPResult
	Path   []converter.PathEdge
	Graph  *converter.GraphStatistics

	// Report готов к передаче в report.Generator
	Report *report.ReportData
}

// EnumeratorInfo описание перечислителя k кратчайших путей
type EnumeratorInfo struct {
	Kind        algorithms.EnumeratorKind
	Name        string
	Description string
	Loopless    bool
}

// RCSPService решает задачи RCSP с кэшированием, метриками и трассировкой
type RCSPService struct {
	version     string
	solver      config.SolverConfig
	metrics     *metrics.Metrics
	tracker     *metrics.SolveTracker
	solverCache *cache.SolverCache
	journal     audit.Logger
}

func NewRCSPService(version string, solver config.SolverConfig, solverCache *cache.SolverCache) *RCSPService {
	m := metrics.Get()
	return &RCSPService{
		version:     version,
		solver:      solver,
		metrics:     m,
		tracker:     metrics.NewSolveTracker(m.SolvesInFlight),
		solverCache: solverCache,
	}
}

// WithJournal задаёт журнал запусков. По умолчанию используется глобальный audit.Get()
func (s *RCSPService) WithJournal(j audit.Logger) *RCSPService {
	s.journal = j
	return s
}

// Solve решает задачу. Для INFEASIBLE, ITERATION_LIMIT, TIMEOUT и NO_PATH
// ответ возвращается вместе с ошибкой, чтобы по нему можно было построить отчёт.
func (s *RCSPService) Solve(ctx context.Context, req *SolveRequest) (*SolveResponse, error) {
	if req == nil {
		return nil, apperror.New(apperror.CodeNilInput, "request is nil")
	}

	kind, err := s.enumerator(req)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "RCSPService.Solve",
		trace.WithAttributes(
			attribute.String("enumerator", string(kind)),
			attribute.Float64("budget", req.Budget),
		),
	)
	defer span.End()

	if req.Graph == nil {
		telemetry.SetError(ctx, apperror.ErrNilGraph)
		return nil, apperror.ErrNilGraph
	}

	runID := uuid.NewString()
	log := logger.WithRunID(runID)

	stats := converter.CalculateGraphStatistics(req.Graph)
	span.SetAttributes(telemetry.GraphAttributes(stats.NodeCount, stats.EdgeCount, req.Source, req.Target)...)
	s.metrics.RecordGraphSize("input", stats.NodeCount, stats.EdgeCount)

	resp := &SolveResponse{
		RunID: runID,
		Graph: stats,
		Report: &report.ReportData{
			RunID:       runID,
			GeneratedAt: time.Now(),
			Instance: report.InstanceInfo{
				GraphFile:  req.GraphFile,
				Source:     req.Source,
				Target:     req.Target,
				Budget:     req.Budget,
				Enumerator: string(kind),
			},
			Graph: stats,
		},
	}

	query := cache.SolveQuery{
		Graph:      req.Graph,
		Source:     req.Source,
		Target:     req.Target,
		Budget:     req.Budget,
		Enumerator: string(kind),
	}

	// Проверяем кэш
	if s.solverCache != nil {
		if res, ok := s.fromCache(ctx, query, log); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			resp.CacheHit = true
			s.fill(resp, res, nil)
			s.journalRun(ctx, req, resp, kind, nil, 0)
			return resp, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	opts := s.buildOptions(kind, req.PrintPath)
	recorder := report.NewRecorder()
	opts.Progress = func(ev algorithms.ProgressEvent) {
		recorder.Record(ev)
		log.Debug("dual step", logger.ProgressAttrs(ev.Iteration, string(ev.Phase), ev.Update,
			ev.LowerBound, ev.UpperBound, ev.Gap, ev.Elapsed)...)
		telemetry.AddEvent(ctx, string(ev.Phase),
			telemetry.BoundsAttributes(string(ev.Phase), ev.LowerBound, ev.UpperBound, ev.Gap)...)
		if req.Progress != nil {
			req.Progress(ev)
		}
	}

	solveCtx := ctx
	if s.solver.Timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, s.solver.Timeout)
		defer cancel()
	}

	log.Info("solve started",
		"source", req.Source,
		"target", req.Target,
		"budget", req.Budget,
		"enumerator", kind,
		"nodes", stats.NodeCount,
		"edges", stats.EdgeCount,
	)

	s.tracker.Start(string(kind))
	start := time.Now()
	res, solveErr := algorithms.SolveRCSP(solveCtx, req.Graph, req.Source, req.Target, req.Budget, opts)
	elapsed := time.Since(start)
	s.tracker.End(string(kind))

	resp.Report.Progress = recorder.Rows()
	s.fill(resp, res, solveErr)

	status := statusOf(res, solveErr)
	s.record(kind, status, elapsed, res)
	s.journalRun(ctx, req, resp, kind, solveErr, elapsed)

	if res != nil {
		span.SetAttributes(telemetry.ResultAttributes(string(status), res.Iterations, res.PathsEnumerated,
			res.TotalCost, res.TotalResource, res.Multiplier)...)
		for _, w := range res.Warnings {
			log.Warn("solver warning", "error", w)
			telemetry.AddEvent(ctx, "warning", attribute.String("message", w.Error()))
		}
	}

	if solveErr != nil {
		telemetry.SetError(ctx, solveErr)
		logFn := log.Warn
		if apperror.IsCritical(solveErr) {
			logFn = log.Error
		}
		logFn("solve finished with error",
			"status", status,
			"code", apperror.Code(solveErr),
			"error", solveErr,
			"duration", elapsed,
		)
		if res == nil && !apperror.Is(solveErr, apperror.CodeNoPath) {
			return nil, solveErr
		}
		return resp, solveErr
	}

	log.Info("solve finished",
		"status", status,
		"cost", res.TotalCost,
		"resource", res.TotalResource,
		"iterations", res.Iterations,
		"paths", res.PathsEnumerated,
		"duration", elapsed,
	)

	// Сохраняем в кэш только доказанно оптимальные результаты
	if s.solverCache != nil && res.Status == algorithms.StatusOptimal {
		timer := metrics.NewTimer(s.metrics.CacheLatency, "set")
		err := s.solverCache.Set(ctx, query, toCached(res), 0)
		timer.ObserveDuration()
		if err != nil {
			log.Warn("failed to cache solve result", "error", err)
		}
	}

	return resp, nil
}

// Enumerators возвращает описание доступных перечислителей
func (s *RCSPService) Enumerators() []EnumeratorInfo {
	return []EnumeratorInfo{
		{
			Kind:        algorithms.EnumeratorEppstein,
			Name:        "Eppstein",
			Description: "Path graph over sidetrack heaps; O(m + n log n + k log k)",
			Loopless:    false,
		},
		{
			Kind:        algorithms.EnumeratorYen,
			Name:        "Yen",
			Description: "Spur paths from every prefix of the previous path; O(k n (m + n log n))",
			Loopless:    true,
		},
	}
}

// Invalidate удаляет кэшированные результаты для графа
func (s *RCSPService) Invalidate(ctx context.Context, g *domain.MultiGraph, enumerator string) (int, error) {
	if s.solverCache == nil {
		return 0, nil
	}
	kind, err := algorithms.ParseEnumeratorKind(enumerator)
	if err != nil {
		return 0, err
	}
	return s.solverCache.Invalidate(ctx, g, string(kind))
}

func (s *RCSPService) enumerator(req *SolveRequest) (algorithms.EnumeratorKind, error) {
	name := req.Enumerator
	if name == "" {
		name = s.solver.Enumerator
	}
	return algorithms.ParseEnumeratorKind(name)
}

func (s *RCSPService) buildOptions(kind algorithms.EnumeratorKind, printPath bool) *algorithms.SolverOptions {
	result := algorithms.DefaultSolverOptions()
	result.Enumerator = kind
	result.PrintPath = printPath || s.solver.PrintPath

	if s.solver.Epsilon > 0 {
		result.Epsilon = s.solver.Epsilon
	}
	if s.solver.DualTolerance > 0 {
		result.DualTolerance = s.solver.DualTolerance
	}
	if s.solver.MaxIterations > 0 {
		result.MaxIterations = s.solver.MaxIterations
	}
	if s.solver.MaxPaths > 0 {
		result.MaxPaths = s.solver.MaxPaths
	}

	return result
}

func (s *RCSPService) fromCache(ctx context.Context, q cache.SolveQuery, log *slog.Logger) (*algorithms.RCSPResult, bool) {
	timer := metrics.NewTimer(s.metrics.CacheLatency, "get")
	cached, found, err := s.solverCache.Get(ctx, q)
	timer.ObserveDuration()
	if err != nil {
		log.Warn("cache lookup failed", "error", err)
	}
	if err != nil || !found {
		s.metrics.RecordCache(false)
		return nil, false
	}

	path, err := cached.ToPath(q.Graph)
	if err != nil {
		log.Warn("cached path does not match graph", "error", err)
		s.metrics.RecordCache(false)
		return nil, false
	}

	s.metrics.RecordCache(true)
	telemetry.AddEvent(ctx, "cache_hit", attribute.Float64("cost", cached.TotalCost))
	log.Info("solve served from cache", "cost", cached.TotalCost, "computed_at", cached.ComputedAt)

	return &algorithms.RCSPResult{
		Path:            path,
		TotalCost:       cached.TotalCost,
		TotalResource:   cached.TotalResource,
		LowerBound:      cached.LowerBound,
		UpperBound:      cached.UpperBound,
		Multiplier:      cached.Multiplier,
		Iterations:      cached.Iterations,
		PathsEnumerated: cached.Paths,
		Status:          algorithms.Status(cached.Status),
		SolveTime:       cached.SolveTime,
	}, true
}

func (s *RCSPService) fill(resp *SolveResponse, res *algorithms.RCSPResult, solveErr error) {
	resp.Result = res
	if res != nil {
		resp.Path = converter.ToPathEdges(res.Path)
	}
	resp.Report.Path = resp.Path
	resp.Report.Result = report.SummaryFromResult(res, solveErr)
	if res == nil && apperror.Is(solveErr, apperror.CodeNoPath) {
		resp.Report.Result.Status = string(algorithms.StatusNoPath)
	}
}

func (s *RCSPService) record(kind algorithms.EnumeratorKind, status algorithms.Status, elapsed time.Duration, res *algorithms.RCSPResult) {
	rec := metrics.SolveRecord{
		Enumerator: string(kind),
		Status:     string(status),
		Duration:   elapsed,
	}
	if res != nil {
		rec.Iterations = res.Iterations
		rec.Paths = res.PathsEnumerated
		rec.Cost = res.TotalCost
		if gap := res.Gap(); !domain.IsInfinite(gap) {
			rec.Gap = gap
		}
	}
	s.metrics.RecordSolve(rec)
}

// journalRun пишет запись о запуске в журнал. Ошибка журнала не влияет на результат решения
func (s *RCSPService) journalRun(ctx context.Context, req *SolveRequest, resp *SolveResponse, kind algorithms.EnumeratorKind, solveErr error, elapsed time.Duration) {
	j := s.journal
	if j == nil {
		j = audit.Get()
	}
	if _, noop := j.(*audit.NoopLogger); noop {
		return
	}

	status := statusOf(resp.Result, solveErr)
	outcome := audit.OutcomeFailure
	switch status {
	case algorithms.StatusOptimal, algorithms.StatusInfeasible, algorithms.StatusNoPath:
		outcome = audit.OutcomeSuccess
	}

	b := audit.NewEntry().
		Service("rcsp-svc").
		Run(resp.RunID).
		Instance(req.Source, req.Target, req.Budget, string(kind)).
		Graph(req.GraphFile, cache.GraphHash(req.Graph), resp.Graph.NodeCount, resp.Graph.EdgeCount).
		Outcome(outcome, string(status)).
		CacheHit(resp.CacheHit).
		Duration(elapsed).
		Meta("version", s.version)

	if res := resp.Result; res != nil {
		b.Result(res.TotalCost, res.TotalResource, res.LowerBound, res.UpperBound).
			Counts(res.Iterations, res.PathsEnumerated)
		if len(res.Warnings) > 0 {
			b.Meta("warnings", len(res.Warnings))
		}
	}
	if solveErr != nil {
		b.Error(string(apperror.Code(solveErr)), solveErr.Error())
		if apperror.IsCritical(solveErr) {
			b.Meta("critical", true)
		}
	}

	if err := j.Log(ctx, b.Build()); err != nil {
		logger.WithRunID(resp.RunID).Warn("failed to write audit entry", "error", err)
	}
}

func statusOf(res *algorithms.RCSPResult, err error) algorithms.Status {
	switch {
	case res != nil:
		return res.Status
	case apperror.Is(err, apperror.CodeNoPath):
		return algorithms.StatusNoPath
	default:
		return algorithms.StatusError
	}
}

func toCached(res *algorithms.RCSPResult) *cache.CachedSolveResult {
	return &cache.CachedSolveResult{
		Status:        string(res.Status),
		Path:          cache.EdgesFromPath(res.Path),
		TotalCost:     res.TotalCost,
		TotalResource: res.TotalResource,
		LowerBound:    res.LowerBound,
		UpperBound:    res.UpperBound,
		Multiplier:    res.Multiplier,
		Iterations:    res.Iterations,
		Paths:         res.PathsEnumerated,
		SolveTime:     res.SolveTime,
	}
}
