package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"rcsp/pkg/apperror"
	"rcsp/pkg/domain"
)

// =============================================================================
// Handler-Zang Dual Algorithm
// =============================================================================
//
// Solves min cost(p) s.t. resource(p) <= budget over source-target paths.
//
// States: Init -> BoundSetup -> Ascent -> GapClosing -> {Optimal, Infeasible}
//
//   BoundSetup  Shortest path by cost. Feasible means optimal. Otherwise the
//               shortest path by resource; infeasible means no path fits the
//               budget. The cost path becomes "plus" (infeasible, LB = its
//               cost) and the resource path "minus" (feasible, UB = its cost).
//   Ascent      u = (minus.cost - plus.cost) / (plus.excess - minus.excess);
//               shortest path on cost + u*resource replaces plus or minus by
//               the sign of its excess. The dual value L(u) = w(p) - u*budget
//               converges when two successive values differ by less than the
//               dual tolerance; LB is then promoted to L(u).
//   GapClosing  k shortest paths on the combined weight. Each path lifts LB
//               to w(p) - u*budget; feasible simple paths may improve UB.
//               Exhausting the enumeration proves the incumbent optimal.
//
// LB never decreases and UB never increases. The solve stops as soon as
// LB >= UB.
//
// References:
//   - Handler, G. Y., Zang, I. (1980). "A dual algorithm for the constrained
//     shortest path problem"
// =============================================================================

// Status is the outcome of a solve.
type Status string

const (
	StatusOptimal        Status = "optimal"
	StatusInfeasible     Status = "infeasible"
	StatusNoPath         Status = "no_path"
	StatusIterationLimit Status = "iteration_limit"
	StatusTimeout        Status = "timeout"
	StatusDegenerate     Status = "numeric_degenerate"
	StatusError          Status = "error"
)

// Phase identifies the step that produced a progress event.
type Phase string

const (
	PhaseCostBound     Phase = "cost_bound"     // #1
	PhaseResourceBound Phase = "resource_bound" // #2
	PhaseAscent        Phase = "ascent"         // #3
	PhaseGapClosing    Phase = "gap_closing"    // #4
)

// ProgressEvent describes one solver step. The solver never formats output;
// callers render events however they like.
type ProgressEvent struct {
	Iteration  int
	Phase      Phase
	Update     string // "LB", "UB", "LB UB" or empty
	LowerBound float64
	UpperBound float64
	Gap        float64
	Multiplier float64
	Elapsed    time.Duration

	// Path is the new incumbent; only set when UB improved and PrintPath is on.
	Path *domain.Path
}

// SolverOptions configures SolveRCSP.
//
// Zero values are safe to use - DefaultSolverOptions() values are applied.
type SolverOptions struct {
	// Epsilon is the tolerance for feasibility and bound comparisons.
	// Default: domain.Epsilon (1e-9)
	Epsilon float64

	// DualTolerance stops the ascent when successive dual values differ by less.
	// Default: domain.DualTolerance (1e-6)
	DualTolerance float64

	// MaxIterations bounds the number of ascent iterations.
	// Default: 10000
	MaxIterations int

	// MaxPaths bounds the number of paths pulled while closing the gap.
	// Zero means unlimited.
	MaxPaths int

	// Enumerator selects the k-shortest-path implementation.
	// Default: EnumeratorEppstein
	Enumerator EnumeratorKind

	// PrintPath attaches the incumbent path to progress events on UB updates.
	PrintPath bool

	// Progress receives one event per solver step. May be nil.
	Progress func(ProgressEvent)
}

// DefaultSolverOptions returns options with default values.
func DefaultSolverOptions() *SolverOptions {
	return &SolverOptions{
		Epsilon:       domain.Epsilon,
		DualTolerance: domain.DualTolerance,
		MaxIterations: 10000,
		Enumerator:    EnumeratorEppstein,
	}
}

func (o *SolverOptions) normalize() *SolverOptions {
	defaults := DefaultSolverOptions()
	if o == nil {
		return defaults
	}
	opts := *o
	if opts.Epsilon <= 0 {
		opts.Epsilon = defaults.Epsilon
	}
	if opts.DualTolerance <= 0 {
		opts.DualTolerance = defaults.DualTolerance
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaults.MaxIterations
	}
	if opts.MaxPaths < 0 {
		opts.MaxPaths = 0
	}
	if opts.Enumerator == "" {
		opts.Enumerator = defaults.Enumerator
	}
	return &opts
}

// RCSPResult is the outcome of SolveRCSP.
type RCSPResult struct {
	// Path is the best feasible path found, bound to the input graph's edges.
	Path          *domain.Path
	TotalCost     float64
	TotalResource float64

	LowerBound float64
	UpperBound float64
	Multiplier float64

	// Iterations counts progress steps (bound setup, ascent and gap closing).
	Iterations int
	// PathsEnumerated counts paths pulled during gap closing.
	PathsEnumerated int

	Status Status

	// Warnings holds non-fatal conditions such as negative cycles.
	Warnings []error

	SolveTime time.Duration
}

// Gap returns the relative optimality gap.
func (r *RCSPResult) Gap() float64 {
	return domain.RelativeGap(r.LowerBound, r.UpperBound)
}

// dualState is the solver state for one solve.
type dualState struct {
	ctx    context.Context
	g      *domain.MultiGraph
	source string
	target string
	budget float64
	opts   *SolverOptions
	start  time.Time

	u     float64
	plus  *domain.Path
	minus *domain.Path
	best  *domain.Path
	lb    float64
	ub    float64

	iteration int
	paths     int
	warnings  []error
}

// SolveRCSP finds the minimum-cost source-target path whose total resource
// does not exceed budget.
//
// Errors:
//   - NIL_INPUT, EMPTY_GRAPH, INVALID_GRAPH, INVALID_SOURCE, INVALID_SINK,
//     INVALID_BUDGET on bad input; when several checks fail the error carries
//     the first code and lists every problem under apperror.DetailProblems
//   - NO_PATH when target is unreachable
//   - INFEASIBLE with the minimum achievable resource in details
//   - NUMERIC_DEGENERATE when the multiplier bracket collapses
//   - ITERATION_LIMIT / TIMEOUT with the best result found so far
//
// On INFEASIBLE, NUMERIC_DEGENERATE, ITERATION_LIMIT and TIMEOUT a non-nil
// result is returned together with the error.
func SolveRCSP(ctx context.Context, g *domain.MultiGraph, source, target string, budget float64, opts *SolverOptions) (*RCSPResult, error) {
	if err := validateInput(g, source, target, budget); err != nil {
		return nil, err
	}

	pruned, err := domain.PruneToReachable(g, source, target)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeNoPath, fmt.Sprintf("no path from %s to %s", source, target))
	}

	s := &dualState{
		ctx:    ctx,
		g:      pruned,
		source: source,
		target: target,
		budget: budget,
		opts:   opts.normalize(),
		start:  time.Now(),
		lb:     math.Inf(-1),
		ub:     math.Inf(1),
	}

	result, err := s.run()
	if result != nil {
		result.SolveTime = time.Since(s.start)
		if result.Path != nil {
			// Report edges of the caller's graph, not of a derived copy
			if bound, rerr := result.Path.Rebind(g); rerr == nil {
				result.Path = bound
			}
		}
	}
	return result, err
}

func validateInput(g *domain.MultiGraph, source, target string, budget float64) error {
	if g == nil {
		return apperror.ErrNilGraph
	}
	if g.NodeCount() == 0 {
		return apperror.ErrEmptyGraph
	}

	problems := apperror.NewValidationErrors()
	if errs := g.Validate(); len(errs) > 0 {
		problems.Add(apperror.Wrap(errors.Join(errs...), apperror.CodeInvalidGraph, "graph validation failed"))
	}
	if !g.HasNode(source) {
		problems.Add(apperror.New(apperror.CodeInvalidSource, "source vertex not found").
			WithField("source").WithDetails(apperror.DetailVertex, source))
	}
	if !g.HasNode(target) {
		problems.Add(apperror.New(apperror.CodeInvalidSink, "target vertex not found").
			WithField("target").WithDetails(apperror.DetailVertex, target))
	}
	if math.IsNaN(budget) || math.IsInf(budget, 0) {
		problems.Add(apperror.New(apperror.CodeInvalidBudget, "budget must be a finite number").
			WithField("budget"))
	}
	return problems.Err()
}

func (s *dualState) run() (*RCSPResult, error) {
	// =========================================================================
	// BoundSetup
	// =========================================================================
	costPath, err := s.shortestPath(s.g, domain.ByCost)
	if err != nil {
		return s.fail(err)
	}
	if costPath.Feasible(s.budget) {
		s.lb, s.ub, s.best = costPath.Cost, costPath.Cost, costPath
		s.emit(PhaseCostBound, "LB UB", costPath)
		return s.finish(StatusOptimal), nil
	}
	s.plus = costPath
	s.lb = costPath.Cost
	s.emit(PhaseCostBound, "LB", nil)

	resPath, err := s.shortestPath(s.g, domain.ByResource)
	if err != nil {
		return s.fail(err)
	}
	if !resPath.Feasible(s.budget) {
		s.emit(PhaseResourceBound, "", nil)
		result := s.finish(StatusInfeasible)
		return result, apperror.Newf(apperror.CodeInfeasible,
			"minimum resource %g exceeds budget %g", resPath.Resource, s.budget).
			WithDetails(apperror.DetailMinResource, resPath.Resource).
			WithDetails(apperror.DetailBudget, s.budget)
	}
	s.minus = resPath
	s.best = resPath
	s.ub = resPath.Cost
	s.emit(PhaseResourceBound, "UB", resPath)

	if s.closed() {
		return s.finish(StatusOptimal), nil
	}

	// =========================================================================
	// Ascent
	// =========================================================================
	dual, err := s.secant()
	if err != nil {
		return s.fail(err)
	}

	var combined *domain.MultiGraph
	for it := 0; ; it++ {
		if it >= s.opts.MaxIterations {
			return s.limit(apperror.CodeIterationLimit, "ascent iteration limit reached")
		}
		if err := s.ctx.Err(); err != nil {
			return s.fail(apperror.Wrap(err, apperror.CodeTimeout, "solve canceled"))
		}

		combined = s.g.CombineWeights(s.u)
		p, err := s.shortestPath(combined, domain.ByWeight)
		if err != nil {
			return s.fail(err)
		}

		lu := p.Weight - s.u*s.budget
		excess := p.Excess(s.budget)

		// A feasible path with zero excess attains the dual bound
		if math.Abs(excess) <= s.opts.Epsilon {
			s.lb = math.Max(s.lb, p.Cost)
			update := s.offer(p)
			s.emit(PhaseAscent, joinUpdate("LB", update), s.pathIf(update != ""))
			return s.finish(StatusOptimal), nil
		}

		if math.Abs(lu-dual) < s.opts.DualTolerance {
			update := ""
			if lu > s.lb {
				s.lb = lu
				update = "LB"
			}
			if excess < 0 {
				s.minus = p
				update = joinUpdate(update, s.offer(p))
			}
			s.emit(PhaseAscent, update, s.pathIf(update != "" && update != "LB"))
			break
		}

		update := ""
		if excess > 0 {
			s.plus = p
		} else {
			s.minus = p
			update = s.offer(p)
		}
		s.emit(PhaseAscent, update, s.pathIf(update != ""))

		if s.closed() {
			return s.finish(StatusOptimal), nil
		}

		if dual, err = s.secant(); err != nil {
			return s.fail(err)
		}
	}

	if s.closed() {
		return s.finish(StatusOptimal), nil
	}

	// =========================================================================
	// GapClosing
	// =========================================================================
	enum, err := NewEnumerator(s.ctx, s.opts.Enumerator, combined, s.source, s.target, domain.ByWeight)
	if err != nil {
		if !apperror.IsWarning(err) || enum == nil {
			return s.fail(err)
		}
		s.warnings = append(s.warnings, err)
	}

	for {
		if s.opts.MaxPaths > 0 && s.paths >= s.opts.MaxPaths {
			return s.limit(apperror.CodeIterationLimit, "gap closing path limit reached")
		}

		p, err := enum.Next(s.ctx)
		if errors.Is(err, ErrExhausted) {
			s.lb = math.Inf(1)
			s.emit(PhaseGapClosing, "LB", nil)
			return s.finish(StatusOptimal), nil
		}
		if err != nil {
			return s.fail(err)
		}
		s.paths++

		update := ""
		if lu := p.Weight - s.u*s.budget; lu > s.lb {
			s.lb = lu
			update = "LB"
		}
		if p.Feasible(s.budget) && p.IsSimple() {
			update = joinUpdate(update, s.offer(p))
		}
		s.emit(PhaseGapClosing, update, s.pathIf(update != "" && update != "LB"))

		if s.closed() {
			return s.finish(StatusOptimal), nil
		}
	}
}

// shortestPath runs ShortestPath, keeping negative-cycle warnings.
func (s *dualState) shortestPath(g *domain.MultiGraph, weight domain.WeightFunc) (*domain.Path, error) {
	res, err := ShortestPath(s.ctx, g, s.source, s.target, weight)
	if err != nil {
		if !apperror.IsWarning(err) {
			return nil, err
		}
		s.warnings = append(s.warnings, err)
	}
	return res.Path, nil
}

// secant updates the multiplier from the bracket and returns L(u) at plus.
func (s *dualState) secant() (float64, error) {
	denom := s.plus.Excess(s.budget) - s.minus.Excess(s.budget)
	if math.Abs(denom) <= s.opts.Epsilon {
		return 0, apperror.New(apperror.CodeNumericDegenerate, "multiplier bracket has zero resource spread").
			WithDetails(apperror.DetailIterations, s.iteration)
	}
	s.u = (s.minus.Cost - s.plus.Cost) / denom
	return s.plus.Cost + s.u*s.plus.Excess(s.budget), nil
}

// offer records p as incumbent when it is cheaper. Returns "UB" on improvement.
func (s *dualState) offer(p *domain.Path) string {
	if s.best == nil || p.Cost < s.ub-s.opts.Epsilon {
		s.best = p
		s.ub = p.Cost
		return "UB"
	}
	return ""
}

func (s *dualState) closed() bool {
	return s.lb >= s.ub-s.opts.Epsilon
}

func (s *dualState) pathIf(cond bool) *domain.Path {
	if cond {
		return s.best
	}
	return nil
}

func (s *dualState) emit(phase Phase, update string, path *domain.Path) {
	s.iteration++
	if s.opts.Progress == nil {
		return
	}
	ev := ProgressEvent{
		Iteration:  s.iteration,
		Phase:      phase,
		Update:     update,
		LowerBound: s.lb,
		UpperBound: s.ub,
		Gap:        domain.RelativeGap(s.lb, s.ub),
		Multiplier: s.u,
		Elapsed:    time.Since(s.start),
	}
	if s.opts.PrintPath {
		ev.Path = path
	}
	s.opts.Progress(ev)
}

func (s *dualState) finish(status Status) *RCSPResult {
	r := &RCSPResult{
		LowerBound:      s.lb,
		UpperBound:      s.ub,
		Multiplier:      s.u,
		Iterations:      s.iteration,
		PathsEnumerated: s.paths,
		Status:          status,
		Warnings:        s.warnings,
	}
	if s.best != nil {
		r.Path = s.best
		r.TotalCost = s.best.Cost
		r.TotalResource = s.best.Resource
	}
	if status == StatusOptimal {
		r.UpperBound = r.TotalCost
		// Exhausted enumeration leaves LB at +Inf
		if math.IsInf(r.LowerBound, 1) {
			r.LowerBound = r.TotalCost
		}
	}
	return r
}

// fail returns err. A timeout or a collapsed bracket keeps the incumbent
// and the bounds found so far.
func (s *dualState) fail(err error) (*RCSPResult, error) {
	switch {
	case apperror.Is(err, apperror.CodeTimeout):
		return s.finish(StatusTimeout), err
	case apperror.Is(err, apperror.CodeNumericDegenerate):
		return s.finish(StatusDegenerate), err
	}
	return nil, err
}

func (s *dualState) limit(code apperror.ErrorCode, msg string) (*RCSPResult, error) {
	return s.finish(StatusIterationLimit), apperror.New(code, msg).
		WithDetails(apperror.DetailIterations, s.iteration)
}

func joinUpdate(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
