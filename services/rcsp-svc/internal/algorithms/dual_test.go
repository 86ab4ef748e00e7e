package algorithms

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcsp/pkg/apperror"
	"rcsp/pkg/domain"
)

// ladderGraph has five parallel A->B edges trading cost for resource.
// The ascent needs several secant steps before it converges.
func ladderGraph() *domain.MultiGraph {
	g := domain.NewMultiGraph()
	g.AddEdge("A", "B", 1, 10)
	g.AddEdge("A", "B", 2, 7)
	g.AddEdge("A", "B", 3, 5)
	g.AddEdge("A", "B", 4, 3)
	g.AddEdge("A", "B", 10, 1)
	return g
}

// recordProgress returns options that collect every progress event.
func recordProgress(kind EnumeratorKind) (*SolverOptions, *[]ProgressEvent) {
	events := &[]ProgressEvent{}
	opts := DefaultSolverOptions()
	opts.Enumerator = kind
	opts.PrintPath = true
	opts.Progress = func(ev ProgressEvent) {
		*events = append(*events, ev)
	}
	return opts, events
}

func assertMonotoneBounds(t *testing.T, events []ProgressEvent) {
	t.Helper()

	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		assert.GreaterOrEqual(t, cur.LowerBound, prev.LowerBound, "LB decreased at event %d", cur.Iteration)
		assert.LessOrEqual(t, cur.UpperBound, prev.UpperBound, "UB increased at event %d", cur.Iteration)
		assert.Equal(t, prev.Iteration+1, cur.Iteration)
	}
}

func TestSolveRCSP_Diamond(t *testing.T) {
	for _, kind := range []EnumeratorKind{EnumeratorEppstein, EnumeratorYen} {
		t.Run(string(kind), func(t *testing.T) {
			opts, events := recordProgress(kind)

			result, err := SolveRCSP(context.Background(), createDiamondGraph(), "A", "D", 3, opts)
			require.NoError(t, err)

			assert.Equal(t, StatusOptimal, result.Status)
			assert.Equal(t, []string{"A", "C", "D"}, result.Path.Nodes())
			assert.InDelta(t, 5.0, result.TotalCost, 1e-9)
			assert.InDelta(t, 2.0, result.TotalResource, 1e-9)
			assert.InDelta(t, 5.0, result.LowerBound, 1e-9)
			assert.InDelta(t, 5.0, result.UpperBound, 1e-9)
			assert.InDelta(t, 0.375, result.Multiplier, 1e-9)
			assert.Zero(t, result.Gap())

			require.NotEmpty(t, *events)
			assert.Equal(t, PhaseCostBound, (*events)[0].Phase)
			assert.Equal(t, PhaseResourceBound, (*events)[1].Phase)
			assert.Equal(t, "UB", (*events)[1].Update)
			assert.NotNil(t, (*events)[1].Path)
			assert.Equal(t, len(*events), result.Iterations)
			assertMonotoneBounds(t, *events)

			var converged bool
			for _, ev := range *events {
				if ev.Phase == PhaseAscent && ev.Update == "LB" {
					converged = true
					assert.InDelta(t, 4.625, ev.LowerBound, 1e-9)
				}
			}
			assert.True(t, converged)
		})
	}
}

func TestSolveRCSP_CostPathFeasible(t *testing.T) {
	opts, events := recordProgress(EnumeratorEppstein)

	result, err := SolveRCSP(context.Background(), createDiamondGraph(), "A", "D", 12, opts)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, result.Status)
	assert.Equal(t, []string{"A", "B", "D"}, result.Path.Nodes())
	assert.InDelta(t, 2.0, result.TotalCost, 1e-9)
	assert.InDelta(t, 10.0, result.TotalResource, 1e-9)
	assert.InDelta(t, 2.0, result.LowerBound, 1e-9)
	require.Len(t, *events, 1)
	assert.Equal(t, "LB UB", (*events)[0].Update)
}

func TestSolveRCSP_Infeasible(t *testing.T) {
	result, err := SolveRCSP(context.Background(), createDiamondGraph(), "A", "D", 1, nil)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInfeasible))

	minResource, ok := apperror.MinResource(err)
	require.True(t, ok)
	assert.InDelta(t, 2.0, minResource, 1e-9)

	require.NotNil(t, result)
	assert.Equal(t, StatusInfeasible, result.Status)
	assert.Nil(t, result.Path)
}

func TestSolveRCSP_NoPath(t *testing.T) {
	g := createDiamondGraph()
	g.AddNode("Z")

	result, err := SolveRCSP(context.Background(), g, "A", "Z", 10, nil)
	assert.Nil(t, result)
	assert.True(t, apperror.Is(err, apperror.CodeNoPath))
}

func TestSolveRCSP_InvalidInput(t *testing.T) {
	g := createDiamondGraph()
	ctx := context.Background()

	tests := []struct {
		name   string
		g      *domain.MultiGraph
		source string
		target string
		budget float64
		code   apperror.ErrorCode
	}{
		{"nil graph", nil, "A", "D", 3, apperror.CodeNilInput},
		{"empty graph", domain.NewMultiGraph(), "A", "D", 3, apperror.CodeEmptyGraph},
		{"unknown source", g, "X", "D", 3, apperror.CodeInvalidSource},
		{"unknown target", g, "A", "X", 3, apperror.CodeInvalidSink},
		{"nan budget", g, "A", "D", math.NaN(), apperror.CodeInvalidBudget},
		{"infinite budget", g, "A", "D", math.Inf(1), apperror.CodeInvalidBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SolveRCSP(ctx, tt.g, tt.source, tt.target, tt.budget, nil)
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestSolveRCSP_InvalidInputReportsEveryProblem(t *testing.T) {
	g := createDiamondGraph()
	g.AddEdge("B", "C", math.Inf(1), 1)

	result, err := SolveRCSP(context.Background(), g, "X", "Y", math.NaN(), nil)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidGraph), "got %v", err)
	assert.Contains(t, err.Error(), "and 3 more")

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	problems, ok := appErr.Details[apperror.DetailProblems].([]string)
	require.True(t, ok)
	require.Len(t, problems, 4)
	assert.Contains(t, problems[0], "infinite weight")
	assert.Contains(t, problems[1], string(apperror.CodeInvalidSource))
	assert.Contains(t, problems[2], string(apperror.CodeInvalidSink))
	assert.Contains(t, problems[3], string(apperror.CodeInvalidBudget))
}

func TestSolveRCSP_DegenerateBracketKeepsIncumbent(t *testing.T) {
	// The parallel edges differ in resource by less than Epsilon, so the
	// secant step has no spread. Only the expensive edge fits the budget.
	g := domain.NewMultiGraph()
	g.AddEdge("A", "B", 1, 10+1.2e-9)
	g.AddEdge("A", "B", 5, 10+0.5e-9)

	result, err := SolveRCSP(context.Background(), g, "A", "B", 10, nil)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeNumericDegenerate), "got %v", err)

	require.NotNil(t, result)
	assert.Equal(t, StatusDegenerate, result.Status)
	require.NotNil(t, result.Path)
	require.Len(t, result.Path.Edges, 1)
	assert.Equal(t, 1, result.Path.Edges[0].Key)
	assert.InDelta(t, 5.0, result.TotalCost, 1e-12)
	assert.InDelta(t, 1.0, result.LowerBound, 1e-12)
	assert.InDelta(t, 5.0, result.UpperBound, 1e-12)
	assert.Greater(t, result.Gap(), 0.0)
}

func TestSolveRCSP_Ladder(t *testing.T) {
	for _, kind := range []EnumeratorKind{EnumeratorEppstein, EnumeratorYen} {
		t.Run(string(kind), func(t *testing.T) {
			opts, events := recordProgress(kind)

			result, err := SolveRCSP(context.Background(), ladderGraph(), "A", "B", 4, opts)
			require.NoError(t, err)

			assert.Equal(t, StatusOptimal, result.Status)
			assert.InDelta(t, 4.0, result.TotalCost, 1e-9)
			assert.InDelta(t, 3.0, result.TotalResource, 1e-9)
			assert.Equal(t, 3, result.Path.Edges[0].Key)
			assert.InDelta(t, 0.5, result.Multiplier, 1e-9)
			assertMonotoneBounds(t, *events)

			ascent := 0
			for _, ev := range *events {
				if ev.Phase == PhaseAscent {
					ascent++
				}
			}
			assert.Equal(t, 3, ascent)
		})
	}
}

func TestSolveRCSP_IterationLimit(t *testing.T) {
	opts := DefaultSolverOptions()
	opts.MaxIterations = 1

	result, err := SolveRCSP(context.Background(), ladderGraph(), "A", "B", 4, opts)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeIterationLimit))

	require.NotNil(t, result)
	assert.Equal(t, StatusIterationLimit, result.Status)
	assert.InDelta(t, 4.0, result.TotalCost, 1e-9)
	assert.InDelta(t, 1.0, result.LowerBound, 1e-9)
	assert.Greater(t, result.Gap(), 0.0)
}

func TestSolveRCSP_PathLimit(t *testing.T) {
	opts := DefaultSolverOptions()
	opts.MaxPaths = 1

	result, err := SolveRCSP(context.Background(), createDiamondGraph(), "A", "D", 3, opts)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeIterationLimit))

	require.NotNil(t, result)
	assert.Equal(t, StatusIterationLimit, result.Status)
	assert.Equal(t, 1, result.PathsEnumerated)
	assert.InDelta(t, 5.0, result.TotalCost, 1e-9)
	assert.InDelta(t, 4.625, result.LowerBound, 1e-9)
}

func TestSolveRCSP_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := SolveRCSP(ctx, createDiamondGraph(), "A", "D", 3, nil)
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
	require.NotNil(t, result)
	assert.Equal(t, StatusTimeout, result.Status)
}

func TestSolveRCSP_ResultUsesCallerEdges(t *testing.T) {
	g := createDiamondGraph()

	result, err := SolveRCSP(context.Background(), g, "A", "D", 3, nil)
	require.NoError(t, err)

	for _, e := range result.Path.Edges {
		orig, ok := g.Edge(e.From, e.To, e.Key)
		require.True(t, ok)
		assert.Same(t, orig, e)
	}
}

func TestSolveRCSP_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	ctx := context.Background()

	for _, kind := range []EnumeratorKind{EnumeratorEppstein, EnumeratorYen} {
		for trial := 0; trial < 40; trial++ {
			n := 3 + rng.Intn(6)
			dag := trial%2 == 0
			g := randomGraph(rng, n, 0.45, dag, 1, 10)
			source, target := vertexName(0), vertexName(n-1)

			paths := allSimplePaths(g, source, target)
			if len(paths) == 0 {
				continue
			}

			minRes, maxRes := math.Inf(1), 0.0
			for _, p := range paths {
				minRes = math.Min(minRes, p.Resource)
				maxRes = math.Max(maxRes, p.Resource)
			}
			budget := minRes + rng.Float64()*(maxRes-minRes)

			opts, events := recordProgress(kind)
			result, err := SolveRCSP(ctx, g, source, target, budget, opts)
			require.NoError(t, err, "%s trial %d", kind, trial)

			want := bruteForceRCSP(g, source, target, budget)
			require.NotNil(t, want)

			assert.Equal(t, StatusOptimal, result.Status, "%s trial %d", kind, trial)
			assert.InDelta(t, want.Cost, result.TotalCost, 1e-6, "%s trial %d", kind, trial)
			assert.True(t, result.Path.Feasible(budget), "%s trial %d", kind, trial)
			assert.True(t, result.Path.IsSimple(), "%s trial %d", kind, trial)
			assertMonotoneBounds(t, *events)
		}
	}
}

func TestSolveRCSP_BelowMinimumResourceIsInfeasible(t *testing.T) {
	rng := rand.New(rand.NewSource(37))
	ctx := context.Background()

	for trial := 0; trial < 20; trial++ {
		n := 3 + rng.Intn(5)
		g := randomGraph(rng, n, 0.5, true, 1, 10)
		source, target := vertexName(0), vertexName(n-1)

		paths := allSimplePaths(g, source, target)
		if len(paths) == 0 {
			continue
		}
		minRes := math.Inf(1)
		for _, p := range paths {
			minRes = math.Min(minRes, p.Resource)
		}

		_, err := SolveRCSP(ctx, g, source, target, minRes-0.1, nil)
		require.True(t, apperror.Is(err, apperror.CodeInfeasible), "trial %d", trial)
		got, ok := apperror.MinResource(err)
		require.True(t, ok)
		assert.InDelta(t, minRes, got, 1e-6, "trial %d", trial)
	}
}
