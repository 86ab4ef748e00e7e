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

func TestShortestPath_Diamond(t *testing.T) {
	g := createDiamondGraph()
	ctx := context.Background()

	byCost, err := ShortestPath(ctx, g, "A", "D", domain.ByCost)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D"}, byCost.Path.Nodes())
	assert.InDelta(t, 2.0, byCost.Distance, 1e-9)
	assert.False(t, byCost.UsedBellmanFord)

	byResource, err := ShortestPath(ctx, g, "A", "D", domain.ByResource)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "D"}, byResource.Path.Nodes())
	assert.InDelta(t, 2.0, byResource.Distance, 1e-9)
	assert.InDelta(t, 5.0, byResource.Path.Cost, 1e-9)
}

func TestShortestPath_ParallelEdgePicksMinimum(t *testing.T) {
	g := domain.NewMultiGraph()
	g.AddEdge("A", "B", 5, 1)
	g.AddEdge("A", "B", 2, 9)
	g.AddEdge("A", "B", 2, 3)

	res, err := ShortestPath(context.Background(), g, "A", "B", domain.ByCost)
	require.NoError(t, err)
	require.Len(t, res.Path.Edges, 1)

	// Cost tie between keys 1 and 2 goes to the lower key
	assert.Equal(t, 1, res.Path.Edges[0].Key)
}

func TestShortestPath_Errors(t *testing.T) {
	g := createDiamondGraph()
	g.AddNode("Z")
	ctx := context.Background()

	_, err := ShortestPath(ctx, g, "A", "Z", domain.ByCost)
	assert.True(t, apperror.Is(err, apperror.CodeNoPath))
	assert.ErrorIs(t, err, domain.ErrNoPath)

	_, err = ShortestPath(ctx, g, "X", "D", domain.ByCost)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidSource))

	_, err = ShortestPath(ctx, g, "A", "Y", domain.ByCost)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidSink))

	_, err = ShortestPath(ctx, nil, "A", "D", domain.ByCost)
	assert.True(t, apperror.Is(err, apperror.CodeNilInput))
}

func TestShortestPath_NegativeWeights(t *testing.T) {
	g := domain.NewMultiGraph()
	g.AddEdge("S", "A", 4, 0)
	g.AddEdge("S", "B", 1, 0)
	g.AddEdge("A", "T", -3, 0)
	g.AddEdge("B", "T", 1, 0)

	res, err := ShortestPath(context.Background(), g, "S", "T", domain.ByCost)
	require.NoError(t, err)
	assert.True(t, res.UsedBellmanFord)
	assert.Equal(t, []string{"S", "A", "T"}, res.Path.Nodes())
	assert.InDelta(t, 1.0, res.Distance, 1e-9)
}

func TestShortestPath_NegativeCycleIsWarning(t *testing.T) {
	g := domain.NewMultiGraph()
	g.AddEdge("S", "A", 1, 0)
	g.AddEdge("A", "T", 1, 0)
	g.AddEdge("T", "U", 1, 0)
	g.AddEdge("U", "V", -2, 0)
	g.AddEdge("V", "U", 1, 0)

	res, err := ShortestPath(context.Background(), g, "S", "T", domain.ByCost)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeNegativeCycle))
	assert.True(t, apperror.IsWarning(err))

	require.NotNil(t, res)
	assert.True(t, res.HasNegativeCycle)
	assert.Equal(t, []string{"S", "A", "T"}, res.Path.Nodes())
}

func TestShortestPath_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ShortestPath(ctx, createDiamondGraph(), "A", "D", domain.ByCost)
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
}

func TestShortestPath_SourceEqualsTarget(t *testing.T) {
	res, err := ShortestPath(context.Background(), createDiamondGraph(), "A", "A", domain.ByCost)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Path.Len())
	assert.Zero(t, res.Distance)
}

func TestBellmanFord_MatchesDijkstra(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for trial := 0; trial < 40; trial++ {
		g := randomGraph(rng, 3+rng.Intn(10), 0.35, false, 0, 10)
		source := vertexName(0)

		bf := BellmanFord(ctx, g, source, domain.ByCost)
		dj := Dijkstra(ctx, g, source, domain.ByCost)
		require.False(t, dj.UsedBellmanFord)
		require.False(t, bf.HasNegativeCycle)

		for _, v := range g.SortedNodes() {
			want, got := dj.Distances[v], bf.Distances[v]
			if domain.IsInfinite(want) {
				assert.True(t, domain.IsInfinite(got), "trial %d vertex %s", trial, v)
				continue
			}
			assert.InDelta(t, want, got, 1e-6, "trial %d vertex %s", trial, v)
		}
	}
}

func TestShortestPath_NegativeDAGMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()

	for trial := 0; trial < 40; trial++ {
		n := 3 + rng.Intn(6) // at most 8 vertices
		g := randomGraph(rng, n, 0.5, true, -5, 10)
		source, target := vertexName(0), vertexName(n-1)

		want := bruteForceShortest(g, source, target, domain.ByCost)
		res, err := ShortestPath(ctx, g, source, target, domain.ByCost)
		if math.IsInf(want, 1) {
			assert.True(t, apperror.Is(err, apperror.CodeNoPath), "trial %d", trial)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		assert.InDelta(t, want, res.Distance, 1e-6, "trial %d", trial)
		assert.InDelta(t, res.Distance, res.Path.Cost, 1e-6, "trial %d", trial)
	}
}

func TestShortestPathTree(t *testing.T) {
	g := createDiamondGraph()

	tree, err := BuildShortestPathTree(context.Background(), g, "D", domain.ByCost)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, tree.Distances["A"], 1e-9)
	assert.InDelta(t, 1.0, tree.Distances["B"], 1e-9)
	assert.InDelta(t, 1.0, tree.Distances["C"], 1e-9)
	assert.Zero(t, tree.Distances["D"])

	ab, _ := g.Edge("A", "B", 0)
	ac, _ := g.Edge("A", "C", 0)
	assert.True(t, tree.IsTreeEdge(ab))
	assert.False(t, tree.IsTreeEdge(ac))
	assert.InDelta(t, 3.0, tree.Delta(ac), 1e-9)
	assert.Zero(t, tree.Delta(ab))

	path, err := tree.PathFrom("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D"}, domain.NewPath(path).Nodes())

	assert.Equal(t, []string{"D", "B", "C", "A"}, tree.Order())
}

func TestShortestPathTree_UnreachableVertex(t *testing.T) {
	g := createDiamondGraph()
	g.AddEdge("D", "E", 1, 1)

	tree, err := BuildShortestPathTree(context.Background(), g, "D", domain.ByCost)
	require.NoError(t, err)

	assert.False(t, tree.Reaches("E"))
	_, err = tree.PathFrom("E")
	assert.True(t, apperror.Is(err, apperror.CodeNoPath))
}
