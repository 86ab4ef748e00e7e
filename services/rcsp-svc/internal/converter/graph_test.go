package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcsp/pkg/domain"
)

func TestToPathEdges_Nil(t *testing.T) {
	assert.Nil(t, ToPathEdges(nil))
	assert.Equal(t, []string{}, ToNodeIDs(nil))
	assert.Equal(t, []string{}, ToNodeIDs(domain.NewPath(nil)))
}

func TestToPathEdges_Cumulative(t *testing.T) {
	g := domain.NewMultiGraph()
	ac := g.AddEdge("A", "C", 4, 1)
	cd := g.AddEdge("C", "D", 1, 1)

	rows := ToPathEdges(domain.NewPath([]*domain.Edge{ac, cd}))
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Step)
	assert.Equal(t, "A", rows[0].From)
	assert.Equal(t, 4.0, rows[0].CumulativeCost)

	assert.Equal(t, 2, rows[1].Step)
	assert.Equal(t, "D", rows[1].To)
	assert.Equal(t, 5.0, rows[1].CumulativeCost)
	assert.Equal(t, 2.0, rows[1].CumulativeResource)

	assert.Equal(t, []string{"A", "C", "D"}, ToNodeIDs(domain.NewPath([]*domain.Edge{ac, cd})))
}

func TestCalculateGraphStatistics_Empty(t *testing.T) {
	stats := CalculateGraphStatistics(domain.NewMultiGraph())

	assert.Equal(t, 0, stats.NodeCount)
	assert.Equal(t, 0, stats.EdgeCount)
	assert.Zero(t, stats.Density)
	assert.Zero(t, stats.MinResource)
}

func TestCalculateGraphStatistics(t *testing.T) {
	g := domain.NewMultiGraph()
	g.AddEdge("A", "B", 1, 5)
	g.AddEdge("A", "B", -2, 1)
	g.AddEdge("B", "C", 4, 3)

	stats := CalculateGraphStatistics(g)

	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 3, stats.EdgeCount)
	assert.Equal(t, 1, stats.ParallelEdgeCount)
	assert.Equal(t, 1, stats.NegativeCostEdges)
	assert.InDelta(t, 1.0, stats.AverageCost, 1e-9)
	assert.InDelta(t, 3.0, stats.AverageResource, 1e-9)
	assert.Equal(t, 1.0, stats.MinResource)
	assert.Equal(t, 5.0, stats.MaxResource)
	assert.InDelta(t, 0.5, stats.Density, 1e-9)
}
