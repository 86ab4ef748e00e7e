package algorithms

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"rcsp/pkg/domain"
)

// createDiamondGraph creates the four-vertex instance
// A->B(1,5), A->C(4,1), B->D(1,5), C->D(1,1).
func createDiamondGraph() *domain.MultiGraph {
	g := domain.NewMultiGraph()
	g.AddEdge("A", "B", 1, 5)
	g.AddEdge("A", "C", 4, 1)
	g.AddEdge("B", "D", 1, 5)
	g.AddEdge("C", "D", 1, 1)
	return g
}

// vertexName returns "v00", "v01", ... so sorted order equals numeric order.
func vertexName(i int) string {
	return fmt.Sprintf("v%02d", i)
}

// randomGraph builds a random multigraph on n vertices. With dag set, edges
// only go from lower to higher index. minCost may be negative.
func randomGraph(rng *rand.Rand, n int, density float64, dag bool, minCost, maxCost float64) *domain.MultiGraph {
	g := domain.NewMultiGraph()
	for i := 0; i < n; i++ {
		g.AddNode(vertexName(i))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || (dag && j < i) {
				continue
			}
			if rng.Float64() >= density {
				continue
			}
			parallel := 1
			if rng.Float64() < 0.15 {
				parallel = 2
			}
			for k := 0; k < parallel; k++ {
				cost := minCost + rng.Float64()*(maxCost-minCost)
				resource := 0.5 + rng.Float64()*9.5
				g.AddEdge(vertexName(i), vertexName(j), cost, resource)
			}
		}
	}
	return g
}

// allSimplePaths enumerates every simple source-target path by DFS.
func allSimplePaths(g *domain.MultiGraph, source, target string) []*domain.Path {
	var result []*domain.Path
	visited := map[string]bool{source: true}
	var stack []*domain.Edge

	var dfs func(v string)
	dfs = func(v string) {
		if v == target {
			edges := make([]*domain.Edge, len(stack))
			copy(edges, stack)
			result = append(result, domain.NewPath(edges))
			return
		}
		for _, e := range g.Outgoing(v) {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			stack = append(stack, e)
			dfs(e.To)
			stack = stack[:len(stack)-1]
			visited[e.To] = false
		}
	}
	dfs(source)

	return result
}

// bruteForceShortest returns the minimum weight over all simple paths.
func bruteForceShortest(g *domain.MultiGraph, source, target string, weight domain.WeightFunc) float64 {
	best := math.Inf(1)
	for _, p := range allSimplePaths(g, source, target) {
		best = math.Min(best, p.WeightBy(weight))
	}
	return best
}

// bruteForceRCSP returns the cheapest simple path within budget, or nil.
func bruteForceRCSP(g *domain.MultiGraph, source, target string, budget float64) *domain.Path {
	var best *domain.Path
	for _, p := range allSimplePaths(g, source, target) {
		if !p.Feasible(budget) {
			continue
		}
		if best == nil || p.Cost < best.Cost {
			best = p
		}
	}
	return best
}

// sortedWeights returns path weights in ascending order.
func sortedWeights(paths []*domain.Path, weight domain.WeightFunc) []float64 {
	ws := make([]float64, len(paths))
	for i, p := range paths {
		ws[i] = p.WeightBy(weight)
	}
	sort.Float64s(ws)
	return ws
}
