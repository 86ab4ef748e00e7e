// Package algorithms implements the resource-constrained shortest path solver:
// single-source shortest paths under arbitrary real weights, k-shortest-path
// enumeration (Eppstein and Yen) and the Handler-Zang Lagrangian dual loop.
package algorithms

import (
	"context"

	"rcsp/pkg/domain"
)

// =============================================================================
// Bellman-Ford Algorithm
// =============================================================================
//
// The Bellman-Ford algorithm computes shortest paths from a single source vertex
// to all other vertices in a weighted multigraph. Unlike Dijkstra's algorithm,
// it handles negative edge weights, which appear as soon as a Lagrangian
// multiplier is folded into the edge weight, and detects negative cycles.
//
// Time Complexity: O(V * E)
// Space Complexity: O(V)
//
// Algorithm:
//   1. Initialize distances: dist[source] = 0, dist[v] = ∞ for all v ≠ source
//   2. Repeat V-1 times: relax all edges, stop early after a pass without updates
//   3. Check for negative cycles by attempting one more relaxation
//
// The same routine runs on the reversed graph (incoming edges) to compute
// distances towards a target, which is how the shortest-path tree for
// Eppstein's algorithm is built.
//
// References:
//   - Bellman, R. (1958). "On a routing problem"
//   - Ford, L.R. (1956). "Network Flow Theory"
// =============================================================================

// BellmanFordResult contains the result of the Bellman-Ford algorithm.
type BellmanFordResult struct {
	// Distances maps each vertex to its shortest distance from the origin.
	// Unreachable vertices have distance equal to domain.Infinity.
	Distances map[string]float64

	// Parent maps each vertex to the neighbouring vertex it was relaxed from.
	// The origin and unreachable vertices have no entry.
	Parent map[string]string

	// HasNegativeCycle indicates whether a negative-weight cycle was detected.
	// Distances are the converged labels after V-1 passes in that case.
	HasNegativeCycle bool

	// Canceled indicates whether the operation was canceled via context.
	Canceled bool
}

// GetDistances implements the distanceResult interface.
func (r *BellmanFordResult) GetDistances() map[string]float64 {
	return r.Distances
}

// GetParent implements the distanceResult interface.
func (r *BellmanFordResult) GetParent() map[string]string {
	return r.Parent
}

// BellmanFord executes Bellman-Ford from source along outgoing edges.
//
// The algorithm processes vertices and edges in a deterministic order to
// ensure reproducible results across runs. Cancellation is checked every
// 100 passes; a canceled run returns partial labels with Canceled = true.
func BellmanFord(ctx context.Context, g *domain.MultiGraph, source string, weight domain.WeightFunc) *BellmanFordResult {
	return bellmanFord(ctx, g, source, weight, forward)
}

// BellmanFordToTarget executes Bellman-Ford on the reversed graph, producing
// distances from every vertex to target. Parent[v] is the next vertex on the
// way to target.
func BellmanFordToTarget(ctx context.Context, g *domain.MultiGraph, target string, weight domain.WeightFunc) *BellmanFordResult {
	return bellmanFord(ctx, g, target, weight, backward)
}

func bellmanFord(ctx context.Context, g *domain.MultiGraph, origin string, weight domain.WeightFunc, dir direction) *BellmanFordResult {
	// Sorted vertices for deterministic iteration order
	nodes := g.SortedNodes()
	n := len(nodes)

	dist := make(map[string]float64, n)
	parent := make(map[string]string, n)

	for _, node := range nodes {
		dist[node] = domain.Infinity
	}
	dist[origin] = 0

	// Context check interval - balance between responsiveness and performance
	const checkInterval = 100

	for i := 0; i < n-1; i++ {
		if i%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return &BellmanFordResult{
					Distances: dist,
					Parent:    parent,
					Canceled:  true,
				}
			default:
			}
		}

		// Early termination if no updates occurred
		if !relaxAllEdges(g, nodes, dist, parent, weight, dir) {
			break
		}
	}

	return &BellmanFordResult{
		Distances:        dist,
		Parent:           parent,
		HasNegativeCycle: checkNegativeCycle(g, nodes, dist, weight, dir),
	}
}

// relaxAllEdges performs one pass of edge relaxation in deterministic order.
// Returns true if any distance was updated.
func relaxAllEdges(g *domain.MultiGraph, nodes []string, dist map[string]float64, parent map[string]string, weight domain.WeightFunc, dir direction) bool {
	updated := false

	for _, u := range nodes {
		// Skip unreachable vertices
		if domain.IsInfinite(dist[u]) {
			continue
		}

		for _, edge := range dir.edges(g, u) {
			v := dir.neighbor(edge)
			newDist := dist[u] + weight(edge)

			if domain.FloatLess(newDist, dist[v]) {
				dist[v] = newDist
				parent[v] = u
				updated = true
			}
		}
	}

	return updated
}

// checkNegativeCycle reports whether any edge can still be relaxed after V-1 passes.
func checkNegativeCycle(g *domain.MultiGraph, nodes []string, dist map[string]float64, weight domain.WeightFunc, dir direction) bool {
	for _, u := range nodes {
		if domain.IsInfinite(dist[u]) {
			continue
		}

		for _, edge := range dir.edges(g, u) {
			if domain.FloatLess(dist[u]+weight(edge), dist[dir.neighbor(edge)]) {
				return true
			}
		}
	}
	return false
}
