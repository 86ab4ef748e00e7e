package algorithms

import (
	"context"
	"fmt"
	"sort"

	"rcsp/pkg/apperror"
	"rcsp/pkg/domain"
)

// =============================================================================
// Shortest Path Facade
// =============================================================================
//
// ShortestPath picks Dijkstra when every edge weight is non-negative under the
// active selector and Bellman-Ford otherwise. Both variants can run forward
// (distances from a source) or backward (distances to a target).
//
// Negative cycles are reported as a warning-severity NEGATIVE_CYCLE error next
// to a usable result built from the converged labels. The call only fails hard
// when the predecessor chain itself loops and no path can be reconstructed.
// =============================================================================

// direction selects which adjacency list a relaxation walks.
type direction int

const (
	forward direction = iota
	backward
)

func (d direction) edges(g *domain.MultiGraph, v string) []*domain.Edge {
	if d == backward {
		return g.Incoming(v)
	}
	return g.Outgoing(v)
}

func (d direction) neighbor(e *domain.Edge) string {
	if d == backward {
		return e.From
	}
	return e.To
}

// distanceResult is satisfied by both BellmanFordResult and DijkstraResult.
type distanceResult interface {
	GetDistances() map[string]float64
	GetParent() map[string]string
}

// ShortestPathResult holds the outcome of a source-target query.
type ShortestPathResult struct {
	// Distances from source to every vertex (domain.Infinity when unreachable).
	Distances map[string]float64

	// Path from source to target as an ordered sequence of edges.
	Path *domain.Path

	// Distance is the weight of Path under the selector used.
	Distance float64

	UsedBellmanFord  bool
	HasNegativeCycle bool
}

// ShortestPath computes the shortest source-target path under weight.
//
// Between consecutive vertices of the predecessor chain the parallel edge of
// minimum weight is taken, ties broken by the lowest key.
//
// Errors:
//   - INVALID_SOURCE / INVALID_SINK when a vertex is not in the graph
//   - NO_PATH when target is unreachable
//   - TIMEOUT when ctx is done
//   - NEGATIVE_CYCLE (warning, result is non-nil) when an edge is still relaxable
//   - NEGATIVE_CYCLE (error) when the predecessor chain loops
func ShortestPath(ctx context.Context, g *domain.MultiGraph, source, target string, weight domain.WeightFunc) (*ShortestPathResult, error) {
	if g == nil {
		return nil, apperror.ErrNilGraph
	}
	if !g.HasNode(source) {
		return nil, apperror.New(apperror.CodeInvalidSource, "source vertex not found").
			WithDetails(apperror.DetailVertex, source)
	}
	if !g.HasNode(target) {
		return nil, apperror.New(apperror.CodeInvalidSink, "target vertex not found").
			WithDetails(apperror.DetailVertex, target)
	}

	var (
		res           distanceResult
		canceled      bool
		negativeCycle bool
		usedBF        bool
	)
	if g.HasNegativeWeights(weight) {
		bf := BellmanFord(ctx, g, source, weight)
		res, canceled, negativeCycle, usedBF = bf, bf.Canceled, bf.HasNegativeCycle, true
	} else {
		dj := Dijkstra(ctx, g, source, weight)
		res, canceled, negativeCycle, usedBF = dj, dj.Canceled, dj.HasNegativeCycle, dj.UsedBellmanFord
	}

	if canceled {
		return nil, apperror.Wrap(ctx.Err(), apperror.CodeTimeout, "shortest path computation canceled")
	}

	dist := res.GetDistances()
	if domain.IsInfinite(dist[target]) {
		return nil, apperror.Wrap(domain.ErrNoPath, apperror.CodeNoPath,
			fmt.Sprintf("no path from %s to %s", source, target))
	}

	vertices, err := walkParents(res.GetParent(), target, source)
	if err != nil {
		return nil, err
	}

	// walkParents returns target..source; reverse into source..target
	edges := make([]*domain.Edge, 0, len(vertices))
	for i := len(vertices) - 1; i > 0; i-- {
		edges = append(edges, minParallel(g, vertices[i], vertices[i-1], weight))
	}
	path := domain.NewPath(edges)

	result := &ShortestPathResult{
		Distances:        dist,
		Path:             path,
		Distance:         path.WeightBy(weight),
		UsedBellmanFord:  usedBF,
		HasNegativeCycle: negativeCycle,
	}

	if negativeCycle {
		return result, apperror.NewWarning(apperror.CodeNegativeCycle,
			"negative cycle reachable from source; returning converged labels")
	}
	return result, nil
}

// walkParents follows parent links from start until stop and returns the
// visited vertices in walk order. A repeated vertex means the labels were
// corrupted by a negative cycle.
func walkParents(parent map[string]string, start, stop string) ([]string, error) {
	chain := []string{start}
	seen := map[string]bool{start: true}

	for v := start; v != stop; {
		p, ok := parent[v]
		if !ok {
			return nil, apperror.NewCritical(apperror.CodeInternal, "broken predecessor chain at "+v)
		}
		if seen[p] {
			return nil, apperror.New(apperror.CodeNegativeCycle, "predecessor chain contains a cycle").
				WithDetails(apperror.DetailVertex, p)
		}
		seen[p] = true
		chain = append(chain, p)
		v = p
	}

	return chain, nil
}

// minParallel returns the cheapest edge from u to v; ties go to the lowest key.
// Parallel returns edges sorted by key, so the first strictly smaller wins.
func minParallel(g *domain.MultiGraph, u, v string, weight domain.WeightFunc) *domain.Edge {
	var best *domain.Edge
	for _, e := range g.Parallel(u, v) {
		if best == nil || weight(e) < weight(best) {
			best = e
		}
	}
	return best
}

// =============================================================================
// Shortest Path Tree
// =============================================================================

// ShortestPathTree is the in-tree T rooted at a target: for every vertex that
// can reach the target it stores the distance to the target and the single
// edge leaving the vertex along a shortest path.
type ShortestPathTree struct {
	Target    string
	Distances map[string]float64
	Next      map[string]*domain.Edge

	HasNegativeCycle bool
	weight           domain.WeightFunc
}

// BuildShortestPathTree computes T towards target on the reversed graph.
// A negative cycle yields a warning-severity error next to a usable tree.
func BuildShortestPathTree(ctx context.Context, g *domain.MultiGraph, target string, weight domain.WeightFunc) (*ShortestPathTree, error) {
	if g == nil {
		return nil, apperror.ErrNilGraph
	}
	if !g.HasNode(target) {
		return nil, apperror.New(apperror.CodeInvalidSink, "target vertex not found").
			WithDetails(apperror.DetailVertex, target)
	}

	var (
		res           distanceResult
		canceled      bool
		negativeCycle bool
	)
	if g.HasNegativeWeights(weight) {
		bf := BellmanFordToTarget(ctx, g, target, weight)
		res, canceled, negativeCycle = bf, bf.Canceled, bf.HasNegativeCycle
	} else {
		dj := DijkstraToTarget(ctx, g, target, weight)
		res, canceled, negativeCycle = dj, dj.Canceled, dj.HasNegativeCycle
	}
	if canceled {
		return nil, apperror.Wrap(ctx.Err(), apperror.CodeTimeout, "shortest path tree computation canceled")
	}

	tree := &ShortestPathTree{
		Target:           target,
		Distances:        res.GetDistances(),
		Next:             make(map[string]*domain.Edge),
		HasNegativeCycle: negativeCycle,
		weight:           weight,
	}

	parent := res.GetParent()
	for _, v := range g.SortedNodes() {
		next, ok := parent[v]
		if !ok || v == target {
			continue
		}
		tree.Next[v] = minParallel(g, v, next, weight)
	}

	if negativeCycle {
		// Labels may loop; refuse a tree that cannot be walked.
		for _, v := range g.SortedNodes() {
			if !tree.Reaches(v) {
				continue
			}
			if _, err := tree.PathFrom(v); err != nil {
				return nil, err
			}
		}
		return tree, apperror.NewWarning(apperror.CodeNegativeCycle,
			"negative cycle in shortest path tree; returning converged labels")
	}
	return tree, nil
}

// Reaches reports whether v has a finite distance to the target.
func (t *ShortestPathTree) Reaches(v string) bool {
	d, ok := t.Distances[v]
	return ok && !domain.IsInfinite(d)
}

// IsTreeEdge reports whether e is the tree edge leaving its tail.
func (t *ShortestPathTree) IsTreeEdge(e *domain.Edge) bool {
	next, ok := t.Next[e.From]
	return ok && next.ID() == e.ID()
}

// Delta returns the reduced cost w(e) + d(head) - d(tail), clamped at zero
// for numerical noise. Tree edges have delta 0.
func (t *ShortestPathTree) Delta(e *domain.Edge) float64 {
	return domain.ClampNonNegative(t.weight(e) + t.Distances[e.To] - t.Distances[e.From])
}

// PathFrom follows tree edges from v to the target.
func (t *ShortestPathTree) PathFrom(v string) ([]*domain.Edge, error) {
	var edges []*domain.Edge
	seen := map[string]bool{v: true}

	for v != t.Target {
		e, ok := t.Next[v]
		if !ok {
			return nil, apperror.Wrap(domain.ErrNoPath, apperror.CodeNoPath,
				fmt.Sprintf("vertex %s does not reach %s", v, t.Target))
		}
		if seen[e.To] {
			return nil, apperror.New(apperror.CodeNegativeCycle, "shortest path tree contains a cycle").
				WithDetails(apperror.DetailVertex, e.To)
		}
		seen[e.To] = true
		edges = append(edges, e)
		v = e.To
	}

	return edges, nil
}

// Order returns the vertices of T in breadth-first order from the target over
// reversed tree edges. Children of a vertex are visited in sorted order.
func (t *ShortestPathTree) Order() []string {
	children := make(map[string][]string)
	for v, e := range t.Next {
		children[e.To] = append(children[e.To], v)
	}
	for _, c := range children {
		sort.Strings(c)
	}

	order := []string{t.Target}
	for i := 0; i < len(order); i++ {
		order = append(order, children[order[i]]...)
	}
	return order
}
