package algorithms

import (
	"container/heap"
	"context"
	"errors"

	"rcsp/pkg/apperror"
	"rcsp/pkg/domain"
)

// =============================================================================
// Yen's K Shortest Loopless Paths
// =============================================================================
//
// For the last accepted path A[k-1] and each spur vertex on it, the root path
// (prefix up to the spur vertex) is fixed, the edges that accepted paths with
// the same root take out of the spur vertex are removed together with the root
// path's other vertices, and the shortest spur path to the target is computed
// on that filtered copy. Root + spur becomes a candidate; the cheapest
// candidate is accepted next.
//
// Time Complexity: O(k * n * SP) where SP is one shortest path computation
//
// References:
//   - Yen, J. Y. (1971). "Finding the k shortest loopless paths in a network"
// =============================================================================

type yenCandidate struct {
	path   *domain.Path
	weight float64
	seq    int64
}

type yenQueue []*yenCandidate

func (q yenQueue) Len() int { return len(q) }

func (q yenQueue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight < q[j].weight
	}
	return q[i].seq < q[j].seq
}

func (q yenQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *yenQueue) Push(x any) { *q = append(*q, x.(*yenCandidate)) }

func (q *yenQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Yen enumerates loopless paths in non-decreasing weight order.
type Yen struct {
	g      *domain.MultiGraph
	source string
	target string
	weight domain.WeightFunc

	accepted   []*domain.Path
	candidates yenQueue
	seen       map[string]bool
	seq        int64
	started    bool
}

// NewYen creates a Yen enumerator. No work is done until the first Next.
func NewYen(g *domain.MultiGraph, source, target string, weight domain.WeightFunc) *Yen {
	return &Yen{
		g:      g,
		source: source,
		target: target,
		weight: weight,
		seen:   make(map[string]bool),
	}
}

// Next returns the next loopless path.
func (y *Yen) Next(ctx context.Context) (*domain.Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeTimeout, "enumeration canceled")
	}

	if !y.started {
		y.started = true
		sp, err := ShortestPath(ctx, y.g, y.source, y.target, y.weight)
		if err != nil && !apperror.IsWarning(err) {
			return nil, err
		}
		y.accept(sp.Path)
		return sp.Path, nil
	}

	if len(y.accepted) == 0 {
		return nil, ErrExhausted
	}

	if err := y.spur(ctx, y.accepted[len(y.accepted)-1]); err != nil {
		return nil, err
	}

	if y.candidates.Len() == 0 {
		return nil, ErrExhausted
	}
	next := heap.Pop(&y.candidates).(*yenCandidate)
	y.accept(next.path)
	return next.path, nil
}

// Count returns the number of paths returned so far.
func (y *Yen) Count() int {
	return len(y.accepted)
}

func (y *Yen) accept(p *domain.Path) {
	y.accepted = append(y.accepted, p)
	y.seen[p.Signature()] = true
}

// spur pushes every candidate deviating from prev.
func (y *Yen) spur(ctx context.Context, prev *domain.Path) error {
	nodes := prev.Nodes()
	if len(nodes) == 0 {
		// Source equals target: the empty path is the only loopless one
		return nil
	}

	for i := 0; i < len(prev.Edges); i++ {
		spurNode := nodes[i]
		root := prev.Edges[:i]

		removedEdges := make(map[domain.EdgeKey]bool)
		for _, p := range y.accepted {
			if len(p.Edges) > i && sameKeys(p.Edges[:i], root) {
				removedEdges[p.Edges[i].ID()] = true
			}
		}
		removedNodes := make(map[string]bool, i)
		for _, v := range nodes[:i] {
			removedNodes[v] = true
		}

		filtered := y.g.Without(removedNodes, removedEdges)
		sp, err := ShortestPath(ctx, filtered, spurNode, y.target, y.weight)
		if err != nil {
			switch {
			case apperror.IsWarning(err):
			case apperror.Is(err, apperror.CodeNoPath), errors.Is(err, domain.ErrNoPath):
				continue
			default:
				return err
			}
		}

		edges := make([]*domain.Edge, 0, len(root)+len(sp.Path.Edges))
		edges = append(edges, root...)
		edges = append(edges, sp.Path.Edges...)

		candidate, err := domain.NewPath(edges).Rebind(y.g)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInternal, "spur path edge missing from graph").
				WithSeverity(apperror.SeverityCritical)
		}

		sig := candidate.Signature()
		if y.seen[sig] {
			continue
		}
		y.seen[sig] = true

		y.seq++
		heap.Push(&y.candidates, &yenCandidate{
			path:   candidate,
			weight: candidate.WeightBy(y.weight),
			seq:    y.seq,
		})
	}

	return nil
}

func sameKeys(a, b []*domain.Edge) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID() != b[i].ID() {
			return false
		}
	}
	return true
}
