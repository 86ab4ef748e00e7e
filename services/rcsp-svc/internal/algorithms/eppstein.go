package algorithms

import (
	"container/heap"
	"context"
	"fmt"

	"rcsp/pkg/apperror"
	"rcsp/pkg/domain"
)

// =============================================================================
// Eppstein's K Shortest Paths
// =============================================================================
//
// Best-first traversal of the path graph. A queue entry is a path in the path
// graph from the synthetic root, stored as a parent-linked chain; its key is
// the cumulative edge weight, i.e. the total detour over the shortest path.
//
// Converting an entry into a graph path: the sidetracks taken are the last
// node's edge plus every node that was left through a cross edge. Starting at
// the source, follow tree edges until the tail of the next sidetrack, take it,
// and continue from its head; after the last one follow T to the target.
//
// Since every path-graph edge weight is non-negative, popped weights are
// non-decreasing. Ties are broken by insertion order.
//
// Time Complexity: O(m + n log n) to build, O(k log k + path length) for k paths
// =============================================================================

// eppsteinEntry is one path-graph path from the synthetic root.
type eppsteinEntry struct {
	weight float64
	seq    int64
	node   int
	prev   *eppsteinEntry

	// viaCross is set when node was reached through a cross or root edge.
	viaCross bool
}

type eppsteinQueue []*eppsteinEntry

func (q eppsteinQueue) Len() int { return len(q) }

func (q eppsteinQueue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight < q[j].weight
	}
	return q[i].seq < q[j].seq
}

func (q eppsteinQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eppsteinQueue) Push(x any) { *q = append(*q, x.(*eppsteinEntry)) }

func (q *eppsteinQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Eppstein enumerates paths in non-decreasing weight order.
type Eppstein struct {
	graph  *PathGraph
	source string

	queue eppsteinQueue
	seq   int64
	count int
}

// NewEppstein builds the shortest-path tree and path graph for source/target.
func NewEppstein(ctx context.Context, g *domain.MultiGraph, source, target string, weight domain.WeightFunc) (*Eppstein, error) {
	if g == nil {
		return nil, apperror.ErrNilGraph
	}
	if !g.HasNode(source) {
		return nil, apperror.New(apperror.CodeInvalidSource, "source vertex not found").
			WithDetails(apperror.DetailVertex, source)
	}

	tree, err := BuildShortestPathTree(ctx, g, target, weight)
	if err != nil && !apperror.IsWarning(err) {
		return nil, err
	}
	warning := err

	pg, err := BuildPathGraph(ctx, g, tree, source)
	if err != nil {
		return nil, err
	}

	e := &Eppstein{
		graph:  pg,
		source: source,
	}
	heap.Push(&e.queue, &eppsteinEntry{node: pg.root})

	return e, warning
}

// Next returns the next path.
func (e *Eppstein) Next(ctx context.Context) (*domain.Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeTimeout, "enumeration canceled")
	}
	if e.queue.Len() == 0 {
		return nil, ErrExhausted
	}

	entry := heap.Pop(&e.queue).(*eppsteinEntry)

	for _, child := range e.graph.nodes[entry.node].children {
		e.seq++
		heap.Push(&e.queue, &eppsteinEntry{
			weight:   entry.weight + child.weight,
			seq:      e.seq,
			node:     child.to,
			prev:     entry,
			viaCross: child.kind != heapEdge,
		})
	}

	path, err := e.buildPath(entry)
	if err != nil {
		return nil, err
	}
	e.count++
	return path, nil
}

// Count returns the number of paths returned so far.
func (e *Eppstein) Count() int {
	return e.count
}

// sidetracks lists the sidetrack edges of entry in path order.
func (e *Eppstein) sidetracks(entry *eppsteinEntry) []*domain.Edge {
	nodes := e.graph.nodes
	var result []*domain.Edge

	if entry.node != e.graph.root {
		result = append(result, nodes[entry.node].sidetrack)
	}
	for cur := entry; cur.prev != nil; cur = cur.prev {
		if cur.viaCross && cur.prev.node != e.graph.root {
			result = append(result, nodes[cur.prev.node].sidetrack)
		}
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// buildPath expands the sidetracks of entry into a full source-target path.
func (e *Eppstein) buildPath(entry *eppsteinEntry) (*domain.Path, error) {
	tree := e.graph.tree
	var edges []*domain.Edge

	v := e.source
	for _, st := range e.sidetracks(entry) {
		for v != st.From {
			next, ok := tree.Next[v]
			if !ok {
				return nil, apperror.NewCritical(apperror.CodeInternal,
					fmt.Sprintf("sidetrack %s is not on the tree path from %s", st.ID(), e.source))
			}
			edges = append(edges, next)
			v = next.To
		}
		edges = append(edges, st)
		v = st.To
	}

	rest, err := tree.PathFrom(v)
	if err != nil {
		return nil, err
	}
	edges = append(edges, rest...)

	return domain.NewPath(edges), nil
}
