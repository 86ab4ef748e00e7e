package algorithms

import (
	"context"
	"sort"

	"rcsp/pkg/apperror"
	"rcsp/pkg/domain"
)

// =============================================================================
// Path Graph (Eppstein)
// =============================================================================
//
// For every vertex v that reaches the target three heaps are derived:
//
//   out-heap(v)    SidetrackHeap over v's non-tree outgoing edges, inserted in
//                  ascending (tail, head, key) order.
//   tree-heap(v)   Copy of tree-heap(next(v)) with out-heap(v)'s root inserted.
//                  The target starts from an empty heap. It holds the best
//                  single detour available on the T-path from v to the target.
//   global-heap(v) tree-heap(v) where the node carrying out-heap(w)'s root is
//                  linked ("h_out") to both children of that root, exposing the
//                  remaining sidetracks at w once the best one has been taken.
//
// The heaps are flattened into a DAG. Every path-graph node is a
// (vertex, heap element) pair with
//   - heap edges to left, right and h_out children weighted by the delta
//     difference (non-negative by heap order);
//   - a cross edge to the root of global-heap(head of its sidetrack) weighted
//     by that root's delta.
// A synthetic root links to the root of global-heap(source).
//
// Vertices are processed in breadth-first order from the target over the
// reversed tree, so tree-heap(next(v)) always exists when v is reached.
// Flattening uses explicit worklists.
//
// References:
//   - Eppstein, D. (1998). "Finding the k shortest paths"
// =============================================================================

// pgEdgeKind distinguishes path-graph edges.
type pgEdgeKind int

const (
	heapEdge pgEdgeKind = iota
	crossEdge
	rootEdge
)

// pgEdge is an outgoing path-graph edge.
type pgEdge struct {
	to     int
	weight float64
	kind   pgEdgeKind
}

// pgNode is a flattened (vertex, heap element) pair.
type pgNode struct {
	vertex    string
	sidetrack *domain.Edge
	delta     float64
	children  []pgEdge
}

// PathGraph is the read-only DAG walked by the Eppstein enumerator.
type PathGraph struct {
	tree  *ShortestPathTree
	nodes []pgNode

	// root is the synthetic start node; its only edge enters global-heap(source).
	root int

	outHeaps  map[string]*SidetrackHeap
	treeHeaps map[string]*SidetrackHeap
}

// BuildPathGraph builds the path graph for source over a shortest-path tree
// towards the tree's target.
func BuildPathGraph(ctx context.Context, g *domain.MultiGraph, tree *ShortestPathTree, source string) (*PathGraph, error) {
	if !tree.Reaches(source) {
		return nil, apperror.Wrap(domain.ErrNoPath, apperror.CodeNoPath, "source does not reach target")
	}

	pg := &PathGraph{
		tree:      tree,
		outHeaps:  make(map[string]*SidetrackHeap),
		treeHeaps: make(map[string]*SidetrackHeap),
	}

	order := tree.Order()
	for i, v := range order {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, apperror.Wrap(err, apperror.CodeTimeout, "path graph construction canceled")
			}
		}
		pg.outHeaps[v] = pg.buildOutHeap(g, v)
	}

	for _, v := range order {
		var th *SidetrackHeap
		if v == tree.Target {
			th = NewSidetrackHeap()
		} else {
			th = pg.treeHeaps[tree.Next[v].To].Copy()
		}
		if root, ok := pg.outHeaps[v].Min(); ok {
			th.Insert(root.Edge, root.Delta)
		}
		pg.treeHeaps[v] = th
	}

	pg.flatten(order, source)
	return pg, nil
}

// buildOutHeap collects the sidetracks leaving v. Edges whose head cannot
// reach the target are not sidetracks of any target-bound path.
func (pg *PathGraph) buildOutHeap(g *domain.MultiGraph, v string) *SidetrackHeap {
	var sidetracks []*domain.Edge
	for _, e := range g.Outgoing(v) {
		if pg.tree.IsTreeEdge(e) || !pg.tree.Reaches(e.To) {
			continue
		}
		sidetracks = append(sidetracks, e)
	}
	sort.Slice(sidetracks, func(i, j int) bool {
		return sidetracks[i].ID().Less(sidetracks[j].ID())
	})

	h := NewSidetrackHeap()
	for _, e := range sidetracks {
		h.Insert(e, pg.tree.Delta(e))
	}
	return h
}

// flatten emits path-graph nodes and edges for every global heap.
func (pg *PathGraph) flatten(order []string, source string) {
	// Non-root out-heap elements are shared by every global heap that links
	// to them; the path graph is read-only so one node per element suffices.
	outIndex := make(map[string]map[int]int, len(order))
	for _, w := range order {
		outIndex[w] = pg.flattenHeap(w, pg.outHeaps[w], true)
	}

	globalRoot := make(map[string]int, len(order))
	for _, v := range order {
		th := pg.treeHeaps[v]
		index := pg.flattenHeap(v, th, false)
		globalRoot[v] = -1
		if th.Len() > 0 {
			globalRoot[v] = index[th.Root()]
		}

		// h_out links: each tree-heap node carries out-heap(w).root for the
		// tail w of its sidetrack
		for handle, id := range index {
			w := th.Node(handle).Edge.From
			out := pg.outHeaps[w]
			top := out.Node(out.Root())
			for _, child := range []int{top.Left, top.Right} {
				if child == NoHandle {
					continue
				}
				pg.addHeapEdge(id, outIndex[w][child])
			}
		}
	}

	// Cross edges into global-heap(head)
	for id := range pg.nodes {
		head := pg.nodes[id].sidetrack.To
		if r, ok := globalRoot[head]; ok && r >= 0 {
			pg.nodes[id].children = append(pg.nodes[id].children, pgEdge{
				to:     r,
				weight: pg.nodes[r].delta,
				kind:   crossEdge,
			})
		}
	}

	pg.root = len(pg.nodes)
	pg.nodes = append(pg.nodes, pgNode{vertex: source})
	if r, ok := globalRoot[source]; ok && r >= 0 {
		pg.nodes[pg.root].children = []pgEdge{{
			to:     r,
			weight: pg.nodes[r].delta,
			kind:   rootEdge,
		}}
	}
}

// flattenHeap creates one path-graph node per heap element and the left/right
// heap edges between them. When skipRoot is set the root element is left out.
// Returns handle -> node index.
func (pg *PathGraph) flattenHeap(v string, h *SidetrackHeap, skipRoot bool) map[int]int {
	index := make(map[int]int, h.Len())
	h.Walk(func(handle int, node HeapNode) bool {
		if skipRoot && handle == h.Root() {
			return true
		}
		index[handle] = len(pg.nodes)
		pg.nodes = append(pg.nodes, pgNode{
			vertex:    v,
			sidetrack: node.Edge,
			delta:     node.Delta,
		})
		return true
	})

	h.Walk(func(handle int, node HeapNode) bool {
		id, ok := index[handle]
		if !ok {
			return true
		}
		for _, child := range []int{node.Left, node.Right} {
			if child != NoHandle {
				pg.addHeapEdge(id, index[child])
			}
		}
		return true
	})

	return index
}

func (pg *PathGraph) addHeapEdge(from, to int) {
	pg.nodes[from].children = append(pg.nodes[from].children, pgEdge{
		to:     to,
		weight: domain.ClampNonNegative(pg.nodes[to].delta - pg.nodes[from].delta),
		kind:   heapEdge,
	})
}

// Size returns the number of path-graph nodes including the synthetic root.
func (pg *PathGraph) Size() int {
	return len(pg.nodes)
}

// OutHeap returns out-heap(v).
func (pg *PathGraph) OutHeap(v string) *SidetrackHeap {
	return pg.outHeaps[v]
}

// TreeHeap returns tree-heap(v).
func (pg *PathGraph) TreeHeap(v string) *SidetrackHeap {
	return pg.treeHeaps[v]
}
