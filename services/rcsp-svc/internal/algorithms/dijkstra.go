package algorithms

import (
	"container/heap"
	"context"

	"rcsp/pkg/domain"
)

// =============================================================================
// Dijkstra's Algorithm
// =============================================================================
//
// Dijkstra's algorithm finds the shortest paths from a single source vertex to
// all other vertices in a graph with non-negative edge weights.
//
// Time Complexity: O((V + E) log V) with binary heap
// Space Complexity: O(V)
//
// Important:
//   - Standard Dijkstra cannot handle negative edge weights correctly
//   - This implementation falls back to Bellman-Ford as soon as a negative
//     edge is scanned
//
// References:
//   - Dijkstra, E. W. (1959). "A note on two problems in connexion with graphs"
// =============================================================================

// DijkstraResult contains the result of Dijkstra's algorithm.
type DijkstraResult struct {
	// Distances maps each vertex to its shortest distance from the origin.
	Distances map[string]float64

	// Parent maps each vertex to its predecessor on the shortest path.
	Parent map[string]string

	// Canceled indicates whether the operation was canceled via context.
	Canceled bool

	// UsedBellmanFord indicates whether the algorithm fell back to Bellman-Ford
	// due to negative edge weights being detected.
	UsedBellmanFord bool

	// HasNegativeCycle is only ever set by the Bellman-Ford fallback.
	HasNegativeCycle bool
}

// GetDistances implements the distanceResult interface.
func (r *DijkstraResult) GetDistances() map[string]float64 {
	return r.Distances
}

// GetParent implements the distanceResult interface.
func (r *DijkstraResult) GetParent() map[string]string {
	return r.Parent
}

// priorityQueueItem represents an element in the priority queue.
type priorityQueueItem struct {
	node     string
	distance float64
	index    int
}

// priorityQueue implements heap.Interface for Dijkstra's algorithm.
// It is a min-heap based on distance, with tie-breaking by vertex id for determinism.
type priorityQueue []*priorityQueueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].node < pq[j].node
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*priorityQueueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // Avoid memory leak
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// Dijkstra executes Dijkstra's algorithm from source along outgoing edges.
// Automatically falls back to Bellman-Ford if a negative edge is scanned.
func Dijkstra(ctx context.Context, g *domain.MultiGraph, source string, weight domain.WeightFunc) *DijkstraResult {
	return dijkstra(ctx, g, source, weight, forward)
}

// DijkstraToTarget executes Dijkstra on the reversed graph, producing
// distances from every vertex to target.
func DijkstraToTarget(ctx context.Context, g *domain.MultiGraph, target string, weight domain.WeightFunc) *DijkstraResult {
	return dijkstra(ctx, g, target, weight, backward)
}

func dijkstra(ctx context.Context, g *domain.MultiGraph, origin string, weight domain.WeightFunc, dir direction) *DijkstraResult {
	nodes := g.SortedNodes()

	dist := make(map[string]float64, len(nodes))
	parent := make(map[string]string, len(nodes))

	for _, node := range nodes {
		dist[node] = domain.Infinity
	}
	dist[origin] = 0

	pq := make(priorityQueue, 0, len(nodes))
	heap.Init(&pq)
	heap.Push(&pq, &priorityQueueItem{node: origin})

	const checkInterval = 100
	iterations := 0

	for pq.Len() > 0 {
		if iterations%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return &DijkstraResult{
					Distances: dist,
					Parent:    parent,
					Canceled:  true,
				}
			default:
			}
		}
		iterations++

		current := heap.Pop(&pq).(*priorityQueueItem)
		u := current.node

		// Skip stale entries (already processed with a better distance)
		if domain.FloatGreater(current.distance, dist[u]) {
			continue
		}

		for _, edge := range dir.edges(g, u) {
			w := weight(edge)

			// Negative edge weight - fallback to Bellman-Ford
			if domain.IsNegative(w) {
				bf := bellmanFord(ctx, g, origin, weight, dir)
				return &DijkstraResult{
					Distances:        bf.Distances,
					Parent:           bf.Parent,
					Canceled:         bf.Canceled,
					UsedBellmanFord:  true,
					HasNegativeCycle: bf.HasNegativeCycle,
				}
			}

			v := dir.neighbor(edge)
			newDist := dist[u] + w

			if domain.FloatLess(newDist, dist[v]) {
				dist[v] = newDist
				parent[v] = u
				heap.Push(&pq, &priorityQueueItem{
					node:     v,
					distance: newDist,
				})
			}
		}
	}

	return &DijkstraResult{
		Distances: dist,
		Parent:    parent,
	}
}
