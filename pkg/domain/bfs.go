package domain

import "errors"

// ErrNoPath путь от источника до цели отсутствует
var ErrNoPath = errors.New("target is not reachable from source")

// BFSResult результат BFS обхода
type BFSResult struct {
	Order   []string
	Visited map[string]bool
	Level   map[string]int
}

// Reachable выполняет поиск в ширину от source по исходящим рёбрам
func Reachable(g *MultiGraph, source string) *BFSResult {
	return bfs(g, source, func(v string) []string {
		edges := g.Outgoing(v)
		next := make([]string, 0, len(edges))
		for _, e := range edges {
			next = append(next, e.To)
		}
		return next
	})
}

// ReverseReachable выполняет обратный BFS от target (по входящим рёбрам)
func ReverseReachable(g *MultiGraph, target string) *BFSResult {
	return bfs(g, target, func(v string) []string {
		edges := g.Incoming(v)
		next := make([]string, 0, len(edges))
		for _, e := range edges {
			next = append(next, e.From)
		}
		return next
	})
}

func bfs(g *MultiGraph, start string, neighbors func(string) []string) *BFSResult {
	result := &BFSResult{
		Visited: make(map[string]bool),
		Level:   make(map[string]int),
	}
	if !g.HasNode(start) {
		return result
	}

	queue := []string{start}
	result.Visited[start] = true
	result.Level[start] = 0

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		result.Order = append(result.Order, u)

		for _, v := range neighbors(u) {
			if result.Visited[v] {
				continue
			}
			result.Visited[v] = true
			result.Level[v] = result.Level[u] + 1
			queue = append(queue, v)
		}
	}

	return result
}

// PruneToReachable оставляет только вершины, лежащие на каком-либо пути source -> target.
// Возвращает новый граф; исходный не изменяется.
func PruneToReachable(g *MultiGraph, source, target string) (*MultiGraph, error) {
	if !g.HasNode(source) || !g.HasNode(target) {
		return nil, ErrNoPath
	}

	forward := Reachable(g, source)
	if !forward.Visited[target] {
		return nil, ErrNoPath
	}
	backward := ReverseReachable(g, target)

	keep := make(map[string]bool, len(forward.Visited))
	for v := range forward.Visited {
		if backward.Visited[v] {
			keep[v] = true
		}
	}

	return g.Subgraph(keep), nil
}
