package domain

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// EdgeKey уникальный ключ ребра мультиграфа
type EdgeKey struct {
	From string
	To   string
	Key  int
}

// String возвращает строковое представление ключа ребра
func (k EdgeKey) String() string {
	return fmt.Sprintf("%s->%s#%d", k.From, k.To, k.Key)
}

// Less задаёт порядок (tail, head, key)
func (k EdgeKey) Less(other EdgeKey) bool {
	if k.From != other.From {
		return k.From < other.From
	}
	if k.To != other.To {
		return k.To < other.To
	}
	return k.Key < other.Key
}

// Edge представляет ребро мультиграфа
type Edge struct {
	From     string
	To       string
	Key      int     // различает параллельные рёбра между одной парой вершин
	Cost     float64 // основная стоимость
	Resource float64 // расход ресурса
	Weight   float64 // комбинированный вес Cost + u*Resource
}

// ID возвращает ключ ребра
func (e *Edge) ID() EdgeKey {
	return EdgeKey{From: e.From, To: e.To, Key: e.Key}
}

// String возвращает строковое представление ребра
func (e *Edge) String() string {
	return fmt.Sprintf("(%s, %s, %d)", e.From, e.To, e.Key)
}

// Clone создаёт копию ребра
func (e *Edge) Clone() *Edge {
	c := *e
	return &c
}

// WeightFunc выбирает вес ребра для поиска кратчайшего пути
type WeightFunc func(e *Edge) float64

// ByCost выбирает стоимость ребра
func ByCost(e *Edge) float64 { return e.Cost }

// ByResource выбирает расход ресурса
func ByResource(e *Edge) float64 { return e.Resource }

// ByWeight выбирает комбинированный вес
func ByWeight(e *Edge) float64 { return e.Weight }

// MultiGraph ориентированный мультиграф с двумя весами на ребре.
// После построения граф используется только для чтения.
type MultiGraph struct {
	nodes    map[string]bool
	edges    map[EdgeKey]*Edge
	outgoing map[string][]*Edge // отсортированы по (To, Key)
	incoming map[string][]*Edge // отсортированы по (From, Key)
	nextKey  map[[2]string]int

	sortedNodes []string
	sorted      bool

	mu sync.RWMutex
}

// NewMultiGraph создаёт новый пустой мультиграф
func NewMultiGraph() *MultiGraph {
	return &MultiGraph{
		nodes:    make(map[string]bool),
		edges:    make(map[EdgeKey]*Edge),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
		nextKey:  make(map[[2]string]int),
	}
}

// AddNode добавляет вершину
func (g *MultiGraph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addNodeLocked(id)
}

func (g *MultiGraph) addNodeLocked(id string) {
	if !g.nodes[id] {
		g.nodes[id] = true
		g.sorted = false
	}
}

// AddEdge добавляет ребро; параллельные рёбра получают последовательные ключи
func (g *MultiGraph) AddEdge(from, to string, cost, resource float64) *Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	pair := [2]string{from, to}
	key := g.nextKey[pair]
	for {
		if _, exists := g.edges[EdgeKey{From: from, To: to, Key: key}]; !exists {
			break
		}
		key++
	}

	edge := &Edge{From: from, To: to, Key: key, Cost: cost, Resource: resource, Weight: cost}
	g.insertLocked(edge)
	return edge
}

// AddEdgeWithKey добавляет ребро с явно заданным ключом
func (g *MultiGraph) AddEdgeWithKey(edge *Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.edges[edge.ID()]; exists {
		return fmt.Errorf("duplicate edge %s", edge.ID())
	}
	g.insertLocked(edge)
	return nil
}

func (g *MultiGraph) insertLocked(edge *Edge) {
	g.addNodeLocked(edge.From)
	g.addNodeLocked(edge.To)

	g.edges[edge.ID()] = edge
	pair := [2]string{edge.From, edge.To}
	if edge.Key >= g.nextKey[pair] {
		g.nextKey[pair] = edge.Key + 1
	}

	// Поддерживаем детерминированный порядок списков смежности
	out := append(g.outgoing[edge.From], edge)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Key < out[j].Key
	})
	g.outgoing[edge.From] = out

	in := append(g.incoming[edge.To], edge)
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].From != in[j].From {
			return in[i].From < in[j].From
		}
		return in[i].Key < in[j].Key
	})
	g.incoming[edge.To] = in
}

// HasNode проверяет наличие вершины
func (g *MultiGraph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.nodes[id]
}

// Edge возвращает ребро по (tail, head, key)
func (g *MultiGraph) Edge(from, to string, key int) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.edges[EdgeKey{From: from, To: to, Key: key}]
	return e, ok
}

// Parallel возвращает все рёбра from->to в порядке ключей
func (g *MultiGraph) Parallel(from, to string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var result []*Edge
	for _, e := range g.outgoing[from] {
		if e.To == to {
			result = append(result, e)
		}
	}
	return result
}

// Outgoing возвращает исходящие рёбра вершины
func (g *MultiGraph) Outgoing(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.outgoing[id]
}

// Incoming возвращает входящие рёбра вершины
func (g *MultiGraph) Incoming(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.incoming[id]
}

// SortedNodes возвращает вершины в детерминированном порядке
func (g *MultiGraph) SortedNodes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.sorted {
		nodes := make([]string, 0, len(g.nodes))
		for id := range g.nodes {
			nodes = append(nodes, id)
		}
		sort.Strings(nodes)
		g.sortedNodes = nodes
		g.sorted = true
	}
	return g.sortedNodes
}

// Edges возвращает все рёбра в порядке (tail, head, key)
func (g *MultiGraph) Edges() []*Edge {
	nodes := g.SortedNodes()

	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Edge, 0, len(g.edges))
	for _, id := range nodes {
		result = append(result, g.outgoing[id]...)
	}
	return result
}

// NodeCount возвращает количество вершин
func (g *MultiGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// EdgeCount возвращает количество рёбер
func (g *MultiGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.edges)
}

// HasNegativeWeights проверяет наличие рёбер с отрицательным весом
func (g *MultiGraph) HasNegativeWeights(weight WeightFunc) bool {
	for _, e := range g.Edges() {
		if IsNegative(weight(e)) {
			return true
		}
	}
	return false
}

// Clone создаёт глубокую копию графа
func (g *MultiGraph) Clone() *MultiGraph {
	return g.filter(func(string) bool { return true }, func(*Edge) bool { return true }, nil)
}

// CombineWeights возвращает новый граф с весом Cost + u*Resource.
// Исходный граф не изменяется.
func (g *MultiGraph) CombineWeights(u float64) *MultiGraph {
	return g.filter(func(string) bool { return true }, func(*Edge) bool { return true }, func(e *Edge) {
		e.Weight = e.Cost + u*e.Resource
	})
}

// Without возвращает копию графа без указанных вершин и рёбер
func (g *MultiGraph) Without(nodes map[string]bool, edges map[EdgeKey]bool) *MultiGraph {
	return g.filter(
		func(id string) bool { return !nodes[id] },
		func(e *Edge) bool { return !edges[e.ID()] },
		nil,
	)
}

// Subgraph возвращает подграф, индуцированный множеством вершин
func (g *MultiGraph) Subgraph(keep map[string]bool) *MultiGraph {
	return g.filter(func(id string) bool { return keep[id] }, func(*Edge) bool { return true }, nil)
}

func (g *MultiGraph) filter(keepNode func(string) bool, keepEdge func(*Edge) bool, mutate func(*Edge)) *MultiGraph {
	nodes := g.SortedNodes()
	clone := NewMultiGraph()

	for _, id := range nodes {
		if keepNode(id) {
			clone.nodes[id] = true
		}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, id := range nodes {
		if !clone.nodes[id] {
			continue
		}
		for _, e := range g.outgoing[id] {
			if !clone.nodes[e.To] || !keepEdge(e) {
				continue
			}
			c := e.Clone()
			if mutate != nil {
				mutate(c)
			}
			clone.edges[c.ID()] = c
			clone.outgoing[c.From] = append(clone.outgoing[c.From], c)
			clone.incoming[c.To] = append(clone.incoming[c.To], c)
			pair := [2]string{c.From, c.To}
			if c.Key >= clone.nextKey[pair] {
				clone.nextKey[pair] = c.Key + 1
			}
		}
	}

	// outgoing уже упорядочен; incoming требует сортировки по (From, Key)
	for id, in := range clone.incoming {
		sort.SliceStable(in, func(i, j int) bool {
			if in[i].From != in[j].From {
				return in[i].From < in[j].From
			}
			return in[i].Key < in[j].Key
		})
		clone.incoming[id] = in
	}

	return clone
}

// Validate проверяет корректность графа
func (g *MultiGraph) Validate() []error {
	var errs []error
	for _, e := range g.Edges() {
		if e.From == "" || e.To == "" {
			errs = append(errs, fmt.Errorf("edge %s has empty endpoint", e.ID()))
		}
		if math.IsNaN(e.Cost) || math.IsNaN(e.Resource) {
			errs = append(errs, fmt.Errorf("edge %s has NaN weight", e.ID()))
		}
		if math.IsInf(e.Cost, 0) || math.IsInf(e.Resource, 0) {
			errs = append(errs, fmt.Errorf("edge %s has infinite weight", e.ID()))
		}
	}
	return errs
}
