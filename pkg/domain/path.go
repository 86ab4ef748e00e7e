package domain

import (
	"fmt"
	"strings"
)

// Path представляет путь в графе как последовательность рёбер
type Path struct {
	Edges    []*Edge
	Cost     float64
	Resource float64
	Weight   float64
}

// NewPath создаёт путь и подсчитывает суммарные веса
func NewPath(edges []*Edge) *Path {
	p := &Path{Edges: edges}
	for _, e := range edges {
		p.Cost += e.Cost
		p.Resource += e.Resource
		p.Weight += e.Weight
	}
	return p
}

// Nodes возвращает последовательность вершин пути
func (p *Path) Nodes() []string {
	if p == nil || len(p.Edges) == 0 {
		return nil
	}

	nodes := make([]string, 0, len(p.Edges)+1)
	nodes = append(nodes, p.Edges[0].From)
	for _, e := range p.Edges {
		nodes = append(nodes, e.To)
	}
	return nodes
}

// Len возвращает количество рёбер пути
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Edges)
}

// WeightBy пересчитывает вес пути по заданному селектору
func (p *Path) WeightBy(weight WeightFunc) float64 {
	total := 0.0
	for _, e := range p.Edges {
		total += weight(e)
	}
	return total
}

// Excess возвращает превышение бюджета ресурса (отрицательное, если путь допустим)
func (p *Path) Excess(budget float64) float64 {
	return p.Resource - budget
}

// Feasible проверяет, укладывается ли путь в бюджет ресурса
func (p *Path) Feasible(budget float64) bool {
	return !FloatGreater(p.Resource, budget)
}

// IsSimple проверяет, что путь не посещает вершину дважды
func (p *Path) IsSimple() bool {
	seen := make(map[string]bool)
	for _, v := range p.Nodes() {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Keys возвращает ключи рёбер пути
func (p *Path) Keys() []EdgeKey {
	keys := make([]EdgeKey, len(p.Edges))
	for i, e := range p.Edges {
		keys[i] = e.ID()
	}
	return keys
}

// Signature возвращает строку, однозначно описывающую путь с учётом параллельных рёбер
func (p *Path) Signature() string {
	parts := make([]string, len(p.Edges))
	for i, e := range p.Edges {
		parts[i] = e.ID().String()
	}
	return strings.Join(parts, " ")
}

// String возвращает вершины пути
func (p *Path) String() string {
	return fmt.Sprintf("%s (cost=%.4g, resource=%.4g)", strings.Join(p.Nodes(), " -> "), p.Cost, p.Resource)
}

// Rebind заменяет рёбра пути на рёбра графа g с теми же ключами
func (p *Path) Rebind(g *MultiGraph) (*Path, error) {
	edges := make([]*Edge, len(p.Edges))
	for i, e := range p.Edges {
		ge, ok := g.Edge(e.From, e.To, e.Key)
		if !ok {
			return nil, fmt.Errorf("edge %s not found", e.ID())
		}
		edges[i] = ge
	}
	return NewPath(edges), nil
}
