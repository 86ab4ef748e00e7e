package converter

import (
	"math"

	"rcsp/pkg/domain"
)

// PathEdge is a flat view of one path edge for responses and reports.
type PathEdge struct {
	Step     int     `json:"step"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Key      int     `json:"key"`
	Cost     float64 `json:"cost"`
	Resource float64 `json:"resource"`

	// Running totals up to and including this edge
	CumulativeCost     float64 `json:"cumulative_cost"`
	CumulativeResource float64 `json:"cumulative_resource"`
}

// GraphStatistics summarises an instance.
type GraphStatistics struct {
	NodeCount         int
	EdgeCount         int
	ParallelEdgeCount int
	NegativeCostEdges int
	TotalCost         float64
	TotalResource     float64
	AverageCost       float64
	AverageResource   float64
	MinResource       float64
	MaxResource       float64
	Density           float64
}

// ToPathEdges конвертирует путь в плоские строки с накопленными суммами
func ToPathEdges(p *domain.Path) []PathEdge {
	if p == nil {
		return nil
	}

	result := make([]PathEdge, 0, len(p.Edges))
	var cost, resource float64
	for i, e := range p.Edges {
		cost += e.Cost
		resource += e.Resource
		result = append(result, PathEdge{
			Step:               i + 1,
			From:               e.From,
			To:                 e.To,
			Key:                e.Key,
			Cost:               e.Cost,
			Resource:           e.Resource,
			CumulativeCost:     cost,
			CumulativeResource: resource,
		})
	}
	return result
}

// ToNodeIDs возвращает последовательность вершин пути
func ToNodeIDs(p *domain.Path) []string {
	if p == nil {
		return []string{}
	}
	nodes := p.Nodes()
	if nodes == nil {
		return []string{}
	}
	return nodes
}

// CalculateGraphStatistics вычисляет статистику графа
func CalculateGraphStatistics(g *domain.MultiGraph) *GraphStatistics {
	stats := &GraphStatistics{
		NodeCount: g.NodeCount(),
	}

	minRes, maxRes := math.Inf(1), math.Inf(-1)
	for _, e := range g.Edges() {
		stats.EdgeCount++
		stats.TotalCost += e.Cost
		stats.TotalResource += e.Resource

		if e.Key > 0 {
			stats.ParallelEdgeCount++
		}
		if e.Cost < 0 {
			stats.NegativeCostEdges++
		}
		minRes = math.Min(minRes, e.Resource)
		maxRes = math.Max(maxRes, e.Resource)
	}

	if stats.EdgeCount > 0 {
		stats.AverageCost = stats.TotalCost / float64(stats.EdgeCount)
		stats.AverageResource = stats.TotalResource / float64(stats.EdgeCount)
		stats.MinResource = minRes
		stats.MaxResource = maxRes
	}

	if stats.NodeCount > 1 {
		maxEdges := stats.NodeCount * (stats.NodeCount - 1)
		stats.Density = float64(stats.EdgeCount) / float64(maxEdges)
	}

	return stats
}
