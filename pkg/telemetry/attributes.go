package telemetry

import (
	"math"

	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Граф
	AttrGraphNodes  = "graph.nodes"
	AttrGraphEdges  = "graph.edges"
	AttrGraphSource = "graph.source"
	AttrGraphTarget = "graph.target"

	// Задача
	AttrBudget     = "rcsp.budget"
	AttrEnumerator = "rcsp.enumerator"
	AttrRunID      = "rcsp.run_id"

	// Результат
	AttrStatus     = "rcsp.status"
	AttrIterations = "rcsp.iterations"
	AttrPaths      = "rcsp.paths_enumerated"
	AttrTotalCost  = "rcsp.total_cost"
	AttrResource   = "rcsp.total_resource"
	AttrMultiplier = "rcsp.multiplier"

	// Шаг двойственного алгоритма
	AttrPhase      = "dual.phase"
	AttrLowerBound = "dual.lower_bound"
	AttrUpperBound = "dual.upper_bound"
	AttrGap        = "dual.gap"
)

// GraphAttributes возвращает атрибуты графа
func GraphAttributes(nodes, edges int, source, target string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.String(AttrGraphSource, source),
		attribute.String(AttrGraphTarget, target),
	}
}

// ResultAttributes возвращает атрибуты результата решения
func ResultAttributes(status string, iterations, paths int, cost, resource, multiplier float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrStatus, status),
		attribute.Int(AttrIterations, iterations),
		attribute.Int(AttrPaths, paths),
		attribute.Float64(AttrTotalCost, cost),
		attribute.Float64(AttrResource, resource),
		attribute.Float64(AttrMultiplier, multiplier),
	}
}

// BoundsAttributes возвращает атрибуты шага двойственного алгоритма.
// Бесконечные оценки не передаются: OTLP их не принимает.
func BoundsAttributes(phase string, lb, ub, gap float64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(AttrPhase, phase)}
	for _, kv := range []struct {
		key string
		v   float64
	}{{AttrLowerBound, lb}, {AttrUpperBound, ub}, {AttrGap, gap}} {
		if !math.IsInf(kv.v, 0) && math.Abs(kv.v) < math.MaxFloat64 {
			attrs = append(attrs, attribute.Float64(kv.key, kv.v))
		}
	}
	return attrs
}
