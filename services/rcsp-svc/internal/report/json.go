// services/rcsp-svc/internal/report/json.go
package report

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"rcsp/services/rcsp-svc/internal/converter"
)

// JSONGenerator генератор JSON отчётов
type JSONGenerator struct {
	BaseGenerator
}

// NewJSONGenerator создаёт новый генератор
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

// Format возвращает формат генератора
func (g *JSONGenerator) Format() Format {
	return FormatJSON
}

// JSONReport структура JSON отчёта. Бесконечные оценки кодируются как null.
type JSONReport struct {
	Metadata JSONMetadata         `json:"metadata"`
	Instance JSONInstance         `json:"instance"`
	Graph    *JSONGraph           `json:"graph,omitempty"`
	Result   *JSONResult          `json:"result,omitempty"`
	Path     []converter.PathEdge `json:"path,omitempty"`
	Progress []JSONProgress       `json:"progress,omitempty"`
}

type JSONMetadata struct {
	Title       string `json:"title"`
	RunID       string `json:"runId,omitempty"`
	GeneratedAt string `json:"generatedAt"`
}

type JSONInstance struct {
	GraphFile  string  `json:"graphFile,omitempty"`
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Budget     float64 `json:"budget"`
	Enumerator string  `json:"enumerator"`
}

type JSONGraph struct {
	NodeCount         int     `json:"nodeCount"`
	EdgeCount         int     `json:"edgeCount"`
	ParallelEdgeCount int     `json:"parallelEdgeCount"`
	Density           float64 `json:"density"`
}

type JSONResult struct {
	Status          string   `json:"status"`
	TotalCost       float64  `json:"totalCost"`
	TotalResource   float64  `json:"totalResource"`
	LowerBound      *float64 `json:"lowerBound"`
	UpperBound      *float64 `json:"upperBound"`
	Gap             *float64 `json:"gap"`
	Multiplier      float64  `json:"multiplier"`
	Iterations      int      `json:"iterations"`
	PathsEnumerated int      `json:"pathsEnumerated"`
	SolveTimeMs     float64  `json:"solveTimeMs"`
	Warnings        []string `json:"warnings,omitempty"`
	Error           string   `json:"error,omitempty"`
}

type JSONProgress struct {
	Iteration  int      `json:"iteration"`
	Phase      string   `json:"phase"`
	Update     string   `json:"update,omitempty"`
	LowerBound *float64 `json:"lowerBound"`
	UpperBound *float64 `json:"upperBound"`
	Gap        *float64 `json:"gap"`
	Multiplier float64  `json:"multiplier"`
	ElapsedMs  float64  `json:"elapsedMs"`
	Path       []string `json:"path,omitempty"`
}

// Generate генерирует JSON отчёт
func (g *JSONGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	generatedAt := data.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	rep := JSONReport{
		Metadata: JSONMetadata{
			Title:       g.GetTitle(data),
			RunID:       data.RunID,
			GeneratedAt: generatedAt.Format(time.RFC3339),
		},
		Instance: JSONInstance{
			GraphFile:  data.Instance.GraphFile,
			Source:     data.Instance.Source,
			Target:     data.Instance.Target,
			Budget:     data.Instance.Budget,
			Enumerator: data.Instance.Enumerator,
		},
		Path: data.Path,
	}

	if data.Graph != nil {
		rep.Graph = &JSONGraph{
			NodeCount:         data.Graph.NodeCount,
			EdgeCount:         data.Graph.EdgeCount,
			ParallelEdgeCount: data.Graph.ParallelEdgeCount,
			Density:           data.Graph.Density,
		}
	}

	if r := data.Result; r != nil {
		rep.Result = &JSONResult{
			Status:          r.Status,
			TotalCost:       r.TotalCost,
			TotalResource:   r.TotalResource,
			LowerBound:      finite(r.LowerBound),
			UpperBound:      finite(r.UpperBound),
			Gap:             finite(r.Gap),
			Multiplier:      r.Multiplier,
			Iterations:      r.Iterations,
			PathsEnumerated: r.PathsEnumerated,
			SolveTimeMs:     float64(r.SolveTime.Microseconds()) / 1000,
			Warnings:        r.Warnings,
			Error:           r.Error,
		}
	}

	for _, p := range data.Progress {
		rep.Progress = append(rep.Progress, JSONProgress{
			Iteration:  p.Iteration,
			Phase:      p.Phase,
			Update:     p.Update,
			LowerBound: finite(p.LowerBound),
			UpperBound: finite(p.UpperBound),
			Gap:        finite(p.Gap),
			Multiplier: p.Multiplier,
			ElapsedMs:  float64(p.Elapsed.Microseconds()) / 1000,
			Path:       p.Path,
		})
	}

	return json.MarshalIndent(rep, "", "  ")
}

// finite возвращает nil для бесконечных и NaN значений
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
