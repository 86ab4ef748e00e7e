// services/rcsp-svc/internal/report/csv.go
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// CSVGenerator генератор CSV отчётов: строки хода решения, затем путь
type CSVGenerator struct {
	BaseGenerator
}

// NewCSVGenerator создаёт новый генератор
func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

// Format возвращает формат генератора
func (g *CSVGenerator) Format() Format {
	return FormatCSV
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record ...string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Generate генерирует CSV отчёт
func (g *CSVGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	cw.Write("# " + g.GetTitle(data))
	cw.Write("source", data.Instance.Source)
	cw.Write("target", data.Instance.Target)
	cw.Write("budget", g.FormatFloat(data.Instance.Budget, 6))
	cw.Write("enumerator", data.Instance.Enumerator)

	if r := data.Result; r != nil {
		cw.Write("status", r.Status)
		cw.Write("total_cost", g.FormatFloat(r.TotalCost, 6))
		cw.Write("total_resource", g.FormatFloat(r.TotalResource, 6))
		cw.Write("lower_bound", g.FormatBound(r.LowerBound, 6))
		cw.Write("upper_bound", g.FormatBound(r.UpperBound, 6))
		cw.Write("iterations", strconv.Itoa(r.Iterations))
		cw.Write("paths_enumerated", strconv.Itoa(r.PathsEnumerated))
		if r.Error != "" {
			cw.Write("error", r.Error)
		}
	}
	cw.Write("")

	cw.Write("iteration", "phase", "update", "lower_bound", "upper_bound", "gap", "multiplier", "elapsed_ms", "path")
	for _, p := range data.Progress {
		cw.Write(
			strconv.Itoa(p.Iteration),
			p.Phase,
			p.Update,
			g.FormatBound(p.LowerBound, 6),
			g.FormatBound(p.UpperBound, 6),
			g.FormatBound(p.Gap, 6),
			g.FormatFloat(p.Multiplier, 6),
			g.FormatFloat(float64(p.Elapsed.Microseconds())/1000, 3),
			strings.Join(p.Path, " "),
		)
	}

	if len(data.Path) > 0 {
		cw.Write("")
		cw.Write("step", "from", "to", "key", "cost", "resource", "cumulative_cost", "cumulative_resource")
		for _, e := range data.Path {
			cw.Write(
				strconv.Itoa(e.Step),
				e.From,
				e.To,
				strconv.Itoa(e.Key),
				g.FormatFloat(e.Cost, 6),
				g.FormatFloat(e.Resource, 6),
				g.FormatFloat(e.CumulativeCost, 6),
				g.FormatFloat(e.CumulativeResource, 6),
			)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}
