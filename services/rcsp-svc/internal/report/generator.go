// services/rcsp-svc/internal/report/generator.go
package report

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"rcsp/pkg/apperror"
	"rcsp/services/rcsp-svc/internal/algorithms"
	"rcsp/services/rcsp-svc/internal/converter"
)

// Format формат отчёта
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ReportData данные для генерации отчёта
type ReportData struct {
	Title       string
	RunID       string
	GeneratedAt time.Time

	Instance InstanceInfo
	Graph    *converter.GraphStatistics
	Result   *ResultSummary

	Path     []converter.PathEdge
	Progress []ProgressRow
}

// InstanceInfo параметры задачи
type InstanceInfo struct {
	GraphFile  string
	Source     string
	Target     string
	Budget     float64
	Enumerator string
}

// ResultSummary итог решения
type ResultSummary struct {
	Status          string
	TotalCost       float64
	TotalResource   float64
	LowerBound      float64
	UpperBound      float64
	Gap             float64
	Multiplier      float64
	Iterations      int
	PathsEnumerated int
	SolveTime       time.Duration
	Warnings        []string
	Error           string
}

// ProgressRow одна строка хода решения
type ProgressRow struct {
	Iteration  int
	Phase      string
	Update     string
	LowerBound float64
	UpperBound float64
	Gap        float64
	Multiplier float64
	Elapsed    time.Duration
	Path       []string
}

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *ReportData) ([]byte, error)
	Format() Format
}

// NewGenerator возвращает генератор для формата
func NewGenerator(format string) (Generator, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatXLSX, "":
		return NewExcelGenerator(), nil
	case FormatCSV:
		return NewCSVGenerator(), nil
	case FormatJSON:
		return NewJSONGenerator(), nil
	default:
		return nil, apperror.Newf(apperror.CodeInvalidArgument, "unknown report format %q", format).
			WithField("format")
	}
}

// FormatFromPath определяет формат по расширению файла
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, true
	case ".csv":
		return FormatCSV, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}

// WriteFile генерирует отчёт и записывает его в файл
func WriteFile(ctx context.Context, gen Generator, data *ReportData, path string) error {
	content, err := gen.Generate(ctx, data)
	if err != nil {
		return fmt.Errorf("generate %s report: %w", gen.Format(), err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, content, 0o644)
}

// =============================================================================
// Recorder
// =============================================================================

// Recorder собирает события хода решения. Безопасен для конкурентного использования.
type Recorder struct {
	mu   sync.Mutex
	rows []ProgressRow
}

// NewRecorder создаёт пустой Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record сохраняет событие; подходит как SolverOptions.Progress
func (r *Recorder) Record(ev algorithms.ProgressEvent) {
	row := ProgressRow{
		Iteration:  ev.Iteration,
		Phase:      string(ev.Phase),
		Update:     ev.Update,
		LowerBound: ev.LowerBound,
		UpperBound: ev.UpperBound,
		Gap:        ev.Gap,
		Multiplier: ev.Multiplier,
		Elapsed:    ev.Elapsed,
	}
	if ev.Path != nil {
		row.Path = ev.Path.Nodes()
	}

	r.mu.Lock()
	r.rows = append(r.rows, row)
	r.mu.Unlock()
}

// Rows возвращает копию собранных строк
func (r *Recorder) Rows() []ProgressRow {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ProgressRow, len(r.rows))
	copy(out, r.rows)
	return out
}

// SummaryFromResult формирует итог по результату решателя
func SummaryFromResult(res *algorithms.RCSPResult, solveErr error) *ResultSummary {
	s := &ResultSummary{}
	if res != nil {
		s.Status = string(res.Status)
		s.TotalCost = res.TotalCost
		s.TotalResource = res.TotalResource
		s.LowerBound = res.LowerBound
		s.UpperBound = res.UpperBound
		s.Gap = res.Gap()
		s.Multiplier = res.Multiplier
		s.Iterations = res.Iterations
		s.PathsEnumerated = res.PathsEnumerated
		s.SolveTime = res.SolveTime
		for _, w := range res.Warnings {
			s.Warnings = append(s.Warnings, w.Error())
		}
	}
	if solveErr != nil {
		if s.Status == "" {
			s.Status = string(algorithms.StatusError)
		}
		s.Error = solveErr.Error()
	}
	return s
}

// =============================================================================
// Helpers
// =============================================================================

// BaseGenerator базовые утилиты для генераторов
type BaseGenerator struct{}

// GetTitle возвращает заголовок отчёта
func (b *BaseGenerator) GetTitle(data *ReportData) string {
	if data.Title != "" {
		return data.Title
	}
	return "RCSP Solve Report"
}

// FormatBound форматирует оценку; бесконечности выводятся как inf / -inf
func (b *BaseGenerator) FormatBound(v float64, precision int) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return b.FormatFloat(v, precision)
	}
}

// FormatFloat форматирует число с заданной точностью
func (b *BaseGenerator) FormatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}

// FormatPercent форматирует процент
func (b *BaseGenerator) FormatPercent(v float64) string {
	if math.IsInf(v, 0) {
		return "inf"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatDuration форматирует длительность
func (b *BaseGenerator) FormatDuration(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}
	return fmt.Sprintf("%.2f s", ms/1000)
}

// FormatTimestamp форматирует время
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// ColName преобразует индекс колонки в буквенное обозначение (0 -> A, 25 -> Z, 26 -> AA)
func ColName(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}

// Cell возвращает адрес ячейки
func Cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// CellByIndex возвращает адрес ячейки по индексам
func CellByIndex(colIndex, rowIndex int) string {
	return fmt.Sprintf("%s%d", ColName(colIndex), rowIndex)
}
