// services/rcsp-svc/internal/report/excel.go
package report

import (
	"bytes"
	"context"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	progressSheet = "Progress"
	pathSheet     = "Path"
)

// ExcelGenerator генератор Excel отчётов
type ExcelGenerator struct {
	BaseGenerator

	// ProgressSheet имя листа с ходом решения
	ProgressSheet string
}

// NewExcelGenerator создаёт новый генератор
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{ProgressSheet: progressSheet}
}

// Format возвращает формат генератора
func (g *ExcelGenerator) Format() Format {
	return FormatXLSX
}

// Generate генерирует Excel отчёт
func (g *ExcelGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	// Удаляем дефолтный лист
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	g.writeSummary(f, data, headerStyle)
	if len(data.Progress) > 0 {
		g.writeProgress(f, data, headerStyle)
	}
	if len(data.Path) > 0 {
		g.writePath(f, data, headerStyle)
	}

	// Записываем в буфер
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(f *excelize.File, data *ReportData, headerStyle int) {
	sheet := summarySheet
	row := 1

	// Заголовок
	f.SetCellValue(sheet, Cell("A", row), g.GetTitle(data))
	f.MergeCell(sheet, Cell("A", row), Cell("B", row))
	row += 2

	section := func(title string) {
		f.SetCellValue(sheet, Cell("A", row), title)
		f.SetCellStyle(sheet, Cell("A", row), Cell("B", row), headerStyle)
		row++
	}
	pair := func(key string, value any) {
		f.SetCellValue(sheet, Cell("A", row), key)
		f.SetCellValue(sheet, Cell("B", row), value)
		row++
	}

	section("Instance")
	if data.RunID != "" {
		pair("Run ID", data.RunID)
	}
	if !data.GeneratedAt.IsZero() {
		pair("Generated At", g.FormatTimestamp(data.GeneratedAt))
	}
	if data.Instance.GraphFile != "" {
		pair("Graph File", data.Instance.GraphFile)
	}
	pair("Source", data.Instance.Source)
	pair("Target", data.Instance.Target)
	pair("Budget", data.Instance.Budget)
	pair("Enumerator", data.Instance.Enumerator)
	row++

	if data.Graph != nil {
		section("Graph")
		pair("Nodes", data.Graph.NodeCount)
		pair("Edges", data.Graph.EdgeCount)
		pair("Parallel Edges", data.Graph.ParallelEdgeCount)
		pair("Negative Cost Edges", data.Graph.NegativeCostEdges)
		pair("Density", data.Graph.Density)
		row++
	}

	if r := data.Result; r != nil {
		section("Result")
		pair("Status", r.Status)
		pair("Total Cost", r.TotalCost)
		pair("Total Resource", r.TotalResource)
		pair("Lower Bound", excelNumber(r.LowerBound))
		pair("Upper Bound", excelNumber(r.UpperBound))
		pair("Gap", g.FormatPercent(r.Gap))
		pair("Multiplier", r.Multiplier)
		pair("Iterations", r.Iterations)
		pair("Paths Enumerated", r.PathsEnumerated)
		pair("Solve Time", g.FormatDuration(r.SolveTime))
		if r.Error != "" {
			pair("Error", r.Error)
		}
		for _, w := range r.Warnings {
			pair("Warning", w)
		}
	}

	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "B", 40)
}

func (g *ExcelGenerator) writeProgress(f *excelize.File, data *ReportData, headerStyle int) {
	sheet := g.ProgressSheet
	if sheet == "" {
		sheet = progressSheet
	}
	f.NewSheet(sheet)

	headers := []string{"Iteration", "Phase", "Update", "Lower Bound", "Upper Bound", "Gap", "Multiplier", "Elapsed (ms)", "Path"}
	for i, h := range headers {
		f.SetCellValue(sheet, CellByIndex(i, 1), h)
	}
	last := ColName(len(headers) - 1)
	f.SetCellStyle(sheet, "A1", Cell(last, 1), headerStyle)

	for i, p := range data.Progress {
		row := i + 2
		f.SetCellValue(sheet, Cell("A", row), p.Iteration)
		f.SetCellValue(sheet, Cell("B", row), p.Phase)
		f.SetCellValue(sheet, Cell("C", row), p.Update)
		f.SetCellValue(sheet, Cell("D", row), excelNumber(p.LowerBound))
		f.SetCellValue(sheet, Cell("E", row), excelNumber(p.UpperBound))
		f.SetCellValue(sheet, Cell("F", row), excelNumber(p.Gap))
		f.SetCellValue(sheet, Cell("G", row), p.Multiplier)
		f.SetCellValue(sheet, Cell("H", row), float64(p.Elapsed.Microseconds())/1000)
		f.SetCellValue(sheet, Cell("I", row), strings.Join(p.Path, " -> "))
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	f.AutoFilter(sheet, "A1:"+Cell(last, len(data.Progress)+1), nil)
	f.SetColWidth(sheet, "A", "H", 14)
	f.SetColWidth(sheet, "I", "I", 50)
}

func (g *ExcelGenerator) writePath(f *excelize.File, data *ReportData, headerStyle int) {
	sheet := pathSheet
	f.NewSheet(sheet)

	headers := []string{"Step", "From", "To", "Key", "Cost", "Resource", "Cumulative Cost", "Cumulative Resource"}
	for i, h := range headers {
		f.SetCellValue(sheet, CellByIndex(i, 1), h)
	}
	f.SetCellStyle(sheet, "A1", Cell(ColName(len(headers)-1), 1), headerStyle)

	for i, e := range data.Path {
		row := i + 2
		f.SetCellValue(sheet, Cell("A", row), e.Step)
		f.SetCellValue(sheet, Cell("B", row), e.From)
		f.SetCellValue(sheet, Cell("C", row), e.To)
		f.SetCellValue(sheet, Cell("D", row), e.Key)
		f.SetCellValue(sheet, Cell("E", row), e.Cost)
		f.SetCellValue(sheet, Cell("F", row), e.Resource)
		f.SetCellValue(sheet, Cell("G", row), e.CumulativeCost)
		f.SetCellValue(sheet, Cell("H", row), e.CumulativeResource)
	}

	f.SetColWidth(sheet, "A", "H", 16)
}

// excelNumber заменяет бесконечности строками, которые Excel способен сохранить
func excelNumber(v float64) any {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return v
	}
}
