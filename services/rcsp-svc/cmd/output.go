package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"rcsp/pkg/audit"
	"rcsp/pkg/domain"
	"rcsp/services/rcsp-svc/internal/algorithms"
	"rcsp/services/rcsp-svc/internal/converter"
)

const ruleWidth = 60

// stepLabels maps solver phases onto the short step column.
var stepLabels = map[algorithms.Phase]string{
	algorithms.PhaseCostBound:     "#1",
	algorithms.PhaseResourceBound: "#2",
	algorithms.PhaseAscent:        "#3",
	algorithms.PhaseGapClosing:    "#4",
}

// progressPrinter renders solver progress events as a fixed-width table.
type progressPrinter struct {
	w         io.Writer
	printPath bool
	phase     algorithms.Phase
	started   bool
}

func newProgressPrinter(w io.Writer, printPath bool) *progressPrinter {
	return &progressPrinter{w: w, printPath: printPath}
}

// Event is passed to the service as the progress callback.
func (p *progressPrinter) Event(ev algorithms.ProgressEvent) {
	// A new header opens every phase after bound setup
	if !p.started || (ev.Phase != p.phase && ev.Phase != algorithms.PhaseResourceBound) {
		if p.started {
			fmt.Fprintln(p.w)
		}
		p.header()
		p.started = true
	}
	p.phase = ev.Phase

	if ev.Path != nil && p.printPath {
		printSolution(p.w, "*Best Solution", ev.Path)
	}

	fmt.Fprintf(p.w, "%5d %4s %6s %7s %7s %7s %7s %6.0fs\n",
		ev.Iteration,
		stepLabels[ev.Phase],
		ev.Update,
		bound(ev.UpperBound),
		bound(ev.LowerBound),
		bound(ev.UpperBound),
		percent(ev.Gap),
		math.Floor(ev.Elapsed.Seconds()),
	)
}

func (p *progressPrinter) header() {
	fmt.Fprintln(p.w, strings.Repeat("-", ruleWidth))
	fmt.Fprintf(p.w, "%5s %4s %6s %7s %7s %7s %7s %7s\n", "Iter", "Step", "Update", "Best", "LB", "UB", "Gap", "Time")
	fmt.Fprintln(p.w, strings.Repeat("-", ruleWidth))
}

func printBanner(w io.Writer, kind algorithms.EnumeratorKind) {
	fmt.Fprintln(w, "Main Algorithm            : Handler-Zang dual algorithm")
	fmt.Fprintln(w, "Shortest Path Algorithm   : Dijkstra / Bellman-Ford")
	switch kind {
	case algorithms.EnumeratorYen:
		fmt.Fprintln(w, "K Shortest Path Algorithm : Yen algorithm")
	default:
		fmt.Fprintln(w, "K Shortest Path Algorithm : Eppstein algorithm")
	}
	fmt.Fprintln(w)
}

func printSolution(w io.Writer, title string, path *domain.Path) {
	fmt.Fprintf(w, "%s: %.2f\n", title, path.Cost)
	fmt.Fprintf(w, "    path %s\n", strings.Join(converter.ToNodeIDs(path), " -> "))
	fmt.Fprintf(w, "    f = %.3f, g = %.3f\n", path.Cost, path.Resource)
}

func printSummary(w io.Writer, res *algorithms.RCSPResult) {
	fmt.Fprintln(w)
	title := "*Best Solution"
	if res.Status == algorithms.StatusOptimal {
		title = "*Optimal Solution"
	}
	if res.Path != nil {
		printSolution(w, title, res.Path)
	}
	fmt.Fprintf(w, "    status %s, LB = %s, UB = %s, iterations %d, paths %d, %s\n",
		res.Status,
		bound(res.LowerBound),
		bound(res.UpperBound),
		res.Iterations,
		res.PathsEnumerated,
		res.SolveTime.Round(time.Millisecond),
	)
}

// printHistory lists journal entries, one solve per line.
func printHistory(w io.Writer, entries []*audit.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no solves recorded")
		return
	}

	fmt.Fprintf(w, "%-19s %-8s %-9s %-15s %9s %5s %8s\n", "Time", "Run", "Enum", "Status", "Cost", "Iter", "Duration")
	fmt.Fprintln(w, strings.Repeat("-", 79))
	for _, e := range entries {
		run := e.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		cost := "-"
		if e.TotalCost != nil {
			cost = fmt.Sprintf("%.3f", *e.TotalCost)
		}
		status := e.Status
		if e.CacheHit {
			status += " (cache)"
		}
		fmt.Fprintf(w, "%-19s %-8s %-9s %-15s %9s %5d %8s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run, e.Enumerator, status, cost, e.Iterations,
			(time.Duration(e.DurationMs) * time.Millisecond).String(),
		)
	}
}

func bound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return fmt.Sprintf("%.3f", v)
	}
}

func percent(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "inf"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
