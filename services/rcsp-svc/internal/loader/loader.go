// Package loader reads and writes edge-list files for the RCSP solver.
//
// An edge-list file is CSV with one edge per row:
//
//	tail,head,cost,resource
//
// Rows with any other number of fields are skipped, so files that carry
// extra sections (node coordinates, headers without commas) load as-is.
// Repeated tail/head pairs become parallel edges keyed 0, 1, 2... in file order.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"rcsp/pkg/apperror"
	"rcsp/pkg/domain"
	"rcsp/pkg/logger"
)

const (
	edgeFields = 4

	// maxProblems caps how many bad rows one load reports.
	maxProblems = 20
)

// Stats describes what a load consumed.
type Stats struct {
	Rows          int
	Edges         int
	Skipped       int
	Nodes         int
	ParallelPairs int
}

// LoadFile opens path and reads an edge list from it.
func LoadFile(path string) (*domain.MultiGraph, *Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "cannot open edge file").
			WithDetails("path", path)
	}
	defer f.Close()

	g, stats, err := Read(f)
	if err != nil {
		return nil, nil, err
	}

	logger.Log.Info("edge file loaded",
		"path", path,
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"skipped_rows", stats.Skipped,
		"parallel_pairs", stats.ParallelPairs,
	)
	return g, stats, nil
}

// Read parses an edge list. Malformed rows fail the whole load with
// INVALID_GRAPH; every bad row up to maxProblems is reported, each naming its
// line. A CSV syntax error stops reading at once.
func Read(r io.Reader) (*domain.MultiGraph, *Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	cr.Comment = '#'

	g := domain.NewMultiGraph()
	stats := &Stats{}
	parallel := make(map[[2]string]bool)
	problems := apperror.NewValidationErrors()

	for len(problems.Errors) < maxProblems {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			problems.Add(apperror.Wrap(err, apperror.CodeInvalidGraph, "malformed CSV"))
			break
		}
		stats.Rows++

		if len(record) != edgeFields {
			stats.Skipped++
			continue
		}

		line, _ := cr.FieldPos(0)
		tail, head := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		valid := true
		if tail == "" || head == "" {
			problems.Add(apperror.Newf(apperror.CodeInvalidGraph, "line %d: empty vertex id", line))
			valid = false
		}

		cost, costErr := parseWeight(record[2], "cost", line)
		if costErr != nil {
			problems.Add(costErr)
			valid = false
		}
		resource, resErr := parseWeight(record[3], "resource", line)
		if resErr != nil {
			problems.Add(resErr)
			valid = false
		}
		if !valid {
			continue
		}

		e := g.AddEdge(tail, head, cost, resource)
		if e.Key > 0 {
			parallel[[2]string{tail, head}] = true
		}
		stats.Edges++
	}

	if err := problems.Err(); err != nil {
		return nil, nil, err
	}

	stats.Nodes = g.NodeCount()
	stats.ParallelPairs = len(parallel)
	return g, stats, nil
}

func parseWeight(raw, field string, line int) (float64, *apperror.Error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeInvalidGraph, fmt.Sprintf("line %d: invalid %s %q", line, field, raw)).
			WithField(field)
	}
	if math.IsNaN(v) {
		return 0, apperror.Newf(apperror.CodeInvalidGraph, "line %d: %s is NaN", line, field).WithField(field)
	}
	if math.IsInf(v, 0) {
		return 0, apperror.Newf(apperror.CodeInvalidGraph, "line %d: %s is infinite", line, field).WithField(field)
	}
	return v, nil
}

// Write emits g as an edge list in deterministic (tail, head, key) order.
func Write(w io.Writer, g *domain.MultiGraph) error {
	cw := csv.NewWriter(w)
	for _, e := range g.Edges() {
		record := []string{
			e.From,
			e.To,
			strconv.FormatFloat(e.Cost, 'g', -1, 64),
			strconv.FormatFloat(e.Resource, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
