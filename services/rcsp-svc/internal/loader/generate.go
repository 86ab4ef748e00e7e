package loader

import (
	"math/rand"
	"strconv"

	"rcsp/pkg/apperror"
	"rcsp/pkg/domain"
)

// GenerateOptions controls random instance generation.
type GenerateOptions struct {
	Nodes       int
	Edges       int
	MaxCost     float64
	MaxResource float64
	Seed        int64
}

// DefaultGenerateOptions returns a 1500-vertex, 100000-edge instance with
// weights uniform in [0, 10).
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Nodes:       1500,
		Edges:       100000,
		MaxCost:     10,
		MaxResource: 10,
		Seed:        1,
	}
}

// Generate builds a random simple digraph: no self-loops and at most one
// edge per ordered pair. Vertices are named "0".."n-1".
func Generate(opts GenerateOptions) (*domain.MultiGraph, error) {
	if opts.Nodes < 2 {
		return nil, apperror.New(apperror.CodeInvalidArgument, "need at least two vertices").WithField("nodes")
	}
	if maxEdges := opts.Nodes * (opts.Nodes - 1); opts.Edges < 0 || opts.Edges > maxEdges {
		return nil, apperror.Newf(apperror.CodeInvalidArgument, "edge count must be in [0, %d]", maxEdges).
			WithField("edges")
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	g := domain.NewMultiGraph()
	for i := 0; i < opts.Nodes; i++ {
		g.AddNode(strconv.Itoa(i))
	}

	seen := make(map[[2]int]bool, opts.Edges)
	for len(seen) < opts.Edges {
		u, v := rng.Intn(opts.Nodes), rng.Intn(opts.Nodes)
		if u == v || seen[[2]int{u, v}] {
			continue
		}
		seen[[2]int{u, v}] = true
		g.AddEdge(strconv.Itoa(u), strconv.Itoa(v), opts.MaxCost*rng.Float64(), opts.MaxResource*rng.Float64())
	}

	return g, nil
}
