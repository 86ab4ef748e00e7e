package algorithms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rcsp/pkg/apperror"
	"rcsp/pkg/domain"
)

// =============================================================================
// K Shortest Path Enumerators
// =============================================================================

// ErrExhausted is returned by PathEnumerator.Next when no paths remain.
// It is the normal end of an enumeration, not a failure.
var ErrExhausted = errors.New("path enumeration exhausted")

// PathEnumerator yields source-target paths in non-decreasing weight order.
// An enumerator cannot be rewound; build a new one to start over.
type PathEnumerator interface {
	// Next returns the next path or ErrExhausted.
	Next(ctx context.Context) (*domain.Path, error)

	// Count returns the number of paths returned so far.
	Count() int
}

// EnumeratorKind selects the k-shortest-path implementation.
type EnumeratorKind string

const (
	// EnumeratorEppstein walks Eppstein's path graph. Paths may repeat vertices.
	EnumeratorEppstein EnumeratorKind = "eppstein"

	// EnumeratorYen runs Yen's spur-path loop. Paths are loopless.
	EnumeratorYen EnumeratorKind = "yen"
)

// ParseEnumeratorKind converts a configuration value into an EnumeratorKind.
func ParseEnumeratorKind(s string) (EnumeratorKind, error) {
	switch EnumeratorKind(strings.ToLower(strings.TrimSpace(s))) {
	case EnumeratorEppstein, "":
		return EnumeratorEppstein, nil
	case EnumeratorYen:
		return EnumeratorYen, nil
	default:
		return "", apperror.Newf(apperror.CodeInvalidAlgorithm, "unknown enumerator %q", s)
	}
}

// NewEnumerator builds an enumerator of the requested kind.
//
// A warning-severity error (negative cycle) may be returned next to a usable
// enumerator; callers should check apperror.IsWarning before discarding it.
func NewEnumerator(ctx context.Context, kind EnumeratorKind, g *domain.MultiGraph, source, target string, weight domain.WeightFunc) (PathEnumerator, error) {
	switch kind {
	case EnumeratorEppstein, "":
		e, err := NewEppstein(ctx, g, source, target, weight)
		if e == nil {
			return nil, err
		}
		return e, err
	case EnumeratorYen:
		return NewYen(g, source, target, weight), nil
	default:
		return nil, apperror.New(apperror.CodeInvalidAlgorithm, fmt.Sprintf("unknown enumerator %q", kind))
	}
}
