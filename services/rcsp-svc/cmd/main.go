// Package main is the entry point for the rcsp command.
//
// rcsp solves the resource constrained shortest path problem: find the
// cheapest source-target path whose total resource does not exceed a budget.
//
// # Commands
//
//	rcsp solve <graph.csv> <source> <target> <budget> [--print-path] [--yen] [--report out.xlsx]
//	rcsp generate <out.csv> [--nodes N] [--edges M] [--seed S]
//	rcsp enumerators
//	rcsp history [--limit N] [--status S] [--since 24h]
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        CLI (cobra)                          │
//	│  progress table, final solution, report export              │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Service Layer                          │
//	│  (internal/service/solver.go - RCSPService)                 │
//	│  - Result caching (memory or Redis)                         │
//	│  - Metrics, tracing, run-scoped logging                     │
//	│  - Solve journal (pkg/audit, lumberjack-rotated JSON lines) │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Algorithm Layer                        │
//	│  (internal/algorithms/*.go)                                 │
//	│  - Handler-Zang dual solver                                 │
//	│  - Eppstein and Yen k shortest paths                        │
//	│  - Bellman-Ford, Dijkstra (shortest path trees)             │
//	├─────────────────────────────────────────────────────────────┤
//	│                 Loader / Converter / Report                 │
//	│  - CSV edge lists, path DTOs, XLSX/CSV/JSON traces          │
//	└─────────────────────────────────────────────────────────────┘
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: RCSP_)
//  2. Config file (--config, RCSP_CONFIG_PATH, config.yaml, config/config.yaml, /etc/rcsp/config.yaml)
//  3. Default values
//
// Key options (environment variable format):
//
//	RCSP_SOLVER_ENUMERATOR      - eppstein, yen (default: eppstein)
//	RCSP_SOLVER_MAX_ITERATIONS  - ascent iteration limit (default: 10000)
//	RCSP_SOLVER_MAX_PATHS       - gap closing path limit, 0 = unlimited
//	RCSP_SOLVER_TIMEOUT         - solve timeout (default: 5m)
//	RCSP_LOG_LEVEL              - debug logs every dual step
//	RCSP_CACHE_ENABLED          - cache optimal results (default: false)
//	RCSP_CACHE_DRIVER           - memory, redis
//	RCSP_METRICS_ENABLED        - serve Prometheus metrics during the solve
//	RCSP_TRACING_ENABLED        - export OpenTelemetry spans over OTLP gRPC
//	RCSP_REPORT_FORMAT          - xlsx, csv, json when --report has no known extension
//	RCSP_AUDIT_ENABLED          - journal every solve (default: false)
//	RCSP_AUDIT_FILE_PATH        - journal file read by "rcsp history"
//
// # Exit Status
//
//	0   the instance was answered: optimal, infeasible or unreachable
//	1   any other failure
//	2   invalid input: graph file, vertices, budget, flags or config
//	3   stopped early (iteration limit, timeout, degenerate multiplier);
//	    the best path found so far is still printed
//	70  internal invariant violation
package main

import (
	"fmt"
	"os"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rcsp/pkg/apperror"
)

const (
	exitFailure  = 1
	exitInput    = 2
	exitStopped  = 3
	exitSoftware = 70
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps err onto a process exit status through its gRPC code.
func exitCode(err error) int {
	if apperror.IsCritical(err) {
		return exitSoftware
	}
	switch status.Code(apperror.ToGRPC(err)) {
	case codes.OK:
		return 0
	case codes.InvalidArgument:
		return exitInput
	case codes.DeadlineExceeded, codes.OutOfRange:
		return exitStopped
	default:
		return exitFailure
	}
}
