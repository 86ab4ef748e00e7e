package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rcsp/pkg/apperror"
	"rcsp/pkg/audit"
	"rcsp/pkg/config"
	"rcsp/pkg/logger"
	rcspsvc "rcsp/services/rcsp-svc"
	"rcsp/services/rcsp-svc/internal/algorithms"
	"rcsp/services/rcsp-svc/internal/loader"
	"rcsp/services/rcsp-svc/internal/report"
	"rcsp/services/rcsp-svc/internal/service"
)

// =============================================================================
// Command Tree
// =============================================================================

type solveFlags struct {
	printPath bool
	yen       bool
	report    string
	quiet     bool
}

type historyFlags struct {
	limit      int
	status     string
	enumerator string
	since      time.Duration
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "rcsp",
		Short:         "Resource constrained shortest path solver",
		Long:          "rcsp finds the cheapest source-target path whose resource stays within a budget,\nusing the Handler-Zang dual algorithm with k-shortest-path gap closing.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: search standard locations)")

	root.AddCommand(
		newSolveCmd(&configPath),
		newGenerateCmd(),
		newEnumeratorsCmd(&configPath),
		newHistoryCmd(&configPath),
	)
	return root
}

func newSolveCmd(configPath *string) *cobra.Command {
	var flags solveFlags

	cmd := &cobra.Command{
		Use:   "solve <graph.csv> <source> <target> <budget>",
		Short: "Solve an RCSP instance read from an edge-list file",
		Example: "  rcsp solve graph.csv 0 1499 20 --print-path\n" +
			"  rcsp solve graph.csv A D 3 --yen --report trace.xlsx",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, *configPath, flags, args)
		},
	}
	cmd.Flags().BoolVar(&flags.printPath, "print-path", false, "print every incumbent path")
	cmd.Flags().BoolVar(&flags.yen, "yen", false, "close the gap with Yen's algorithm instead of Eppstein's")
	cmd.Flags().StringVar(&flags.report, "report", "", "write the bound progression to a .xlsx, .csv or .json file")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "print only the final solution")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	opts := loader.DefaultGenerateOptions()

	cmd := &cobra.Command{
		Use:   "generate <out.csv>",
		Short: "Write a random edge-list instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], opts)
		},
	}
	cmd.Flags().IntVar(&opts.Nodes, "nodes", opts.Nodes, "number of vertices")
	cmd.Flags().IntVar(&opts.Edges, "edges", opts.Edges, "number of edges")
	cmd.Flags().Float64Var(&opts.MaxCost, "max-cost", opts.MaxCost, "upper bound of edge cost")
	cmd.Flags().Float64Var(&opts.MaxResource, "max-resource", opts.MaxResource, "upper bound of edge resource")
	cmd.Flags().Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	return cmd
}

func newEnumeratorsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "enumerators",
		Short: "List the k-shortest-path enumerators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, info := range service.NewRCSPService(cfg.App.Version, cfg.Solver, nil).Enumerators() {
				marker := " "
				if string(info.Kind) == cfg.Solver.Enumerator {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-9s %s\n", marker, info.Kind, info.Description)
			}
			return nil
		},
	}
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var flags historyFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent solves from the audit journal",
		Long:  "history reads the journal at audit.file_path, newest first.\nSolves are journaled when audit.enabled is true.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, *configPath, flags)
		},
	}
	cmd.Flags().IntVarP(&flags.limit, "limit", "n", 20, "maximum number of entries")
	cmd.Flags().StringVar(&flags.status, "status", "", "only entries with this status (optimal, infeasible, ...)")
	cmd.Flags().StringVar(&flags.enumerator, "enumerator", "", "only entries solved with this enumerator")
	cmd.Flags().DurationVar(&flags.since, "since", 0, "only entries newer than this, e.g. 24h")
	return cmd
}

// =============================================================================
// Handlers
// =============================================================================

func runSolve(cmd *cobra.Command, configPath string, flags solveFlags, args []string) error {
	budget, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidBudget, "budget must be a number").WithField("budget")
	}

	cfg, cfgFile, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flags.yen {
		cfg.Solver.Enumerator = string(algorithms.EnumeratorYen)
	}
	if flags.printPath {
		cfg.Solver.PrintPath = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := rcspsvc.NewRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Log.Warn("shutdown failed", "error", err)
		}
	}()
	if cfgFile != "" {
		logger.Log.Debug("configuration loaded", "file", cfgFile)
	}

	g, stats, err := loader.LoadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	kind := algorithms.EnumeratorKind(cfg.Solver.Enumerator)
	printer := newProgressPrinter(out, cfg.Solver.PrintPath)

	if !flags.quiet {
		printBanner(out, kind)
		fmt.Fprintf(out, "the number of nodes: %d\n", stats.Nodes)
		fmt.Fprintf(out, "the number of edges: %d\n\n", stats.Edges)
	}

	req := &service.SolveRequest{
		Graph:     g,
		GraphFile: args[0],
		Source:    args[1],
		Target:    args[2],
		Budget:    budget,
	}
	if !flags.quiet {
		req.Progress = printer.Event
	}

	resp, solveErr := rt.Service.Solve(ctx, req)

	if resp != nil && flags.report != "" {
		written, err := writeReport(ctx, cfg, flags.report, resp.Report)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nreport written to %s\n", written)
	}

	return renderOutcome(cmd, resp, solveErr)
}

// renderOutcome prints the final solution. Proven infeasibility and
// unreachable targets are answers, not failures.
func renderOutcome(cmd *cobra.Command, resp *service.SolveResponse, solveErr error) error {
	out := cmd.OutOrStdout()

	switch {
	case apperror.Is(solveErr, apperror.CodeInfeasible):
		fmt.Fprintln(out, "\nno path satisfies the resource budget")
		if minRes, ok := apperror.MinResource(solveErr); ok {
			fmt.Fprintf(out, "the minimum resource of any path is %.3f\n", minRes)
		}
		return nil
	case apperror.Is(solveErr, apperror.CodeNoPath):
		fmt.Fprintf(out, "\n%v\n", solveErr)
		return nil
	}

	if resp != nil && resp.Result != nil {
		if resp.CacheHit {
			fmt.Fprintln(out, "\nresult served from cache")
		}
		printSummary(out, resp.Result)
	}
	return solveErr
}

func runGenerate(cmd *cobra.Command, path string, opts loader.GenerateOptions) error {
	g, err := loader.Generate(opts)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := loader.Write(f, g); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d nodes and %d edges to %s\n", g.NodeCount(), g.EdgeCount(), path)
	return nil
}

func runHistory(cmd *cobra.Command, configPath string, flags historyFlags) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flags.limit < 0 {
		return apperror.New(apperror.CodeInvalidArgument, "limit must not be negative").WithField("limit")
	}

	filter := &audit.QueryFilter{
		Status:     flags.status,
		Enumerator: flags.enumerator,
		Limit:      flags.limit,
	}
	if flags.since > 0 {
		start := time.Now().Add(-flags.since)
		filter.StartTime = &start
	}

	entries, err := audit.ReadFile(cmd.Context(), cfg.Audit.FilePath, filter)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInternal, "failed to read audit journal").
			WithDetails("path", cfg.Audit.FilePath)
	}

	printHistory(cmd.OutOrStdout(), entries)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// loadConfig returns the configuration and the file it was read from, empty
// when only defaults and environment were used.
func loadConfig(path string) (*config.Config, string, error) {
	var opts []config.LoaderOption
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, "", apperror.Wrap(err, apperror.CodeInvalidArgument, "config file not found").
				WithDetails("path", path)
		}
		opts = append(opts, config.WithConfigPaths(path))
	}

	l := config.NewLoader(opts...)
	cfg, err := l.Load()
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.CodeInvalidArgument, "invalid configuration")
	}
	return cfg, l.UsedFile(), nil
}

// writeReport resolves a bare file name against report.output_dir and
// returns the path written.
func writeReport(ctx context.Context, cfg *config.Config, path string, data *report.ReportData) (string, error) {
	format := cfg.Report.Format
	if f, ok := report.FormatFromPath(path); ok {
		format = string(f)
	}

	gen, err := report.NewGenerator(format)
	if err != nil {
		return "", err
	}
	if xlsx, ok := gen.(*report.ExcelGenerator); ok && cfg.Report.SheetName != "" {
		xlsx.ProgressSheet = cfg.Report.SheetName
	}

	if !filepath.IsAbs(path) && filepath.Dir(path) == "." && cfg.Report.OutputDir != "" {
		path = filepath.Join(cfg.Report.OutputDir, path)
	}
	return path, report.WriteFile(ctx, gen, data, path)
}
