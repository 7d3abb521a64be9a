package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/decpomdp-go/application"
	domainconfig "github.com/felixgeelhaar/decpomdp-go/domain/config"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/config"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/logging"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/observability"
)

// solveOptions holds options for the solve command.
type solveOptions struct {
	configPath string
	strictEnv  bool
	iterations int
	threshold  float64
	beliefs    int
	horizon    int
	seed       uint64
	noRetain   bool
	store      string
	storePath  string
	logLevel   string
	trace      bool
	timeout    time.Duration
	jsonOutput bool
}

// solveOutput is the machine-readable result of a run.
type solveOutput struct {
	RunID      string         `json:"run_id"`
	Problem    string         `json:"problem"`
	Status     string         `json:"status"`
	Value      float64        `json:"value"`
	Iterations int            `json:"iterations"`
	History    []float64      `json:"history"`
	Nodes      map[string]int `json:"nodes"`
	Snapshots  []string       `json:"snapshots,omitempty"`
	Duration   string         `json:"duration"`
	Error      string         `json:"error,omitempty"`
}

func (a *App) newSolveCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "Run policy iteration on a problem",
		Long: `Run bounded policy iteration on a built-in problem.

Settings come from the configuration file when one is given and from the
defaults otherwise; flags override both.

Examples:
  # Solve Dec-Tiger with defaults
  decpomdp solve dectiger

  # Solve from a config file, keeping snapshots in SQLite
  decpomdp solve -c tiger.yaml --store sqlite --store-path runs.db

  # Ten fixed iterations, JSON result
  decpomdp solve broadcast --iterations 10 --threshold 0 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath, opts.strictEnv)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Problem = args[0]
			}
			opts.apply(cmd, cfg)

			if errs := domainconfig.NewValidator().Validate(cfg); errs.HasErrors() {
				return fmt.Errorf("%w: %w", domainconfig.ErrValidationFailed, errs)
			}
			return a.solve(cmd.Context(), cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	f.BoolVar(&opts.strictEnv, "strict-env", false, "Fail on unset environment variables in the config")
	f.IntVarP(&opts.iterations, "iterations", "n", 0, "Maximum iterations")
	f.Float64Var(&opts.threshold, "threshold", 0, "Improvement threshold (0 runs every iteration)")
	f.IntVar(&opts.beliefs, "beliefs", 0, "Belief points to sample")
	f.IntVar(&opts.horizon, "horizon", 0, "Rollout horizon")
	f.Uint64Var(&opts.seed, "seed", 0, "Rollout seed")
	f.BoolVar(&opts.noRetain, "no-retain", false, "Skip the dominating-nodes retainer")
	f.StringVar(&opts.store, "store", "", "Snapshot store (none, memory, badger, sqlite, filesystem, postgres)")
	f.StringVar(&opts.storePath, "store-path", "", "Database file or directory, or postgres connection string, for the snapshot store")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	f.BoolVar(&opts.trace, "trace", false, "Write spans to stderr")
	f.DurationVar(&opts.timeout, "timeout", 0, "Abort the run after this long")
	f.BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")

	return cmd
}

// apply copies explicitly set flags over the configuration.
func (o *solveOptions) apply(cmd *cobra.Command, cfg *domainconfig.SolverConfig) {
	changed := cmd.Flags().Changed
	if changed("iterations") {
		cfg.Solver.MaxIterations = o.iterations
	}
	if changed("threshold") {
		cfg.Solver.ImprovementThreshold = o.threshold
	}
	if changed("beliefs") {
		cfg.Beliefs.Count = o.beliefs
	}
	if changed("horizon") {
		cfg.Beliefs.Horizon = o.horizon
	}
	if changed("seed") {
		cfg.Beliefs.Seed = o.seed
	}
	if o.noRetain {
		retain := false
		cfg.Solver.Retain = &retain
	}
	if changed("store") {
		cfg.Storage.Backend = o.store
	}
	if changed("store-path") {
		cfg.Storage.Path = o.storePath
	}
	if changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if o.trace {
		cfg.Observability.Tracing.Enabled = true
		cfg.Observability.Tracing.Exporter = string(observability.ExporterStdout)
	}
}

func (a *App) solve(ctx context.Context, cfg *domainconfig.SolverConfig, opts *solveOptions) (err error) {
	built, err := config.NewBuilder(cfg).Build()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, built.Close())
	}()

	built.Logging.Output = a.stderr
	logging.Init(built.Logging)

	engineOpts := built.Engine
	if len(built.Observability) > 0 {
		provider, err := observability.New(append(built.Observability,
			observability.WithServiceName("decpomdp"),
			observability.WithOutput(a.stderr),
		)...)
		if err != nil {
			return fmt.Errorf("failed to start observability: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logging.Warn().Add(logging.ErrorField(err)).Msg("observability shutdown failed")
			}
		}()
		engineOpts = append(engineOpts,
			application.WithTracer(provider.Tracer()),
			application.WithMeter(provider.Meter()),
		)
	}

	engine, err := application.NewEngineWithOptions(engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	result, runErr := engine.Run(ctx, built.Problem)
	if result == nil {
		return fmt.Errorf("solve failed: %w", runErr)
	}

	out := solveOutput{
		RunID:      result.RunID,
		Problem:    result.Problem,
		Status:     string(result.Status),
		Value:      result.Value,
		Iterations: result.Iterations,
		History:    result.History,
		Nodes:      make(map[string]int, len(result.Controllers)),
		Snapshots:  result.SnapshotIDs,
		Duration:   result.Duration.String(),
	}
	for _, ac := range result.Controllers {
		out.Nodes[ac.Agent] = ac.Controller.Len()
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		a.printSolveText(out)
	}

	if runErr != nil {
		return fmt.Errorf("solve failed: %w", runErr)
	}
	return nil
}

func (a *App) printSolveText(out solveOutput) {
	_, _ = fmt.Fprintf(a.stdout, "Run %s\n", out.RunID)
	_, _ = fmt.Fprintf(a.stdout, "  Problem: %s\n", out.Problem)
	_, _ = fmt.Fprintf(a.stdout, "  Status: %s\n", out.Status)
	_, _ = fmt.Fprintf(a.stdout, "  Value: %.6g\n", out.Value)
	_, _ = fmt.Fprintf(a.stdout, "  Iterations: %d\n", out.Iterations)
	_, _ = fmt.Fprintf(a.stdout, "  Duration: %s\n", out.Duration)
	_, _ = fmt.Fprintf(a.stdout, "  History:")
	for _, v := range out.History {
		_, _ = fmt.Fprintf(a.stdout, " %.6g", v)
	}
	_, _ = fmt.Fprintln(a.stdout)
	for _, agent := range slices.Sorted(maps.Keys(out.Nodes)) {
		_, _ = fmt.Fprintf(a.stdout, "  Controller %s: %d nodes\n", agent, out.Nodes[agent])
	}
	if len(out.Snapshots) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Snapshots: %d (latest %s)\n", len(out.Snapshots), out.Snapshots[len(out.Snapshots)-1])
	}
	if out.Error != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Error: %s\n", out.Error)
	}
}

// loadConfig loads path, or returns the defaults when path is empty.
func loadConfig(path string, strictEnv bool) (*domainconfig.SolverConfig, error) {
	if path == "" {
		return domainconfig.Default(), nil
	}
	loader := config.NewLoaderWithOptions(
		config.WithStrictEnv(strictEnv),
		config.WithValidation(false),
	)
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
