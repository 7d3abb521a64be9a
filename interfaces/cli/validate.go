package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	domainconfig "github.com/felixgeelhaar/decpomdp-go/domain/config"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
	watch      bool
}

func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a solver configuration file.

This command checks:
  - File format (YAML or JSON)
  - Field constraints and allowed values
  - That the problem is a built-in one
  - That the snapshot store opens (in strict mode)
  - Environment variable references (in strict mode)

With --watch the file is validated again on every save until interrupted.

Examples:
  decpomdp validate -c tiger.yaml
  decpomdp validate -c tiger.yaml --strict
  decpomdp validate -c tiger.yaml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch {
				return a.watchConfig(cmd.Context(), opts)
			}
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on missing env vars and open the snapshot store")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Validate again whenever the file changes")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// watchConfig validates once, then again after each change, reporting
// failures instead of exiting.
func (a *App) watchConfig(ctx context.Context, opts *validateOptions) error {
	report := func() {
		if err := a.validateConfig(opts); err != nil {
			_, _ = fmt.Fprintf(a.stderr, "✗ %v\n", err)
		}
	}
	report()

	loader := config.NewLoaderWithOptions(config.WithValidation(false))
	// validateConfig reloads with the full options, so the watch reload only
	// signals the change.
	return loader.Watch(ctx, opts.configPath, 0, func(*domainconfig.SolverConfig, error) {
		_, _ = fmt.Fprintf(a.stdout, "\n--- %s changed\n", opts.configPath)
		report()
	})
}

func (a *App) validateConfig(opts *validateOptions) (err error) {
	loader := config.NewLoaderWithOptions(config.WithStrictEnv(opts.strict))
	cfg, err := loader.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if !opts.strict {
		// Resolve the problem without touching storage.
		cfg.Storage.Backend = ""
	}
	built, err := config.NewBuilder(cfg).Build()
	if err != nil {
		return fmt.Errorf("configuration build failed: %w", err)
	}
	defer func() {
		err = errors.Join(err, built.Close())
	}()

	_, _ = fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	if cfg.Name != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	}
	_, _ = fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)
	if cfg.Description != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Description: %s\n", cfg.Description)
	}

	p := built.Problem
	_, _ = fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(a.stdout, "  Problem: %s (%d agents, %d states)\n", p.Name(), p.NumAgents(), len(p.States()))
	_, _ = fmt.Fprintf(a.stdout, "  Max iterations: %d\n", cfg.Solver.MaxIterations)
	if cfg.Solver.ImprovementThreshold > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Convergence: improvement below %g\n", cfg.Solver.ImprovementThreshold)
	} else {
		_, _ = fmt.Fprintf(a.stdout, "  Convergence: fixed iterations\n")
	}
	_, _ = fmt.Fprintf(a.stdout, "  Beliefs: %d points, horizon %d, %s rollouts\n",
		cfg.Beliefs.Count, cfg.Beliefs.Horizon, cfg.Beliefs.Policy)
	_, _ = fmt.Fprintf(a.stdout, "  Retain: %t\n", cfg.Solver.RetainEnabled())
	if cfg.Storage.Path != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Storage: %s (%s)\n", cfg.Storage.Backend, cfg.Storage.Path)
	} else {
		_, _ = fmt.Fprintf(a.stdout, "  Storage: %s\n", cfg.Storage.Backend)
	}
	return nil
}
