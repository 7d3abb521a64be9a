package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	domainconfig "github.com/felixgeelhaar/decpomdp-go/domain/config"
	domaininspector "github.com/felixgeelhaar/decpomdp-go/domain/inspector"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/config"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/inspector"
)

// inspectOptions holds options shared by the inspect subcommands.
type inspectOptions struct {
	configPath string
	store      string
	storePath  string
	format     string
}

func (a *App) newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Render stored runs and the solver statechart",
		Long: `Render stored snapshots as JSON, Graphviz DOT or Mermaid.

The snapshot store comes from the configuration file or from --store and
--store-path.

Examples:
  # Controllers of a run's last iteration as DOT
  decpomdp inspect run 5f0c... --store sqlite --store-path runs.db -f dot | dot -Tsvg

  # Value per iteration
  decpomdp inspect history 5f0c... -c tiger.yaml

  # List stored snapshots
  decpomdp inspect list --store filesystem --store-path ./snapshots

  # The phase statechart as Mermaid
  decpomdp inspect phases -f mermaid`,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Configuration file naming the snapshot store")
	pf.StringVar(&opts.store, "store", "", "Snapshot store (badger, sqlite, filesystem, postgres)")
	pf.StringVar(&opts.storePath, "store-path", "", "Database file or directory, or postgres connection string, for the snapshot store")
	pf.StringVarP(&opts.format, "format", "f", string(domaininspector.FormatJSON), "Output format (json, dot, mermaid)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "snapshot <id>",
			Short: "Render one snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withInspector(cmd.Context(), opts, func(ctx context.Context, i *inspector.DefaultInspector) ([]byte, error) {
					return i.ExportSnapshot(ctx, args[0], domaininspector.ExportFormat(opts.format))
				})
			},
		},
		&cobra.Command{
			Use:   "run <run-id>",
			Short: "Render the last snapshot of a run",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withInspector(cmd.Context(), opts, func(ctx context.Context, i *inspector.DefaultInspector) ([]byte, error) {
					return i.ExportLatest(ctx, args[0], domaininspector.ExportFormat(opts.format))
				})
			},
		},
		&cobra.Command{
			Use:   "history <run-id>",
			Short: "Render the value of a run per iteration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withInspector(cmd.Context(), opts, func(ctx context.Context, i *inspector.DefaultInspector) ([]byte, error) {
					return i.ExportHistory(ctx, args[0], domaininspector.ExportFormat(opts.format))
				})
			},
		},
		a.newInspectListCmd(opts),
		&cobra.Command{
			Use:   "phases",
			Short: "Render the solver phase statechart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := inspector.NewDefaultInspector(nil, inspector.NewStateMachineExporter()).
					ExportStateMachine(cmd.Context(), domaininspector.ExportFormat(opts.format))
				if err != nil {
					return err
				}
				_, err = a.stdout.Write(out)
				return err
			},
		},
	)

	return cmd
}

func (a *App) newInspectListCmd(opts *inspectOptions) *cobra.Command {
	var filter run.ListFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			store, closeStore, err := openStore(opts)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closeStore()) }()

			snaps, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, s := range snaps {
				_, _ = fmt.Fprintf(a.stdout, "%s\t%s\t%s\titeration=%d\tvalue=%.6g\tnodes=%d\t%s\n",
					s.ID, s.RunID, s.Problem, s.Iteration, s.Value, s.TotalNodes(), s.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only snapshots of this run")
	cmd.Flags().StringVar(&filter.Problem, "problem", "", "Only snapshots of this problem")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum snapshots to list")
	cmd.Flags().BoolVar(&filter.Descending, "desc", false, "Newest first")
	return cmd
}

func (a *App) withInspector(ctx context.Context, opts *inspectOptions, fn func(context.Context, *inspector.DefaultInspector) ([]byte, error)) (err error) {
	store, closeStore, err := openStore(opts)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeStore()) }()

	out, err := fn(ctx, inspector.NewStoreInspector(store))
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(out)
	return err
}

// openStore opens the persistent snapshot store named by flags or
// configuration.
func openStore(opts *inspectOptions) (run.Store, func() error, error) {
	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return nil, nil, err
	}
	if opts.store != "" {
		cfg.Storage.Backend = opts.store
	}
	if opts.storePath != "" {
		cfg.Storage.Path = opts.storePath
	}

	switch cfg.Storage.Backend {
	case "", domainconfig.StorageNone, domainconfig.StorageMemory:
		return nil, nil, fmt.Errorf("inspect needs a persistent snapshot store, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path == "" {
		return nil, nil, fmt.Errorf("%s store needs --store-path", cfg.Storage.Backend)
	}

	store, closer, err := config.OpenStore(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	if closer == nil {
		return store, func() error { return nil }, nil
	}
	return store, closer.Close, nil
}
