package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/decpomdp-go/infrastructure/config"
)

func (a *App) newSchemaCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export the configuration JSON schema",
		Long: `Export the JSON Schema (draft 2020-12) for solver configuration files.

Examples:
  # Print to stdout
  decpomdp schema

  # Write to a file for editor validation
  decpomdp schema -o solver.schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaJSON, err := config.SchemaJSON()
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}
			if outputPath == "" {
				_, _ = fmt.Fprintln(a.stdout, schemaJSON)
				return nil
			}
			if err := os.WriteFile(outputPath, []byte(schemaJSON), 0600); err != nil {
				return fmt.Errorf("failed to write schema file: %w", err)
			}
			_, _ = fmt.Fprintf(a.stdout, "Schema exported to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}
