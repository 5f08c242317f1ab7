package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"localconfig.dev/cli/internal/application/ports"
	"localconfig.dev/cli/internal/core/settings"
	"localconfig.dev/cli/internal/infrastructure/schema"
)

// NewSchemaCommand creates the schema command
func NewSchemaCommand(container *CLIContainer) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect settings schemas",
	}

	schemaCmd.AddCommand(newSchemaValidateCommand(container))
	schemaCmd.AddCommand(newSchemaDefaultCommand())

	return schemaCmd
}

func newSchemaValidateCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a schema document",
		Long: `Parse a schema and report the first error. Without a file the configured
schema source is validated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source ports.SchemaSource = container.Schema
			if len(args) == 1 {
				source = schema.NewFileSource(args[0])
			}

			raw, err := source.FetchSchema(cmd.Context())
			if err != nil {
				return err
			}

			var opts []settings.ParseOption
			if container.Config != nil && container.Config.DeriveIdentifiers {
				opts = append(opts, settings.WithDerivedIdentifiers())
			}

			parsed, err := settings.Parse(raw, opts...)
			if err != nil {
				return err
			}

			count := 0
			for _, g := range parsed.Groups {
				count += len(g.Settings)
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ %s: %d groups, %d settings", source.Describe(), len(parsed.Groups), count)))
			return nil
		},
	}
}

func newSchemaDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the built-in schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(schema.DefaultSchema())
			return err
		},
	}
}
