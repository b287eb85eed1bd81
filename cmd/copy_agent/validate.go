package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/campaign-copy/internal/schemas"
)

var validateSchemaPath string

var validateCmd = &cobra.Command{
	Use:   "validate <export.json>",
	Short: "Validate an exported JSON document",
	Long: `Validates a JSON export against the built-in export schema, or against the
JSON Schema file given with --schema.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if validateSchemaPath != "" {
			err = schemas.ValidateJSON(validateSchemaPath, args[0])
		} else {
			var data []byte
			data, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			err = schemas.Validate(schemas.Export, string(data))
		}
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", args[0])
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "Path to a JSON Schema file (defaults to the export schema)")
	rootCmd.AddCommand(validateCmd)
}
