package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/bloblite/bloblite/pkg/config"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schema for IDE/validation",
	Long: `Generate a JSON schema describing the BlobLite configuration file.

The schema can be referenced from editors for completion and validation of
config.yaml files.

Examples:
  # Print schema to stdout
  bloblite config schema

  # Write schema to a file
  bloblite config schema --file bloblite.schema.json`,
	RunE: runConfigSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "file", "f", "", "Write schema to file instead of stdout")
	Cmd.AddCommand(schemaCmd)
}

func runConfigSchema(cmd *cobra.Command, args []string) error {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	schema := reflector.Reflect(&config.Config{})
	schema.Title = "BlobLite configuration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	data = append(data, '\n')

	if schemaOutput != "" {
		if err := os.WriteFile(schemaOutput, data, 0644); err != nil {
			return fmt.Errorf("failed to write schema file: %w", err)
		}
		fmt.Printf("Schema written to: %s\n", schemaOutput)
		return nil
	}

	_, err = os.Stdout.Write(data)
	return err
}
