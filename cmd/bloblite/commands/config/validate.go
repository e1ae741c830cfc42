package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bloblite/bloblite/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a BlobLite configuration file.

Loads the configuration (including environment variable overrides), applies
defaults and runs the full validation pass. Exits non-zero on any error.

Examples:
  # Validate the default config file
  bloblite config validate

  # Validate a specific file
  bloblite config validate --config /etc/bloblite/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("  endpoint: http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  storage:  %s\n", cfg.Storage.Backend)
	fmt.Printf("  accounts: %d\n", len(cfg.Keychain()))
	return nil
}
