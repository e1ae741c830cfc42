package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bloblite/bloblite/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample BlobLite configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/bloblite/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  bloblite init

  # Initialize with custom path
  bloblite init --config /etc/bloblite/config.yaml

  # Force overwrite existing config
  bloblite init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		// Use custom path
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		// Use default path
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: bloblite start")
	fmt.Printf("  3. Or specify custom config: bloblite start --config %s\n", configPath)
	fmt.Println("\nThe well-known development account is always available:")
	fmt.Printf("  account: %s\n", config.DefaultAccountName)
	fmt.Println("  add more accounts under the 'accounts' section of the config file")

	return nil
}
