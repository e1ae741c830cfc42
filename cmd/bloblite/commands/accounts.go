package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bloblite/bloblite/internal/cli/output"
	"github.com/bloblite/bloblite/pkg/config"
)

var accountsShowKeys bool

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the storage accounts the server will serve",
	Long: `List the storage accounts the server serves, including the well-known
development account and any accounts configured in the config file.

Keys are redacted by default; use --show-keys to print them.

Examples:
  # List account names
  bloblite accounts

  # Include the shared keys (e.g. to build connection strings)
  bloblite accounts --show-keys`,
	RunE: runAccounts,
}

func init() {
	accountsCmd.Flags().BoolVar(&accountsShowKeys, "show-keys", false, "Print the shared keys")
}

func runAccounts(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	keys := cfg.Keychain()
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)

	table := output.NewTableData("NAME", "SOURCE", "KEY")
	for _, name := range names {
		source := "config"
		if name == config.DefaultAccountName {
			source = "built-in"
			for _, a := range cfg.Accounts {
				if a.Name == name {
					source = "config"
				}
			}
		}

		key := "<redacted>"
		if accountsShowKeys {
			key, _ = keys.Key(name)
		}
		table.AddRow(name, source, key)
	}

	if err := output.PrintTable(os.Stdout, table); err != nil {
		return err
	}

	fmt.Printf("\n%d account(s)\n", len(names))
	return nil
}
