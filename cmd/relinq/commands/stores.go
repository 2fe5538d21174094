package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/systmms/relinq/internal/config"
)

func NewStoresCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List configured secret stores",
		Long: `List the secret stores defined in relinq.yaml with their backend type.

Examples:
  relinq stores`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			if len(cfg.Definition.Stores) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stores configured.")
				return nil
			}

			for _, name := range storeNames(cfg.Definition.Stores) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, cfg.Definition.Stores[name].Type)
			}
			return nil
		},
	}

	return cmd
}

// storeNames returns a sorted list of store names
func storeNames(stores map[string]config.StoreConfig) []string {
	names := make([]string, 0, len(stores))
	for name := range stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
