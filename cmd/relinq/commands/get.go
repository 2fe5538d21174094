package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/relinq/internal/config"
	dserrors "github.com/systmms/relinq/internal/errors"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		storeName  string
		vaultURI   string
		secretName string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a single secret value",
		Long: `Retrieve and display a single secret value.

The store client is created for the duration of the command and released
through its guard before exit. By default, only the raw value is printed,
making it suitable for scripting.

Examples:
  # Get a single value
  relinq get --store vault --vault https://prod.vault.azure.net/ --name db-password

  # Get value with metadata in JSON format
  relinq get --store vault --vault https://prod.vault.azure.net/ --name db-password --json

  # Use in scripts
  export DB_PASSWORD=$(relinq get --store vault --vault https://prod.vault.azure.net/ --name db-password)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secretName == "" {
				return dserrors.UserError{
					Message:    "Secret name is required",
					Suggestion: "Use --name <secret-name> to specify which secret to get",
				}
			}

			if err := cfg.Load(); err != nil {
				return err
			}

			guard, err := guardedStore(cfg, storeName)
			if err != nil {
				return err
			}
			ctx := context.Background()
			defer releaseGuard(ctx, cfg, guard)

			handle, err := guard.Access(ctx)
			if err != nil {
				return err
			}
			defer handle.Close()

			bundle, err := handle.Resource().GetSecret(ctx, vaultURI, secretName)
			if err != nil {
				return err
			}

			if jsonOutput {
				output := map[string]interface{}{
					"store":   storeName,
					"name":    secretName,
					"value":   bundle.Value,
					"version": bundle.Version,
				}
				if bundle.ContentType != "" {
					output["contentType"] = bundle.ContentType
				}
				if !bundle.UpdatedAt.IsZero() {
					output["updatedAt"] = bundle.UpdatedAt
				}

				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(output); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			} else {
				fmt.Print(bundle.Value)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&storeName, "store", "", "Store name from relinq.yaml (required)")
	cmd.Flags().StringVar(&vaultURI, "vault", "", "Vault URI (required for Key Vault stores)")
	cmd.Flags().StringVar(&secretName, "name", "", "Secret name to get (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with metadata")

	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
