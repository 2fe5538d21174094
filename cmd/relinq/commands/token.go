package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/relinq/internal/config"
	dserrors "github.com/systmms/relinq/internal/errors"
	"github.com/systmms/relinq/internal/identity"
	"github.com/systmms/relinq/pkg/credential"
)

func NewTokenCommand(cfg *config.Config) *cobra.Command {
	var (
		storeName  string
		resource   string
		scopes     []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch an access token for a resource",
		Long: `Acquire an access token using the credentials configured for a store.

The token provider is wrapped so it is released right after the first
successful acquisition; its credential cache never outlives the command.

Examples:
  # Token for a resource's default scope
  relinq token --store vault --resource https://vault.azure.net

  # Explicit scopes with expiry metadata
  relinq token --store vault --scope https://vault.azure.net/.default --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if resource == "" && len(scopes) == 0 {
				return dserrors.UserError{
					Message:    "A resource or at least one scope is required",
					Suggestion: "Use --resource <uri> or --scope <scope>",
				}
			}

			if err := cfg.Load(); err != nil {
				return err
			}

			storeCfg, err := cfg.GetStore(storeName)
			if err != nil {
				return err
			}
			if storeCfg.Type != "azure-keyvault" {
				return dserrors.ConfigError{
					Field:      "type",
					Value:      storeCfg.Type,
					Message:    "store does not use token-based authentication",
					Suggestion: "Point --store at an azure-keyvault entry",
				}
			}

			provider, err := identity.NewAzureProvider(identity.Config{
				TenantID:           stringField(storeCfg.Config, "tenant_id"),
				ClientID:           stringField(storeCfg.Config, "client_id"),
				ClientSecret:       stringField(storeCfg.Config, "client_secret"),
				UseManagedIdentity: boolField(storeCfg.Config, "use_managed_identity"),
				UserAssignedID:     stringField(storeCfg.Config, "user_assigned_id"),
			}, identity.WithLogger(cfg.Logger))
			if err != nil {
				return err
			}

			oneTime, err := credential.NewOneTime(provider)
			if err != nil {
				return err
			}

			token, err := oneTime.GetToken(context.Background(), "", resource, scopes)
			if err != nil {
				return err
			}

			if jsonOutput {
				output := map[string]interface{}{
					"token":     token.Token,
					"expiresOn": token.ExpiresOn,
				}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(output); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			} else {
				fmt.Print(token.Token)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&storeName, "store", "", "Store name from relinq.yaml (required)")
	cmd.Flags().StringVar(&resource, "resource", "", "Resource URI to request a token for")
	cmd.Flags().StringArrayVar(&scopes, "scope", nil, "Explicit scope (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with expiry")

	_ = cmd.MarkFlagRequired("store")

	return cmd
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolField(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}
