package commands

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/relinq/internal/config"
	dserrors "github.com/systmms/relinq/internal/errors"
)

func NewCertCommand(cfg *config.Config) *cobra.Command {
	var (
		storeName  string
		vaultURI   string
		certName   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Get a certificate's public portion",
		Long: `Retrieve a certificate's public portion (CER) from a store.

The certificate is printed PEM-encoded by default. Stores that hold no
certificates (such as AWS Secrets Manager) reject this command.

Examples:
  # Print the certificate as PEM
  relinq cert --store vault --vault https://prod.vault.azure.net/ --name tls-cert

  # Thumbprint and expiry as JSON
  relinq cert --store vault --vault https://prod.vault.azure.net/ --name tls-cert --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if certName == "" {
				return dserrors.UserError{
					Message:    "Certificate name is required",
					Suggestion: "Use --name <certificate-name> to specify which certificate to get",
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

			bundle, err := handle.Resource().GetCertificate(ctx, vaultURI, certName)
			if err != nil {
				return err
			}

			if jsonOutput {
				output := map[string]interface{}{
					"store":      storeName,
					"name":       certName,
					"thumbprint": bundle.Thumbprint,
					"version":    bundle.Version,
				}
				if !bundle.Expires.IsZero() {
					output["expires"] = bundle.Expires
				}

				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(output); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
				return nil
			}

			return pem.Encode(os.Stdout, &pem.Block{Type: "CERTIFICATE", Bytes: bundle.Cer})
		},
	}

	cmd.Flags().StringVar(&storeName, "store", "", "Store name from relinq.yaml (required)")
	cmd.Flags().StringVar(&vaultURI, "vault", "", "Vault URI (required for Key Vault stores)")
	cmd.Flags().StringVar(&certName, "name", "", "Certificate name to get (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output metadata in JSON format")

	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
