// Package stores implements the secretstore.SecretStore interface for the
// supported vault backends.
package stores

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azcertificates"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	dserrors "github.com/systmms/relinq/internal/errors"
	"github.com/systmms/relinq/internal/identity"
	"github.com/systmms/relinq/internal/logging"
	"github.com/systmms/relinq/pkg/secretstore"
)

// SecretClientAPI is the slice of the azsecrets client the store uses.
// Narrowed to an interface so tests can inject fakes.
type SecretClientAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// CertificateClientAPI is the slice of the azcertificates client the
// store uses.
type CertificateClientAPI interface {
	GetCertificate(ctx context.Context, certificateName string, certificateVersion string, options *azcertificates.GetCertificateOptions) (azcertificates.GetCertificateResponse, error)
}

// KeyVault fetches secrets and certificates from Azure Key Vault. Clients
// are created lazily per vault URI and reused for the life of the store;
// all methods are safe for concurrent use.
type KeyVault struct {
	name   string
	cred   azcore.TokenCredential
	logger *logging.Logger

	mu          sync.Mutex
	secrets     map[string]SecretClientAPI
	certs       map[string]CertificateClientAPI
	newSecrets  func(vaultURI string) (SecretClientAPI, error)
	newCerts    func(vaultURI string) (CertificateClientAPI, error)
}

// KeyVaultOption configures a KeyVault store.
type KeyVaultOption func(*KeyVault)

// WithSecretClient pins a secret client for vaultURI (for testing).
func WithSecretClient(vaultURI string, client SecretClientAPI) KeyVaultOption {
	return func(kv *KeyVault) { kv.secrets[vaultURI] = client }
}

// WithCertificateClient pins a certificate client for vaultURI (for
// testing).
func WithCertificateClient(vaultURI string, client CertificateClientAPI) KeyVaultOption {
	return func(kv *KeyVault) { kv.certs[vaultURI] = client }
}

// WithKeyVaultLogger sets the store's logger.
func WithKeyVaultLogger(logger *logging.Logger) KeyVaultOption {
	return func(kv *KeyVault) { kv.logger = logger.Named("keyvault") }
}

// NewKeyVault creates a Key Vault store authenticating with the given
// identity configuration.
func NewKeyVault(name string, cfg identity.Config, opts ...KeyVaultOption) (*KeyVault, error) {
	kv := &KeyVault{
		name:    name,
		logger:  logging.New(false, false).Named("keyvault"),
		secrets: make(map[string]SecretClientAPI),
		certs:   make(map[string]CertificateClientAPI),
	}
	kv.newSecrets = func(vaultURI string) (SecretClientAPI, error) {
		return azsecrets.NewClient(vaultURI, kv.cred, nil)
	}
	kv.newCerts = func(vaultURI string) (CertificateClientAPI, error) {
		return azcertificates.NewClient(vaultURI, kv.cred, nil)
	}
	for _, opt := range opts {
		opt(kv)
	}

	// A credential is only needed when some client still has to be built.
	if len(kv.secrets) == 0 || len(kv.certs) == 0 {
		cred, err := identity.NewTokenCredential(cfg)
		if err != nil {
			return nil, err
		}
		kv.cred = cred
	}
	return kv, nil
}

// Name returns the store instance name.
func (kv *KeyVault) Name() string {
	return kv.name
}

// GetSecret fetches the current version of the named secret from the
// vault at vaultURI.
func (kv *KeyVault) GetSecret(ctx context.Context, vaultURI, name string) (secretstore.SecretBundle, error) {
	if err := validateVaultURI(vaultURI); err != nil {
		return secretstore.SecretBundle{}, err
	}

	client, err := kv.secretClient(vaultURI)
	if err != nil {
		return secretstore.SecretBundle{}, err
	}

	kv.logger.Debug("Fetching secret %s from %s", logging.Secret(name), vaultURI)
	resp, err := client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return secretstore.SecretBundle{}, kv.mapError(err, name)
	}
	if resp.Value == nil {
		return secretstore.SecretBundle{}, fmt.Errorf("secret %q has no value", name)
	}

	bundle := secretstore.SecretBundle{Value: *resp.Value}
	if resp.ContentType != nil {
		bundle.ContentType = *resp.ContentType
	}
	if resp.ID != nil {
		bundle.Version = resp.ID.Version()
	}
	if resp.Attributes != nil && resp.Attributes.Updated != nil {
		bundle.UpdatedAt = *resp.Attributes.Updated
	}
	return bundle, nil
}

// GetCertificate fetches the current version of the named certificate.
func (kv *KeyVault) GetCertificate(ctx context.Context, vaultURI, name string) (secretstore.CertificateBundle, error) {
	if err := validateVaultURI(vaultURI); err != nil {
		return secretstore.CertificateBundle{}, err
	}

	client, err := kv.certClient(vaultURI)
	if err != nil {
		return secretstore.CertificateBundle{}, err
	}

	kv.logger.Debug("Fetching certificate %s from %s", logging.Secret(name), vaultURI)
	resp, err := client.GetCertificate(ctx, name, "", nil)
	if err != nil {
		return secretstore.CertificateBundle{}, kv.mapError(err, name)
	}

	bundle := secretstore.CertificateBundle{
		Cer:        resp.CER,
		Thumbprint: hex.EncodeToString(resp.X509Thumbprint),
	}
	if resp.ID != nil {
		bundle.Version = resp.ID.Version()
	}
	if resp.Attributes != nil && resp.Attributes.Expires != nil {
		bundle.Expires = *resp.Attributes.Expires
	}
	return bundle, nil
}

func (kv *KeyVault) secretClient(vaultURI string) (SecretClientAPI, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if client, ok := kv.secrets[vaultURI]; ok {
		return client, nil
	}
	client, err := kv.newSecrets(vaultURI)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault secret client: %w", err)
	}
	kv.secrets[vaultURI] = client
	return client, nil
}

func (kv *KeyVault) certClient(vaultURI string) (CertificateClientAPI, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if client, ok := kv.certs[vaultURI]; ok {
		return client, nil
	}
	client, err := kv.newCerts(vaultURI)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault certificate client: %w", err)
	}
	kv.certs[vaultURI] = client
	return client, nil
}

func (kv *KeyVault) mapError(err error, name string) error {
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "notfound") || strings.Contains(errStr, "404"):
		return secretstore.NotFoundError{Store: kv.name, Name: name}
	case strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "401"):
		return secretstore.AuthError{Store: kv.name, Message: err.Error()}
	default:
		return dserrors.UserError{
			Message:    fmt.Sprintf("Failed to access %q", name),
			Details:    err.Error(),
			Suggestion: dserrors.AzureSuggestion(err),
		}
	}
}

func validateVaultURI(vaultURI string) error {
	u, err := url.Parse(vaultURI)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return dserrors.ConfigError{
			Field:      "vault_uri",
			Value:      vaultURI,
			Message:    "Invalid vault URI",
			Suggestion: "Use format: https://vault-name.vault.azure.net/",
		}
	}
	return nil
}

var _ secretstore.SecretStore = (*KeyVault)(nil)
