// Package identity implements the credential.TokenProvider interface on
// top of the Azure identity SDK.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/systmms/relinq/internal/logging"
	"github.com/systmms/relinq/pkg/credential"
)

// Config selects the authentication method for the Azure provider.
type Config struct {
	TenantID           string
	ClientID           string
	ClientSecret       string
	UseManagedIdentity bool
	UserAssignedID     string
}

// AzureProvider fetches access tokens via an azcore.TokenCredential and
// caches them per scope until shortly before expiry. It implements
// credential.TokenProvider and lifecycle.Disposable.
type AzureProvider struct {
	cred   azcore.TokenCredential
	cache  *Cache
	logger *logging.Logger
}

// Option configures an AzureProvider.
type Option func(*AzureProvider)

// WithCredential injects a custom token credential (for testing).
func WithCredential(cred azcore.TokenCredential) Option {
	return func(p *AzureProvider) { p.cred = cred }
}

// WithLogger sets the provider's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(p *AzureProvider) { p.logger = logger.Named("identity") }
}

// NewAzureProvider creates a provider using the credential chain the
// config selects: managed identity (system- or user-assigned), service
// principal with client secret, or the default Azure credential chain.
func NewAzureProvider(cfg Config, opts ...Option) (*AzureProvider, error) {
	p := &AzureProvider{
		cache:  NewCache(),
		logger: logging.New(false, false).Named("identity"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cred == nil {
		cred, err := NewTokenCredential(cfg)
		if err != nil {
			return nil, err
		}
		p.cred = cred
	}
	return p, nil
}

// NewTokenCredential builds the azcore credential the config selects.
// Shared with the Key Vault store, which authenticates the same way.
func NewTokenCredential(cfg Config) (azcore.TokenCredential, error) {
	var cred azcore.TokenCredential
	var err error

	switch {
	case cfg.UseManagedIdentity && cfg.UserAssignedID != "":
		cred, err = azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
			ID: azidentity.ClientID(cfg.UserAssignedID),
		})
	case cfg.UseManagedIdentity:
		cred, err = azidentity.NewManagedIdentityCredential(nil)
	case cfg.ClientSecret != "":
		if cfg.TenantID == "" || cfg.ClientID == "" {
			return nil, fmt.Errorf("tenant_id and client_id are required for service principal authentication")
		}
		cred, err = azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	default:
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return cred, nil
}

// GetToken fetches an access token for the given scopes. When scopes is
// empty, the resource's default scope is requested. Cached tokens are
// reused until shortly before expiry.
func (p *AzureProvider) GetToken(ctx context.Context, authority, resource string, scopes []string) (credential.AccessToken, error) {
	if len(scopes) == 0 {
		if resource == "" {
			return credential.AccessToken{}, &credential.AuthenticationError{
				Authority: authority,
				Resource:  resource,
				Err:       fmt.Errorf("either resource or scopes must be given"),
			}
		}
		scopes = []string{strings.TrimSuffix(resource, "/") + "/.default"}
	}

	key := strings.Join(scopes, " ")
	if token, expiresAt, ok := p.cache.Get(key); ok {
		p.logger.Debug("Reusing cached token for scope: %s", logging.Secret(key))
		return credential.AccessToken{Token: token, ExpiresOn: expiresAt}, nil
	}

	p.logger.Debug("Requesting token for scope: %s", logging.Secret(key))
	azToken, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
	if err != nil {
		return credential.AccessToken{}, &credential.AuthenticationError{
			Authority: authority,
			Resource:  resource,
			Err:       err,
		}
	}

	p.cache.Set(key, azToken.Token, azToken.ExpiresOn)
	return credential.AccessToken{Token: azToken.Token, ExpiresOn: azToken.ExpiresOn}, nil
}

// Close drops the token cache. Implements lifecycle.Disposable so the
// provider can live inside a one-shot guard.
func (p *AzureProvider) Close() error {
	p.cache.Clear()
	return nil
}

var _ credential.TokenProvider = (*AzureProvider)(nil)
