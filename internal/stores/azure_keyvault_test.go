package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azcertificates"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/relinq/internal/identity"
	"github.com/systmms/relinq/pkg/secretstore"
)

const testVault = "https://unit-vault.vault.azure.net/"

type fakeSecretClient struct {
	resp azsecrets.GetSecretResponse
	err  error
}

func (f *fakeSecretClient) GetSecret(ctx context.Context, name, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	if f.err != nil {
		return azsecrets.GetSecretResponse{}, f.err
	}
	return f.resp, nil
}

type fakeCertClient struct {
	resp azcertificates.GetCertificateResponse
	err  error
}

func (f *fakeCertClient) GetCertificate(ctx context.Context, name, version string, options *azcertificates.GetCertificateOptions) (azcertificates.GetCertificateResponse, error) {
	if f.err != nil {
		return azcertificates.GetCertificateResponse{}, f.err
	}
	return f.resp, nil
}

func newTestKeyVault(t *testing.T, sc SecretClientAPI, cc CertificateClientAPI) *KeyVault {
	t.Helper()
	if sc == nil {
		sc = &fakeSecretClient{}
	}
	if cc == nil {
		cc = &fakeCertClient{}
	}
	kv, err := NewKeyVault("keyvault", identity.Config{},
		WithSecretClient(testVault, sc),
		WithCertificateClient(testVault, cc),
	)
	require.NoError(t, err)
	return kv
}

func strPtr(s string) *string { return &s }

func TestKeyVault_GetSecret(t *testing.T) {
	t.Parallel()

	updated := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	id := azsecrets.ID(testVault + "secrets/db-password/abc123")
	fake := &fakeSecretClient{resp: azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			Value:       strPtr("s3cret-value"),
			ContentType: strPtr("text/plain"),
			ID:          &id,
			Attributes:  &azsecrets.SecretAttributes{Updated: &updated},
		},
	}}
	kv := newTestKeyVault(t, fake, nil)

	bundle, err := kv.GetSecret(context.Background(), testVault, "db-password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret-value", bundle.Value)
	assert.Equal(t, "text/plain", bundle.ContentType)
	assert.Equal(t, "abc123", bundle.Version)
	assert.Equal(t, updated, bundle.UpdatedAt)
}

func TestKeyVault_GetSecret_NotFound(t *testing.T) {
	t.Parallel()

	fake := &fakeSecretClient{err: errors.New("SecretNotFound: 404")}
	kv := newTestKeyVault(t, fake, nil)

	_, err := kv.GetSecret(context.Background(), testVault, "missing")
	var notFound secretstore.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Name)
}

func TestKeyVault_GetSecret_Unauthorized(t *testing.T) {
	t.Parallel()

	fake := &fakeSecretClient{err: errors.New("401 Unauthorized")}
	kv := newTestKeyVault(t, fake, nil)

	_, err := kv.GetSecret(context.Background(), testVault, "db-password")
	var authErr secretstore.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestKeyVault_GetSecret_NoValue(t *testing.T) {
	t.Parallel()

	kv := newTestKeyVault(t, &fakeSecretClient{}, nil)
	_, err := kv.GetSecret(context.Background(), testVault, "empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no value")
}

func TestKeyVault_GetCertificate(t *testing.T) {
	t.Parallel()

	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	id := azcertificates.ID(testVault + "certificates/tls-cert/v7")
	fake := &fakeCertClient{resp: azcertificates.GetCertificateResponse{
		Certificate: azcertificates.Certificate{
			CER:            []byte{0x30, 0x82},
			X509Thumbprint: []byte{0xde, 0xad, 0xbe, 0xef},
			ID:             &id,
			Attributes:     &azcertificates.CertificateAttributes{Expires: &expires},
		},
	}}
	kv := newTestKeyVault(t, nil, fake)

	bundle, err := kv.GetCertificate(context.Background(), testVault, "tls-cert")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x82}, bundle.Cer)
	assert.Equal(t, "deadbeef", bundle.Thumbprint)
	assert.Equal(t, "v7", bundle.Version)
	assert.Equal(t, expires, bundle.Expires)
}

func TestKeyVault_InvalidVaultURI(t *testing.T) {
	t.Parallel()

	kv := newTestKeyVault(t, nil, nil)

	tests := []string{"", "not-a-url", "http://insecure.vault.azure.net/"}
	for _, uri := range tests {
		_, err := kv.GetSecret(context.Background(), uri, "name")
		assert.Error(t, err, "uri %q must be rejected", uri)
		_, err = kv.GetCertificate(context.Background(), uri, "name")
		assert.Error(t, err, "uri %q must be rejected", uri)
	}
}

func TestKeyVault_Name(t *testing.T) {
	t.Parallel()

	kv := newTestKeyVault(t, nil, nil)
	assert.Equal(t, "keyvault", kv.Name())
}
