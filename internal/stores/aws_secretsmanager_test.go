package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/relinq/pkg/secretstore"
)

type fakeSecretsManager struct {
	out *secretsmanager.GetSecretValueOutput
	err error
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func newTestSecretsManager(t *testing.T, fake *fakeSecretsManager) *SecretsManager {
	t.Helper()
	s, err := NewSecretsManager("secretsmanager", SecretsManagerConfig{},
		WithSecretsManagerClient(fake))
	require.NoError(t, err)
	return s
}

func TestSecretsManager_GetSecret(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	value := "db-credentials-json"
	version := "ver-1"
	s := newTestSecretsManager(t, &fakeSecretsManager{out: &secretsmanager.GetSecretValueOutput{
		SecretString: &value,
		VersionId:    &version,
		CreatedDate:  &created,
	}})

	bundle, err := s.GetSecret(context.Background(), "", "prod/db")
	require.NoError(t, err)
	assert.Equal(t, value, bundle.Value)
	assert.Equal(t, version, bundle.Version)
	assert.Equal(t, created, bundle.UpdatedAt)
}

func TestSecretsManager_BinarySecret(t *testing.T) {
	t.Parallel()

	s := newTestSecretsManager(t, &fakeSecretsManager{out: &secretsmanager.GetSecretValueOutput{
		SecretBinary: []byte("binary-bytes"),
	}})

	bundle, err := s.GetSecret(context.Background(), "", "prod/blob")
	require.NoError(t, err)
	assert.Equal(t, "binary-bytes", bundle.Value)
}

func TestSecretsManager_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestSecretsManager(t, &fakeSecretsManager{err: &types.ResourceNotFoundException{}})

	_, err := s.GetSecret(context.Background(), "", "missing")
	var notFound secretstore.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Name)
}

func TestSecretsManager_OtherErrorCarriesSuggestion(t *testing.T) {
	t.Parallel()

	s := newTestSecretsManager(t, &fakeSecretsManager{err: errors.New("AccessDeniedException: nope")})

	_, err := s.GetSecret(context.Background(), "", "prod/db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IAM permissions")
}

func TestSecretsManager_NoValue(t *testing.T) {
	t.Parallel()

	s := newTestSecretsManager(t, &fakeSecretsManager{out: &secretsmanager.GetSecretValueOutput{}})
	_, err := s.GetSecret(context.Background(), "", "empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no value")
}

func TestSecretsManager_CertificatesUnsupported(t *testing.T) {
	t.Parallel()

	s := newTestSecretsManager(t, &fakeSecretsManager{})
	_, err := s.GetCertificate(context.Background(), "", "any")
	var unsupported secretstore.UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "certificate retrieval", unsupported.Operation)
}
