package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	dserrors "github.com/systmms/relinq/internal/errors"
	"github.com/systmms/relinq/internal/logging"
	"github.com/systmms/relinq/pkg/secretstore"
)

// SecretsManagerAPI is the slice of the AWS Secrets Manager client the
// store uses; narrowed to an interface so tests can inject fakes.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerConfig configures the AWS store.
type SecretsManagerConfig struct {
	Region          string
	Endpoint        string // custom endpoint for LocalStack or testing
	AccessKeyID     string // static credentials for LocalStack or testing
	SecretAccessKey string
}

// SecretsManager fetches secrets from AWS Secrets Manager. The vault URI
// is ignored; the region given at construction selects the endpoint.
// Certificate retrieval is not supported by this backend.
type SecretsManager struct {
	name   string
	client SecretsManagerAPI
	logger *logging.Logger
}

// SecretsManagerOption configures a SecretsManager store.
type SecretsManagerOption func(*SecretsManager)

// WithSecretsManagerClient injects a custom client (for testing).
func WithSecretsManagerClient(client SecretsManagerAPI) SecretsManagerOption {
	return func(s *SecretsManager) { s.client = client }
}

// WithSecretsManagerLogger sets the store's logger.
func WithSecretsManagerLogger(logger *logging.Logger) SecretsManagerOption {
	return func(s *SecretsManager) { s.logger = logger.Named("secretsmanager") }
}

// NewSecretsManager creates an AWS Secrets Manager store.
func NewSecretsManager(name string, cfg SecretsManagerConfig, opts ...SecretsManagerOption) (*SecretsManager, error) {
	s := &SecretsManager{
		name:   name,
		logger: logging.New(false, false).Named("secretsmanager"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		region := cfg.Region
		if region == "" {
			region = "us-east-1"
		}

		configOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		var clientOpts []func(*secretsmanager.Options)
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		s.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)
	}

	return s, nil
}

// Name returns the store instance name.
func (s *SecretsManager) Name() string {
	return s.name
}

// GetSecret fetches the current version of the named secret.
func (s *SecretsManager) GetSecret(ctx context.Context, vaultURI, name string) (secretstore.SecretBundle, error) {
	s.logger.Debug("Fetching secret %s", logging.Secret(name))

	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return secretstore.SecretBundle{}, s.mapError(err, name)
	}

	bundle := secretstore.SecretBundle{UpdatedAt: createdDate(result)}
	switch {
	case result.SecretString != nil:
		bundle.Value = *result.SecretString
	case result.SecretBinary != nil:
		bundle.Value = string(result.SecretBinary)
	default:
		return secretstore.SecretBundle{}, fmt.Errorf("secret %q has no value", name)
	}
	if result.VersionId != nil {
		bundle.Version = *result.VersionId
	}
	return bundle, nil
}

// GetCertificate is not supported by Secrets Manager.
func (s *SecretsManager) GetCertificate(ctx context.Context, vaultURI, name string) (secretstore.CertificateBundle, error) {
	return secretstore.CertificateBundle{}, secretstore.UnsupportedError{
		Store:     s.name,
		Operation: "certificate retrieval",
	}
}

func (s *SecretsManager) mapError(err error, name string) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return secretstore.NotFoundError{Store: s.name, Name: name}
	}
	return dserrors.UserError{
		Message:    fmt.Sprintf("Failed to access %q", name),
		Details:    err.Error(),
		Suggestion: dserrors.AWSSuggestion(err),
	}
}

func createdDate(out *secretsmanager.GetSecretValueOutput) time.Time {
	if out.CreatedDate != nil {
		return *out.CreatedDate
	}
	return time.Time{}
}

var _ secretstore.SecretStore = (*SecretsManager)(nil)
