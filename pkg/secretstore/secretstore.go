// Package secretstore defines the narrow interface through which relinq
// consumes secret storage systems.
//
// Stores are external collaborators: relinq does not own their wire
// protocols or credential acquisition. It only needs "fetch a secret or
// certificate given a vault URI and a name", asynchronous and cancellable
// through the context. Implementations live in internal/stores.
package secretstore

import (
	"context"
	"fmt"
	"time"
)

// SecretBundle is a fetched secret value plus the metadata stores
// commonly attach to it.
type SecretBundle struct {
	Value       string
	ContentType string
	Version     string
	UpdatedAt   time.Time
}

// CertificateBundle is a fetched certificate: the DER-encoded public
// portion and identifying metadata. Private key material stays in the
// store.
type CertificateBundle struct {
	Cer        []byte
	Thumbprint string
	Version    string
	Expires    time.Time
}

// SecretStore fetches secrets and certificates from a vault. All methods
// are safe for concurrent use and honor context cancellation.
type SecretStore interface {
	// Name identifies the store instance, e.g. for logging.
	Name() string

	// GetSecret fetches the current version of the named secret.
	GetSecret(ctx context.Context, vaultURI, name string) (SecretBundle, error)

	// GetCertificate fetches the current version of the named certificate.
	// Stores without certificate support return an UnsupportedError.
	GetCertificate(ctx context.Context, vaultURI, name string) (CertificateBundle, error)
}

// NotFoundError indicates the named secret or certificate does not exist
// in the store.
type NotFoundError struct {
	Store string
	Name  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q not found", e.Store, e.Name)
}

// AuthError indicates the store rejected the caller's credentials.
type AuthError struct {
	Store   string
	Message string
}

func (e AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %s", e.Store, e.Message)
}

// UnsupportedError indicates the store does not implement the requested
// operation.
type UnsupportedError struct {
	Store     string
	Operation string
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s is not supported", e.Store, e.Operation)
}
