// Package credential defines the token-retrieval collaborator interface.
//
// Token acquisition protocols are external behavior; relinq only needs
// "fetch an access token given authority, resource, and scopes". The
// Azure-backed implementation lives in internal/identity.
package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/systmms/relinq/pkg/lifecycle"
)

// AccessToken is a bearer token with its expiry.
type AccessToken struct {
	Token     string
	ExpiresOn time.Time
}

// Valid reports whether the token is present and not expired.
func (t AccessToken) Valid() bool {
	return t.Token != "" && time.Now().Before(t.ExpiresOn)
}

// TokenProvider fetches access tokens. Implementations are safe for
// concurrent use and honor context cancellation.
type TokenProvider interface {
	GetToken(ctx context.Context, authority, resource string, scopes []string) (AccessToken, error)
}

// AuthenticationError reports a failed token acquisition.
type AuthenticationError struct {
	Authority string
	Resource  string
	Err       error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication against %s for %s failed: %v", e.Authority, e.Resource, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// OneTime wraps a TokenProvider so the provider is released exactly once
// after its first successful use. If the wrapped provider implements
// lifecycle.Disposable, its Close runs as the release cleanup. Uses after
// the release fail with lifecycle.ErrAlreadyReleased.
type OneTime struct {
	provider TokenProvider
	disposer *lifecycle.Disposer
}

// NewOneTime wraps provider. A nil provider is an InvalidArgumentError.
func NewOneTime(provider TokenProvider) (*OneTime, error) {
	if provider == nil {
		return nil, &lifecycle.InvalidArgumentError{Arg: "provider", Message: "token provider is required"}
	}
	cleanup := func() {}
	if d, ok := provider.(lifecycle.Disposable); ok {
		cleanup = func() { _ = d.Close() }
	}
	disposer, err := lifecycle.NewDisposer(cleanup)
	if err != nil {
		return nil, err
	}
	return &OneTime{provider: provider, disposer: disposer}, nil
}

// GetToken fetches a token and, on the first success, releases the
// wrapped provider. Failed attempts leave the provider usable for a
// retry.
func (o *OneTime) GetToken(ctx context.Context, authority, resource string, scopes []string) (AccessToken, error) {
	if o.disposer.Released() {
		return AccessToken{}, lifecycle.ErrAlreadyReleased
	}
	token, err := o.provider.GetToken(ctx, authority, resource, scopes)
	if err != nil {
		return AccessToken{}, err
	}
	o.disposer.Release()
	return token, nil
}

// Released reports whether the wrapped provider has been released.
func (o *OneTime) Released() bool {
	return o.disposer.Released()
}

// OnReleased registers an observer on the underlying release event.
func (o *OneTime) OnReleased(fn func()) {
	o.disposer.OnReleased(fn)
}
