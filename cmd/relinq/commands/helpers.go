package commands

import (
	"context"
	"errors"

	"github.com/systmms/relinq/internal/config"
	"github.com/systmms/relinq/pkg/lifecycle"
	"github.com/systmms/relinq/pkg/secretstore"
)

// guardedStore builds the named store client and wraps it in a lifecycle
// guard configured from the relinq.yaml guard section. Config must
// already be loaded.
func guardedStore(cfg *config.Config, storeName string) (*lifecycle.Managed[secretstore.SecretStore], error) {
	store, err := cfg.BuildStore(storeName)
	if err != nil {
		return nil, err
	}
	return lifecycle.NewManaged[secretstore.SecretStore](store, cfg.Definition.Guard.GuardOptions()...)
}

// releaseGuard releases the guard and logs instead of failing the
// command when teardown ran without the write scope. A timeout under the
// skip policy is surfaced as a warning too; the command's fetch already
// succeeded at that point.
func releaseGuard(ctx context.Context, cfg *config.Config, guard *lifecycle.Managed[secretstore.SecretStore]) {
	released, err := guard.Release(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, lifecycle.ErrLockTimeout) {
		if released {
			cfg.Logger.Warn("Store client torn down without write scope: %v", err)
		} else {
			cfg.Logger.Warn("Store client left for the collection backstop: %v", err)
		}
		return
	}
	cfg.Logger.Warn("Failed to release store client: %v", err)
}
