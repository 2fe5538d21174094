package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dserrors "github.com/systmms/relinq/internal/errors"
	"github.com/systmms/relinq/pkg/lifecycle"
)

func writeConfig(t *testing.T, content string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relinq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return &Config{Path: path}
}

func TestConfig_Load(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, `
version: 0
stores:
  vault:
    type: azure-keyvault
    tenant_id: tenant-1
    client_id: client-1
  aws:
    type: aws-secretsmanager
    region: eu-west-1
guard:
  write_timeout_ms: 5000
  fallback: force
  gc_backstop: false
`)
	require.NoError(t, cfg.Load())

	require.NotNil(t, cfg.Definition)
	assert.Len(t, cfg.Definition.Stores, 2)
	assert.Equal(t, "azure-keyvault", cfg.Definition.Stores["vault"].Type)
	assert.Equal(t, "tenant-1", cfg.Definition.Stores["vault"].Config["tenant_id"])
	assert.Equal(t, 5000, cfg.Definition.Guard.WriteTimeoutMs)
	assert.Equal(t, "force", cfg.Definition.Guard.Fallback)
	require.NotNil(t, cfg.Definition.Guard.GCBackstop)
	assert.False(t, *cfg.Definition.Guard.GCBackstop)
}

func TestConfig_LoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg := &Config{Path: filepath.Join(t.TempDir(), "nope.yaml")}
	err := cfg.Load()
	var confErr dserrors.ConfigError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "path", confErr.Field)
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, "stores: [this is: not yaml\n")
	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestConfig_LoadSchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown store type", "stores:\n  s:\n    type: gcp-secretmanager\n"},
		{"missing store type", "stores:\n  s:\n    region: us-east-1\n"},
		{"bad fallback", "guard:\n  fallback: explode\n"},
		{"bad version", "version: 3\n"},
		{"unknown top-level key", "backends: {}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := writeConfig(t, tt.content)
			err := cfg.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation")
		})
	}
}

func TestConfig_GetStore(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, "stores:\n  aws:\n    type: aws-secretsmanager\n")
	require.NoError(t, cfg.Load())

	store, err := cfg.GetStore("aws")
	require.NoError(t, err)
	assert.Equal(t, "aws-secretsmanager", store.Type)

	_, err = cfg.GetStore("missing")
	var confErr dserrors.ConfigError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Suggestion, "aws")
}

func TestConfig_BuildStore_AWS(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, `
stores:
  local:
    type: aws-secretsmanager
    region: us-west-2
    endpoint: http://localhost:4566
    access_key_id: test
    secret_access_key: test
`)
	require.NoError(t, cfg.Load())

	store, err := cfg.BuildStore("local")
	require.NoError(t, err)
	assert.Equal(t, "local", store.Name())
}

func TestGuardConfig_GuardOptions(t *testing.T) {
	t.Parallel()

	off := false
	g := GuardConfig{WriteTimeoutMs: 250, Fallback: "force", GCBackstop: &off}
	assert.Len(t, g.GuardOptions(), 3)

	assert.Empty(t, GuardConfig{}.GuardOptions())

	// Options must apply cleanly to a guard.
	m, err := lifecycle.NewManaged(&struct{ v int }{1}, g.GuardOptions()...)
	require.NoError(t, err)
	released, err := m.Release(context.Background())
	require.NoError(t, err)
	assert.True(t, released)
}
