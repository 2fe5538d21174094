// Package config loads and validates the relinq.yaml runtime
// configuration: the secret store backends and the guard settings for
// their shared clients.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	dserrors "github.com/systmms/relinq/internal/errors"
	"github.com/systmms/relinq/internal/identity"
	"github.com/systmms/relinq/internal/logging"
	"github.com/systmms/relinq/internal/stores"
	"github.com/systmms/relinq/pkg/lifecycle"
	"github.com/systmms/relinq/pkg/secretstore"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration.
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the relinq.yaml structure.
type Definition struct {
	Version int                    `yaml:"version"`
	Stores  map[string]StoreConfig `yaml:"stores,omitempty"`
	Guard   GuardConfig            `yaml:"guard,omitempty"`
}

// StoreConfig holds backend-specific store configuration.
type StoreConfig struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:",inline"`
}

// GuardConfig tunes the lifecycle guard wrapped around shared store
// clients.
type GuardConfig struct {
	WriteTimeoutMs int    `yaml:"write_timeout_ms,omitempty"`
	Fallback       string `yaml:"fallback,omitempty"` // "skip" or "force"
	GCBackstop     *bool  `yaml:"gc_backstop,omitempty"`
}

// definitionSchema validates the structural shape of relinq.yaml before
// any backend is constructed.
const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "version": {"type": "integer", "enum": [0]},
    "stores": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "type": {"type": "string", "enum": ["azure-keyvault", "aws-secretsmanager"]}
        },
        "required": ["type"]
      }
    },
    "guard": {
      "type": "object",
      "properties": {
        "write_timeout_ms": {"type": "integer", "minimum": 1},
        "fallback": {"type": "string", "enum": ["skip", "force"]},
        "gc_backstop": {"type": "boolean"}
      },
      "additionalProperties": false
    }
  },
  "additionalProperties": false
}`

// Load reads and validates the relinq.yaml file.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Create a relinq.yaml or pass --config with the file's location",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if err := validateDefinition(data); err != nil {
		return err
	}

	c.Definition = &def
	return nil
}

// validateDefinition checks the raw document against the schema. The
// yaml is round-tripped through a generic map so gojsonschema sees plain
// JSON types.
func validateDefinition(data []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode configuration for validation: %w", err)
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return dserrors.ConfigError{
			Message:    fmt.Sprintf("configuration failed validation:\n  - %s", strings.Join(messages, "\n  - ")),
			Suggestion: "Fix the listed fields in your relinq.yaml",
		}
	}
	return nil
}

// GetStore returns the configuration for a named store.
func (c *Config) GetStore(name string) (StoreConfig, error) {
	if c.Definition == nil {
		return StoreConfig{}, dserrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	if store, ok := c.Definition.Stores[name]; ok {
		return store, nil
	}

	var available []string
	for storeName := range c.Definition.Stores {
		available = append(available, storeName)
	}
	suggestion := "Add the store to the 'stores:' section of your relinq.yaml"
	if len(available) > 0 {
		suggestion = fmt.Sprintf("Available stores: %s", strings.Join(available, ", "))
	}
	return StoreConfig{}, dserrors.ConfigError{
		Field:      "store",
		Value:      name,
		Message:    "store not found in configuration",
		Suggestion: suggestion,
	}
}

// BuildStore constructs the backend client for a named store entry.
func (c *Config) BuildStore(name string) (secretstore.SecretStore, error) {
	cfg, err := c.GetStore(name)
	if err != nil {
		return nil, err
	}

	logger := c.Logger
	if logger == nil {
		logger = logging.New(false, false)
	}

	switch cfg.Type {
	case "azure-keyvault":
		idCfg := identity.Config{
			TenantID:           stringValue(cfg.Config, "tenant_id"),
			ClientID:           stringValue(cfg.Config, "client_id"),
			ClientSecret:       stringValue(cfg.Config, "client_secret"),
			UseManagedIdentity: boolValue(cfg.Config, "use_managed_identity"),
			UserAssignedID:     stringValue(cfg.Config, "user_assigned_id"),
		}
		return stores.NewKeyVault(name, idCfg, stores.WithKeyVaultLogger(logger))
	case "aws-secretsmanager":
		smCfg := stores.SecretsManagerConfig{
			Region:          stringValue(cfg.Config, "region"),
			Endpoint:        stringValue(cfg.Config, "endpoint"),
			AccessKeyID:     stringValue(cfg.Config, "access_key_id"),
			SecretAccessKey: stringValue(cfg.Config, "secret_access_key"),
		}
		return stores.NewSecretsManager(name, smCfg, stores.WithSecretsManagerLogger(logger))
	default:
		return nil, dserrors.ConfigError{
			Field:      "type",
			Value:      cfg.Type,
			Message:    "unknown store type",
			Suggestion: "Supported types: azure-keyvault, aws-secretsmanager",
		}
	}
}

// GuardOptions translates the guard settings into lifecycle options.
func (g GuardConfig) GuardOptions() []lifecycle.ManagedOption {
	var opts []lifecycle.ManagedOption
	if g.WriteTimeoutMs > 0 {
		opts = append(opts, lifecycle.WithWriteTimeout(time.Duration(g.WriteTimeoutMs)*time.Millisecond))
	}
	if g.Fallback == "force" {
		opts = append(opts, lifecycle.WithFallback(lifecycle.ForceOnTimeout))
	}
	if g.GCBackstop != nil && !*g.GCBackstop {
		opts = append(opts, lifecycle.WithoutGCBackstop())
	}
	return opts
}

func stringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolValue(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}
