// Package errors carries the user-facing error types shared by the store
// and identity adapters. The lifecycle core has its own typed outcomes in
// pkg/lifecycle; these types exist to attach actionable suggestions to
// failures coming back from external SDKs.
package errors

import (
	"fmt"
	"strings"
)

// UserError is an error that should be shown to the user with helpful
// context.
type UserError struct {
	Message    string
	Details    string
	Suggestion string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// AzureSuggestion maps common Azure SDK failures to actionable advice.
func AzureSuggestion(err error) string {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "forbidden") || strings.Contains(errStr, "access denied"):
		return "Check Key Vault access policies: 'Get' permission is required for secrets and certificates"
	case strings.Contains(errStr, "notfound") || strings.Contains(errStr, "404"):
		return "Verify the name exists in the Key Vault. Names are case-sensitive"
	case strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "401"):
		return "Check authentication: verify managed identity, service principal, or Azure CLI login"
	case strings.Contains(errStr, "invalid_client"):
		return "Check the service principal client ID and secret, and that the app is registered in the correct tenant"
	case strings.Contains(errStr, "tenant"):
		return "Check that the tenant ID is correct"
	case strings.Contains(errStr, "throttled") || strings.Contains(errStr, "429"):
		return "Request was throttled. Reduce request rate or add backoff"
	case strings.Contains(errStr, "login"):
		return "Try running 'az login' to authenticate with Azure CLI"
	default:
		return "Check Azure credentials, the vault URI, and access policies"
	}
}

// AWSSuggestion maps common AWS SDK failures to actionable advice.
func AWSSuggestion(err error) string {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "AccessDenied"):
		return "Check IAM permissions for secretsmanager:GetSecretValue"
	case strings.Contains(errStr, "ResourceNotFoundException"):
		return "Verify the secret name and region. List secrets with: 'aws secretsmanager list-secrets'"
	case strings.Contains(errStr, "ThrottlingException"):
		return "AWS rate limit exceeded. Wait a moment and try again"
	case strings.Contains(errStr, "credentials"), strings.Contains(errStr, "authorization"):
		return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
	case strings.Contains(errStr, "timeout"):
		return "The operation timed out. Check your network connection and try again"
	default:
		return ""
	}
}
