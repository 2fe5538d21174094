package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/relinq/internal/config"
	dserrors "github.com/systmms/relinq/internal/errors"
	"github.com/systmms/relinq/internal/logging"
)

func testConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relinq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return &config.Config{
		Path:   path,
		Logger: logging.New(false, true),
	}
}

func runCommand(t *testing.T, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStoresCommand_List(t *testing.T) {
	cfg := testConfig(t, `
stores:
  vault:
    type: azure-keyvault
  aws:
    type: aws-secretsmanager
`)

	output, err := runCommand(t, NewStoresCommand(cfg), nil)
	require.NoError(t, err)
	assert.Contains(t, output, "aws\taws-secretsmanager")
	assert.Contains(t, output, "vault\tazure-keyvault")
}

func TestStoresCommand_Empty(t *testing.T) {
	cfg := testConfig(t, "version: 0\n")

	output, err := runCommand(t, NewStoresCommand(cfg), nil)
	require.NoError(t, err)
	assert.Contains(t, output, "No stores configured")
}

func TestGetCommand_RequiresFlags(t *testing.T) {
	cfg := testConfig(t, "version: 0\n")

	_, err := runCommand(t, NewGetCommand(cfg), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestGetCommand_UnknownStore(t *testing.T) {
	cfg := testConfig(t, "stores:\n  vault:\n    type: azure-keyvault\n")

	_, err := runCommand(t, NewGetCommand(cfg), []string{"--store", "nope", "--name", "x"})
	var confErr dserrors.ConfigError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Suggestion, "vault")
}

func TestTokenCommand_RequiresResourceOrScope(t *testing.T) {
	cfg := testConfig(t, "stores:\n  vault:\n    type: azure-keyvault\n")

	_, err := runCommand(t, NewTokenCommand(cfg), []string{"--store", "vault"})
	var userErr dserrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Suggestion, "--resource")
}

func TestTokenCommand_RejectsNonTokenStore(t *testing.T) {
	cfg := testConfig(t, "stores:\n  aws:\n    type: aws-secretsmanager\n")

	_, err := runCommand(t, NewTokenCommand(cfg), []string{"--store", "aws", "--resource", "https://vault.azure.net"})
	var confErr dserrors.ConfigError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Message, "token-based")
}

func TestCertCommand_RequiresName(t *testing.T) {
	cfg := testConfig(t, "stores:\n  vault:\n    type: azure-keyvault\n")

	_, err := runCommand(t, NewCertCommand(cfg), []string{"--store", "vault"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}
