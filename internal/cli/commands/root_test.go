package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
types:
  - name: Model.Product
    properties:
      - {name: Id, type: Edm.Int32}
      - {name: Name, type: Edm.String}
      - {name: Price, type: Edm.Decimal}
      - {name: Rating, type: Edm.Int32?}
      - {name: Supplier, type: Model.Supplier}
  - name: Model.Supplier
    properties:
      - {name: Id, type: Edm.Int32}
      - {name: Country, type: Edm.String}
  - name: Model.Discounted
    base: Model.Product
    properties:
      - {name: Discount, type: Edm.Decimal}
`

// workspace creates a directory holding schema.yaml and, when config is
// not empty, wirequery.yaml, and makes it the working directory
func workspace(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.yaml"), []byte(testSchema), 0644))
	if config != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "wirequery.yaml"), []byte(config), 0644))
	}

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return dir
}

// execute runs the root command with args and returns stdout and stderr
func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	if ctx == nil {
		ctx = context.Background()
	}
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "wirequery", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	for _, name := range []string{"version", "parse", "types", "serve"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "schema", "no-color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestNewVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "go1.23"

	stdout, _, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wirequery version: 1.0.0-test")
	assert.Contains(t, stdout, "Git commit: abc123")
	assert.Contains(t, stdout, "Go version: go1.23")
}

func TestMissingSchema(t *testing.T) {
	workspace(t, "")

	_, stderr, err := execute(t, nil, "types")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")
	assert.Contains(t, stderr, "No schema file configured")

	_, stderr, err = execute(t, nil, "types", "--schema", "missing.yaml")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "missing.yaml")
}

func TestInvalidConfig(t *testing.T) {
	workspace(t, "cache:\n  size: -1\n")

	_, stderr, err := execute(t, nil, "types")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "cache.size")
}
