package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"workflow_server/core/domain"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the CLI in mock mode at the default log level and
// returns what it wrote to stdout and stderr separately.
func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestProcessCommand_Stdin(t *testing.T) {
	out, _, err := runCommand(t, "The export button crashes the app. Please fix asap.\n\nRegards,\nOmar Haddad", "process")
	require.NoError(t, err)

	var env domain.PipelineEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	assert.True(t, env.Success)
	assert.Equal(t, domain.ModeMock, env.Mode)
	assert.Equal(t, "Omar Haddad", env.ExtractedData.CustomerName)
	assert.Equal(t, domain.UrgencyHigh, env.ExtractedData.Urgency)
	require.NotNil(t, env.TaskCreated.RowNumber)
	assert.Equal(t, 1, *env.TaskCreated.RowNumber)
}

func TestProcessCommand_StdoutIsOneJSONValue(t *testing.T) {
	out, logs, err := runCommand(t, "Login broken, urgent.\nSarah Chen", "process")
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	var env domain.PipelineEnvelope
	require.NoError(t, dec.Decode(&env), out)
	assert.True(t, env.Success)
	assert.ErrorIs(t, dec.Decode(&struct{}{}), io.EOF, "stdout must hold only the envelope: %s", out)

	assert.Contains(t, logs, "pipeline ready")
	assert.Contains(t, logs, `"level":"debug"`)
}

func TestProcessCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email.txt")
	require.NoError(t, os.WriteFile(path, []byte("I need a refund for last month's invoice."), 0o600))

	out, _, err := runCommand(t, "", "process", "--file", path, "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"success\": true")
	assert.Contains(t, out, `"topic": "Billing"`)
}

func TestProcessCommand_EmptyInputFails(t *testing.T) {
	out, _, err := runCommand(t, "   \n", "process")

	assert.ErrorIs(t, err, errNotProcessed)
	assert.Contains(t, out, `"error":"empty input"`)
}

func TestProcessCommand_MissingFile(t *testing.T) {
	_, _, err := runCommand(t, "", "process", "-f", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestHealthCommand(t *testing.T) {
	out, _, err := runCommand(t, "", "health")
	require.NoError(t, err)

	var report struct {
		Health     domain.HealthStatus `json:"health"`
		ForcedMock bool                `json:"forced_mock"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.True(t, report.ForcedMock)
	assert.True(t, report.Health.MockMode)
	assert.False(t, report.Health.SheetsConfigured)
}
