package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBatchData_Valid(t *testing.T) {
	issues, err := validateBatchData("batch.yaml", []byte(sampleBatch))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidateBatchData_BadMode(t *testing.T) {
	data := []byte("tables:\n  - table: t\n    options: {mode: upsert}\n    records: []\n")

	issues, err := validateBatchData("batch.yaml", data)
	require.NoError(t, err)
	assert.NotEmpty(t, issues, "mode outside insert|update|replace must be flagged")
}

func TestValidateBatchData_MissingTableName(t *testing.T) {
	data := []byte("tables:\n  - records: []\n")

	issues, err := validateBatchData("batch.yaml", data)
	require.NoError(t, err)
	assert.NotEmpty(t, issues)
}

func TestValidateBatchData_NotYAML(t *testing.T) {
	issues, err := validateBatchData("batch.yaml", []byte("\t{nope"))
	require.NoError(t, err)
	assert.NotEmpty(t, issues)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "batch.yaml", sampleBatch)

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"validate", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "valid")
}

func TestValidateCommand_InvalidFileFails(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "batch.yaml", "tables:\n  - table: t\n    options: {mode: upsert}\n    records: []\n")

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"validate", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
