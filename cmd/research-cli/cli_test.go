package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "business-research/internal/common/errors"
	"business-research/pkg/registry"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	return cmd, out
}

func writeDefaultRegistry(t *testing.T) string {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, reg.Save(path))
	return path
}

func TestReadQueries(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"array form", `[{"name": "Ace Plumbing", "location": "Springfield"}, {"name": "Bob's Diner"}]`, 2, false},
		{"object form", `{"businesses": [{"name": "Ace Plumbing"}]}`, 1, false},
		{"empty array", `[]`, 0, true},
		{"missing name", `[{"location": "Springfield"}]`, 0, true},
		{"garbage", `businesses`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries, err := readQueries(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Len(t, queries, tt.want)
		})
	}
}

func TestRegistryValidateCmd(t *testing.T) {
	defer func() { registryPath = "" }()

	cmd, out := newTestCmd()
	require.NoError(t, runRegistryValidate(cmd, nil))
	assert.Contains(t, out.String(), "Found 3 activities")

	registryPath = filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(registryPath, []byte(`{"activities": [{"id": "Bad_ID", "taskType": "x"}]}`), 0o600))
	err := runRegistryValidate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id must be kebab-case")
	assert.Contains(t, err.Error(), "inputSchema is required")
}

func TestRegistryUpdateCmd(t *testing.T) {
	defer func() { registryPath = "" }()

	cmd, out := newTestCmd()
	err := runRegistryUpdate(cmd, []string{"research-business", "status", "verified"})
	assert.ErrorContains(t, err, "--path is required")

	registryPath = writeDefaultRegistry(t)
	require.NoError(t, runRegistryUpdate(cmd, []string{"research-business", "status", "verified"}))
	assert.Contains(t, out.String(), "Updated activity research-business")

	reg, err := registry.LoadRegistry(registryPath)
	require.NoError(t, err)
	a, ok := reg.Find("research-business")
	require.True(t, ok)
	assert.Equal(t, "verified", a.ImplementationStatus)

	assert.Error(t, runRegistryUpdate(cmd, []string{"research-business", "retries", "lots"}))
}

func TestRegistryListCmd(t *testing.T) {
	cmd, out := newTestCmd()
	require.NoError(t, runRegistryList(cmd, nil))
	for _, taskType := range []string{"resolve-business", "research-business", "research-batch"} {
		assert.Contains(t, out.String(), taskType)
	}
}
