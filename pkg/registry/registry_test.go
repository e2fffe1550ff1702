package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	assert.Empty(t, reg.Problems())

	for _, taskType := range []string{"resolve-business", "research-business", "research-batch"} {
		a, ok := reg.Find(taskType)
		require.True(t, ok, taskType)
		assert.Equal(t, "research", a.Category)
		assert.NotEmpty(t, a.InputSchema)
	}

	_, ok := reg.Find("send-email")
	assert.False(t, ok)
}

func TestProblems(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "resolve-business", TaskType: "resolve-business", Timeout: "30s", InputSchema: map[string]interface{}{"type": "object"}},
		{ID: "Resolve_Again", TaskType: "resolve-business", Timeout: "soon"},
		{ID: "no-type"},
	}}

	problems := reg.Problems()
	assert.Contains(t, problems, `activity "Resolve_Again": id must be kebab-case`)
	assert.Contains(t, problems, `activity "Resolve_Again": duplicate taskType "resolve-business"`)
	assert.Contains(t, problems, `activity "Resolve_Again": invalid timeout "soon"`)
	assert.Contains(t, problems, `activity "no-type": taskType is required`)
	assert.Contains(t, problems, `activity "no-type": inputSchema is required`)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, defaultRegistry, 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 3)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = LoadRegistry(path)
	assert.Error(t, err)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantErr string
		check   func(t *testing.T, a *Activity)
	}{
		{"status", "status", "verified", "", func(t *testing.T, a *Activity) { assert.Equal(t, "verified", a.ImplementationStatus) }},
		{"timeout", "timeout", "45s", "", func(t *testing.T, a *Activity) { assert.Equal(t, "45s", a.Timeout) }},
		{"retries", "retries", "5", "", func(t *testing.T, a *Activity) { assert.Equal(t, 5, a.Retries) }},
		{"bad retries", "retries", "many", "invalid retries value", nil},
		{"bad timeout", "timeout", "later", "invalid timeout value", nil},
		{"unknown field", "owner", "me", "unknown field: owner", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Default()
			require.NoError(t, err)

			err = reg.Update("research-business", tt.field, tt.value)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			a, ok := reg.Find("research-business")
			require.True(t, ok)
			tt.check(t, a)
		})
	}

	reg, err := Default()
	require.NoError(t, err)
	assert.ErrorContains(t, reg.Update("missing", "status", "verified"), "not found")
}

func TestSave_RoundTrip(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	require.NoError(t, reg.Update("research-batch", "retries", "2"))

	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	a, ok := loaded.Find("research-batch")
	require.True(t, ok)
	assert.Equal(t, 2, a.Retries)
	assert.Equal(t, reg.LastUpdated, loaded.LastUpdated)
}
