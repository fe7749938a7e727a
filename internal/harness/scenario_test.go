package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenarioValid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: ok
description: "valid"
config: english
table: documents
columns: [title]
flow:
  - op: fulltext
    algorithm: gist
assertions:
  - type: trace_count
    op: fulltext
    count: 1
`))
	require.NoError(t, err)

	assert.Equal(t, "ok", s.Name)
	require.Len(t, s.Flow, 1)
	require.NotNil(t, s.Flow[0].Algorithm)
	assert.Equal(t, "gist", *s.Flow[0].Algorithm)
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\nflow: [{op: search}]\nasertions: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nflow: [{op: search}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nflow: [{op: search}]\n",
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: x\ndescription: d\n",
			wantErr: "flow list is required",
		},
		{
			name:    "unknown op",
			yaml:    "name: x\ndescription: d\nflow: [{op: explode}]\n",
			wantErr: `unknown op "explode"`,
		},
		{
			name:    "ddl without table",
			yaml:    "name: x\ndescription: d\nflow: [{op: fulltext}]\n",
			wantErr: "table is required for fulltext",
		},
		{
			name:    "sql and error",
			yaml:    "name: x\ndescription: d\nflow: [{op: search, expect: {sql: a, error: QUOTING_FAILURE}}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown error code",
			yaml:    "name: x\ndescription: d\nflow: [{op: search, expect: {error: OOPS}}]\n",
			wantErr: `unknown error code "OOPS"`,
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: d\nflow: [{op: search}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "trace_contains without text",
			yaml:    "name: x\ndescription: d\nflow: [{op: search}]\nassertions: [{type: trace_contains}]\n",
			wantErr: "contains is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenariosSortedAndBothExtensions(t *testing.T) {
	dir := t.TempDir()
	body := "description: d\nflow: [{op: search}]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("name: b\n"+body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: a\n"+body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a", scenarios[0].Name)
	assert.Equal(t, "b", scenarios[1].Name)
}
