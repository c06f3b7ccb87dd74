package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lakeflow/baker"
	"github.com/viant/lakeflow/runtime/execution"
)

func execute(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := newRootCommand(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	output, err := execute(t, "list")
	require.NoError(t, err)
	for _, pipeline := range baker.Pipelines() {
		assert.Contains(t, output, pipeline.Name)
	}
}

func TestDescribeCommand(t *testing.T) {
	output, err := execute(t, "describe", baker.MakeCurrentElectionsParquet)
	require.NoError(t, err)
	assert.Contains(t, output, "name: "+baker.MakeCurrentElectionsParquet)
	assert.Contains(t, output, "kind: guard")
	assert.Contains(t, output, "function: "+baker.CreateCurrentElectionsCSV)

	output, err = execute(t, "describe", baker.MakeCurrentBoundaryChangesParquet, "--tree")
	require.NoError(t, err)
	assert.Contains(t, output, "Check no other execution is running [guard]\n  main [chain]\n")
	assert.Contains(t, output, "        Create addresses for pair [task]\n")

	_, err = execute(t, "describe", "unknown")
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	configURL := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configURL, []byte("processor:\n  pollInterval: 1ms\nstorage:\n  baseURL: mem://localhost/\n"), 0644))
	fixturesURL := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(fixturesURL, []byte(`fixtures:
  - name: addressbase_source_uniqueness
    columns: [addressbase_sources_count]
    rows:
      - ["2"]
`), 0644))

	testCases := []struct {
		name       string
		args       []string
		expect     execution.Status
		expectKind string
		hasError   bool
	}{
		{
			name:   "succeeded",
			args:   []string{"run", baker.MakeCurrentElectionsParquet, "--config", configURL, "--env", "staging"},
			expect: execution.StatusSucceeded,
		},
		{
			name:       "check failed",
			args:       []string{"run", baker.MakeAddressBasePartitioned, "--config", configURL, "--fixtures", fixturesURL},
			expect:     execution.StatusFailed,
			expectKind: "MultipleSourcesDetected",
			hasError:   true,
		},
		{
			name:       "blocked action",
			args:       []string{"run", baker.MakeCurrentElectionsParquet, "--config", configURL, "--block", "function.invoke"},
			expect:     execution.StatusFailed,
			expectKind: "TaskExecutionFailed",
			hasError:   true,
		},
		{
			name:   "skipped action",
			args:   []string{"run", baker.MakeCurrentElectionsParquet, "--config", configURL, "--block", "storage.cleanup", "--skip-blocked"},
			expect: execution.StatusSucceeded,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output, err := execute(t, tc.args...)
			if tc.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			report := &execution.Report{}
			require.NoError(t, json.Unmarshal([]byte(output), report))
			assert.Equal(t, tc.expect, report.Status)
			assert.EqualValues(t, tc.expectKind, report.ErrorKind)
		})
	}

	_, err := execute(t, "run", "unknown", "--config", configURL)
	assert.Error(t, err)
}

func TestParseSeed(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		expected map[string]interface{}
		hasError bool
	}{
		{name: "empty", expected: map[string]interface{}{}},
		{
			name:     "typed",
			args:     []string{"dc_environment=staging", "limit=5", "dry=true"},
			expected: map[string]interface{}{"dc_environment": "staging", "limit": 5, "dry": true},
		},
		{name: "value with equals", args: []string{"query=a=b"}, expected: map[string]interface{}{"query": "a=b"}},
		{name: "missing value", args: []string{"letters"}, hasError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := parseSeed(tc.args)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}
