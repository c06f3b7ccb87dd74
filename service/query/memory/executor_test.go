package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/service/meta"
	"github.com/viant/lakeflow/service/query"
)

func TestExecutor(t *testing.T) {
	executor := New(
		&Fixture{Name: "row_count", Columns: []string{"source_count", "target_count"}, Rows: [][]string{{"100", "99"}}, Polls: 2},
		&Fixture{Match: "MSCK REPAIR", State: types.StateFailed, Reason: "no table"},
		&Fixture{Match: "broken", Error: "syntax error"},
	)
	ctx := context.Background()
	testCases := []struct {
		name        string
		request     *query.Request
		expectState types.State
		expectPolls int
		expectRows  [][]string
		submitError bool
	}{
		{
			name:        "by name",
			request:     &query.Request{Name: "row_count", Text: "WITH ..."},
			expectState: types.StateSucceeded,
			expectPolls: 2,
			expectRows:  [][]string{{"source_count", "target_count"}, {"100", "99"}},
		},
		{name: "by fragment", request: &query.Request{Text: "MSCK REPAIR TABLE `t`;"}, expectState: types.StateFailed},
		{name: "default", request: &query.Request{Text: "SELECT 1"}, expectState: types.StateSucceeded},
		{name: "submit error", request: &query.Request{Text: "broken"}, submitError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := executor.Submit(ctx, tc.request)
			if tc.submitError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			polls := 0
			for {
				status, err := executor.Status(ctx, id)
				require.NoError(t, err)
				if status.IsTerminal() {
					assert.Equal(t, tc.expectState, status.State)
					break
				}
				polls++
			}
			assert.Equal(t, tc.expectPolls, polls)
			if tc.expectState != types.StateSucceeded {
				_, err = executor.Results(ctx, id)
				assert.Error(t, err)
				return
			}
			results, err := executor.Results(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tc.expectRows, results.Rows)
		})
	}
	assert.Equal(t, 4, executor.Calls(""))
	assert.Equal(t, 1, executor.Calls("row_count"))
	assert.Equal(t, 1, executor.MaxInFlight())
	_, err := executor.Status(ctx, "unknown")
	assert.True(t, errors.Is(err, query.ErrQueryNotFound))
}

func TestExecutor_Load(t *testing.T) {
	fs := afs.New()
	ctx := context.Background()
	URL := "mem://localhost/fixtures/dry-run.yaml"
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(`
fixtures:
  - name: source_uniqueness
    columns: [source_files]
    rows: [["1"]]
`)))
	executor := New()
	require.NoError(t, executor.Load(ctx, meta.New(fs, ""), URL))
	id, err := executor.Submit(ctx, &query.Request{Name: "source_uniqueness"})
	require.NoError(t, err)
	results, err := executor.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"source_files"}, {"1"}}, results.Rows)
}
