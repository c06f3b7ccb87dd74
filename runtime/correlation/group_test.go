package correlation

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lakeflow/model/failure"
)

func TestGroup(t *testing.T) {
	testCases := []struct {
		name          string
		expected      int
		failing       map[string]error
		expectFailed  []string
		expectMessage string
	}{
		{name: "empty", expected: 0},
		{name: "all succeeded", expected: 3},
		{
			name:         "some failed",
			expected:     4,
			failing:      map[string]error{"b1": errors.New("boom"), "b3": failure.New(failure.TaskTimeout, "late")},
			expectFailed: []string{"b1", "b3"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			group := NewGroup(tc.name, tc.expected)
			wg := sync.WaitGroup{}
			for i := 0; i < tc.expected; i++ {
				name := []string{"b0", "b1", "b2", "b3"}[i]
				wg.Add(1)
				go func() {
					defer wg.Done()
					group.MarkDone(name, tc.failing[name])
				}()
			}
			group.Wait()
			wg.Wait()
			assert.True(t, group.Done())
			assert.Equal(t, tc.expected, group.Completed())
			err := group.Err("set")
			if len(tc.expectFailed) == 0 {
				assert.NoError(t, err)
				assert.False(t, group.Failed())
				return
			}
			require.Error(t, err)
			assert.Equal(t, failure.BranchFailure, failure.KindOf(err))
			var aggregate *failure.Error
			require.True(t, errors.As(err, &aggregate))
			assert.Equal(t, tc.expectFailed, aggregate.BranchNames())
		})
	}
}

func TestGroup_BranchNaming(t *testing.T) {
	group := NewGroup("gate", 1)
	group.MarkDone("row count", &failure.Error{Kind: failure.RowCountMismatch, Node: "counts differ", Message: "100 != 99"})
	failures := group.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "row count", failures[0].Node)
	assert.Equal(t, "counts differ: 100 != 99", failures[0].Message)
	assert.Equal(t, failure.RowCountMismatch, failures[0].Kind)
	assert.False(t, group.MarkDone("late", nil))
}
