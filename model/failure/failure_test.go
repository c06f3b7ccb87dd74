package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	testCases := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "kind only",
			err:      &Error{Kind: TaskTimeout},
			expected: "TaskTimeout",
		},
		{
			name:     "node and message",
			err:      &Error{Kind: TaskExecutionFailed, Node: "partition", Message: "query failed"},
			expected: "TaskExecutionFailed at partition: query failed",
		},
		{
			name:     "values are sorted",
			err:      &Error{Kind: RowCountMismatch, Node: "check", Values: map[string]interface{}{"target_count": "99", "source_count": "100"}},
			expected: "RowCountMismatch at check [source_count=100, target_count=99]",
		},
		{
			name:     "cause",
			err:      Wrap(TaskExecutionFailed, fmt.Errorf("boom")),
			expected: "TaskExecutionFailed: boom",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestBranches(t *testing.T) {
	err := Branches("gate", []*Error{
		{Kind: RowCountMismatch, Node: "row count"},
		{Kind: MultipleSourcesDetected, Node: "addressbase source"},
	})
	assert.Equal(t, BranchFailure, err.Kind)
	assert.Equal(t, []string{"addressbase source", "row count"}, err.BranchNames())
	assert.Contains(t, err.Error(), "2 branch(es) failed")
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", New(ConcurrentExecution, "AnotherExecutionRunning"))
	assert.Equal(t, ConcurrentExecution, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, ConcurrentExecution))
	assert.True(t, errors.Is(wrapped, &Error{Kind: ConcurrentExecution}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: TaskTimeout}))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, TaskExecutionFailed, As(errors.New("plain")).Kind)
	assert.Nil(t, As(nil))
}
