package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/dao/execution/memory"
)

type listerFunc func(ctx context.Context, pipeline string) ([]string, error)

func (f listerFunc) ListRunningExecutions(ctx context.Context, pipeline string) ([]string, error) {
	return f(ctx, pipeline)
}

func TestChecker_Check(t *testing.T) {
	testCases := []struct {
		name          string
		running       []string
		config        Config
		self          string
		expectProceed bool
		expectRunning []string
	}{
		{name: "only self", running: []string{"e1"}, self: "e1", expectProceed: true},
		{name: "nothing running", self: "e1", expectProceed: true},
		{name: "another running", running: []string{"e0", "e1"}, self: "e1", expectRunning: []string{"e0"}},
		{name: "newer running strict", running: []string{"e1", "e2"}, self: "e1", expectRunning: []string{"e2"}},
		{name: "newer running oldest wins", running: []string{"e1", "e2"}, self: "e1", config: Config{OldestWins: true}, expectProceed: true, expectRunning: []string{"e2"}},
		{name: "older running oldest wins", running: []string{"e0", "e1"}, self: "e1", config: Config{OldestWins: true}, expectRunning: []string{"e0"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checker := New(listerFunc(func(ctx context.Context, pipeline string) ([]string, error) {
				return tc.running, nil
			}), tc.config, nil)
			decision, err := checker.Check(context.Background(), "property", tc.self)
			require.NoError(t, err)
			assert.Equal(t, tc.expectProceed, decision.Proceed)
			assert.Equal(t, tc.expectRunning, decision.Running)
			if !tc.expectProceed {
				assert.Equal(t, RejectionMessage, decision.Message)
			}
		})
	}
}

func TestChecker_ListerError(t *testing.T) {
	checker := New(listerFunc(func(ctx context.Context, pipeline string) ([]string, error) {
		return nil, errors.New("throttled")
	}), Config{}, nil)
	_, err := checker.Check(context.Background(), "property", "e1")
	assert.Error(t, err)
}

func TestLister(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	for _, item := range []struct {
		id       string
		pipeline string
		start    bool
	}{
		{"a", "property", true},
		{"b", "property", false},
		{"c", "boundaries", true},
		{"d", "property", true},
	} {
		anExecution := execution.New(item.id, item.pipeline, nil)
		if item.start {
			require.NoError(t, anExecution.Start())
		}
		require.NoError(t, store.Save(ctx, anExecution))
	}
	finished, err := store.Load(ctx, "d")
	require.NoError(t, err)
	require.NoError(t, finished.Succeed())
	require.NoError(t, store.Save(ctx, finished))

	ids, err := NewLister(store).ListRunningExecutions(ctx, "property")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}
