package executor

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lakeflow/extension"
	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/policy"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/action/nop"
)

type jobInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type jobOutput struct {
	JobID string `json:"jobId"`
	Rows  [][]string
}

func (o *jobOutput) Handle() string { return o.JobID }

// jobService starts fake asynchronous jobs whose status follows states
type jobService struct {
	mux    sync.Mutex
	calls  int
	inputs []*jobInput
	states []types.State
	polls  int
	err    error
}

func (s *jobService) Name() string { return "job" }

func (s *jobService) Methods() types.Signatures {
	return []types.Signature{{Name: "start", Input: reflect.TypeOf(&jobInput{}), Output: reflect.TypeOf(&jobOutput{})}}
}

func (s *jobService) Method(name string) (types.Executable, error) {
	if name != "start" {
		return nil, types.NewMethodNotFoundError(name)
	}
	return func(ctx context.Context, in, out interface{}) error {
		s.mux.Lock()
		defer s.mux.Unlock()
		s.calls++
		if s.err != nil {
			return s.err
		}
		input := in.(*jobInput)
		s.inputs = append(s.inputs, input)
		output := out.(*jobOutput)
		output.JobID = "job-1"
		output.Rows = [][]string{{"100", "99"}}
		return nil
	}, nil
}

func (s *jobService) Status(ctx context.Context, method, handle string) (*types.Status, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.polls++
	if len(s.states) == 0 {
		return &types.Status{State: types.StateRunning}, nil
	}
	state := s.states[0]
	if len(s.states) > 1 {
		s.states = s.states[1:]
	}
	return &types.Status{State: state, Reason: "reason"}, nil
}

func newTask(blocking bool, timeout string) *graph.Node {
	node := graph.NewTask("start job", "job", "start", map[string]interface{}{
		"query": "SELECT * FROM {table_name}",
		"limit": 10,
	}).WithAssign("source_count", "{result.Rows[0][0]}").WithAssign("job_id", "{result.jobId}")
	if blocking {
		node.WithBlocking(timeout)
	}
	return node
}

func TestService_Execute(t *testing.T) {
	testCases := []struct {
		name        string
		node        *graph.Node
		states      []types.State
		seed        map[string]interface{}
		serviceErr  error
		expectKind  failure.Kind
		expectCalls int
		expectState map[string]interface{}
	}{
		{
			name:        "non blocking",
			node:        newTask(false, ""),
			seed:        map[string]interface{}{"table_name": "addressbase_cleaned_raw"},
			expectCalls: 1,
			expectState: map[string]interface{}{"source_count": "100", "job_id": "job-1"},
		},
		{
			name:        "blocking succeeded",
			node:        newTask(true, "1s"),
			states:      []types.State{types.StateQueued, types.StateRunning, types.StateSucceeded},
			seed:        map[string]interface{}{"table_name": "addressbase_cleaned_raw"},
			expectCalls: 1,
			expectState: map[string]interface{}{"source_count": "100", "job_id": "job-1"},
		},
		{
			name:        "blocking failed",
			node:        newTask(true, "1s"),
			states:      []types.State{types.StateRunning, types.StateFailed},
			seed:        map[string]interface{}{"table_name": "addressbase_cleaned_raw"},
			expectCalls: 1,
			expectKind:  failure.TaskExecutionFailed,
		},
		{
			name:        "blocking cancelled",
			node:        newTask(true, "1s"),
			states:      []types.State{types.StateCancelled},
			seed:        map[string]interface{}{"table_name": "addressbase_cleaned_raw"},
			expectCalls: 1,
			expectKind:  failure.TaskExecutionFailed,
		},
		{
			name:        "blocking timeout",
			node:        newTask(true, "30ms"),
			seed:        map[string]interface{}{"table_name": "addressbase_cleaned_raw"},
			expectCalls: 1,
			expectKind:  failure.TaskTimeout,
		},
		{
			name:        "unresolved placeholder before call",
			node:        newTask(false, ""),
			expectCalls: 0,
			expectKind:  failure.UnresolvedPlaceholder,
		},
		{
			name:        "executor error",
			node:        newTask(false, ""),
			seed:        map[string]interface{}{"table_name": "t"},
			serviceErr:  errors.New("access denied"),
			expectCalls: 1,
			expectKind:  failure.TaskExecutionFailed,
		},
		{
			name:       "unknown service",
			node:       graph.NewTask("x", "unknown", "start", nil),
			expectKind: failure.InvalidDefinition,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			job := &jobService{states: tc.states, err: tc.serviceErr}
			srv := New(extension.NewActions(job), WithPollInterval(time.Millisecond))
			state := execution.NewState(tc.seed)
			assigned, err := srv.Execute(context.Background(), tc.node, state)
			assert.Equal(t, tc.expectCalls, job.calls)
			if tc.expectKind != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectKind, failure.KindOf(err))
				assert.False(t, state.Has("source_count"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectState, assigned)
			for k, v := range tc.expectState {
				actual, ok := state.Get(k)
				assert.True(t, ok)
				assert.Equal(t, v, actual)
			}
			require.Len(t, job.inputs, 1)
			assert.Equal(t, "SELECT * FROM addressbase_cleaned_raw", job.inputs[0].Query)
			assert.Equal(t, 10, job.inputs[0].Limit)
		})
	}
}

func TestService_ExecuteNotPollable(t *testing.T) {
	srv := New(extension.NewActions(nop.New()), WithPollInterval(time.Millisecond))
	node := graph.NewTask("echo", "nop", "echo", map[string]interface{}{"a": 1}).WithBlocking("")
	_, err := srv.Execute(context.Background(), node, execution.NewState(nil))
	require.Error(t, err)
	assert.Equal(t, failure.InvalidDefinition, failure.KindOf(err))
	assert.True(t, errors.Is(err, ErrNotPollable))
}

func TestService_ExecuteListener(t *testing.T) {
	var names []string
	srv := New(extension.NewActions(nop.New()), WithListener(func(node *graph.Node, input, output interface{}) {
		names = append(names, node.Name)
	}))
	node := graph.NewTask("echo", "nop", "echo", map[string]interface{}{"letters": []interface{}{"A", "B"}}).
		WithAssign("letters", "{result.values.letters}")
	state := execution.NewState(nil)
	_, err := srv.Execute(context.Background(), node, state)
	require.NoError(t, err)
	letters, _ := state.Get("letters")
	assert.Equal(t, []interface{}{"A", "B"}, letters)
	assert.Equal(t, []string{"echo"}, names)
}

func TestService_ExecutePolicy(t *testing.T) {
	testCases := []struct {
		name        string
		policy      *policy.Policy
		inContext   bool
		expectCalls int
		expectKind  failure.Kind
	}{
		{name: "allowed", policy: &policy.Policy{AllowList: []string{"job.start"}}, expectCalls: 1},
		{name: "denied", policy: &policy.Policy{BlockList: []string{"job.start"}}, expectKind: failure.TaskExecutionFailed},
		{name: "skipped", policy: &policy.Policy{Mode: policy.ModeSkip, BlockList: []string{"job.start"}}},
		{name: "context policy", policy: &policy.Policy{AllowList: []string{"query.submit"}}, inContext: true, expectKind: failure.TaskExecutionFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			job := &jobService{}
			options := []Option{WithPollInterval(time.Millisecond)}
			ctx := context.Background()
			if tc.inContext {
				ctx = policy.WithPolicy(ctx, tc.policy)
			} else {
				options = append(options, WithPolicy(tc.policy))
			}
			srv := New(extension.NewActions(job), options...)
			state := execution.NewState(map[string]interface{}{"table_name": "t"})
			_, err := srv.Execute(ctx, newTask(false, ""), state)
			assert.Equal(t, tc.expectCalls, job.calls)
			if tc.expectKind != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectKind, failure.KindOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}
