package processor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lakeflow/extension"
	"github.com/viant/lakeflow/model"
	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/progress"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/action/nop"
	"github.com/viant/lakeflow/service/dao/execution/memory"
	"github.com/viant/lakeflow/service/executor"
	"github.com/viant/lakeflow/service/guard"
	"github.com/viant/toolbox"
)

type recorderOutput struct {
	Values map[string]interface{} `json:"values"`
}

// recorder records calls and the number of simultaneous invocations
type recorder struct {
	mu          sync.Mutex
	calls       []string
	inFlight    int
	maxInFlight int
	delay       time.Duration
	fail        map[string]bool
}

func (p *recorder) Name() string { return "recorder" }

func (p *recorder) Methods() types.Signatures {
	return []types.Signature{{Name: "run", Input: reflect.TypeOf(map[string]interface{}{}), Output: reflect.TypeOf(&recorderOutput{})}}
}

func (p *recorder) Method(name string) (types.Executable, error) {
	if name != "run" {
		return nil, types.NewMethodNotFoundError(name)
	}
	return func(ctx context.Context, in, out interface{}) error {
		input := in.(map[string]interface{})
		name := toolbox.AsString(input["name"])
		p.mu.Lock()
		p.inFlight++
		if p.inFlight > p.maxInFlight {
			p.maxInFlight = p.inFlight
		}
		p.mu.Unlock()
		time.Sleep(p.delay)
		p.mu.Lock()
		p.inFlight--
		p.calls = append(p.calls, name)
		failing := p.fail[name]
		p.mu.Unlock()
		if failing {
			return errors.New(name + " failed")
		}
		out.(*recorderOutput).Values = input
		return nil
	}, nil
}

func (p *recorder) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func step(name string) *graph.Node {
	return graph.NewTask(name, "recorder", "run", map[string]interface{}{"name": name})
}

func newDriver(t *testing.T, p *recorder, options ...Option) (*Service, *memory.Service) {
	store := memory.New()
	actions := extension.NewActions(p, nop.New())
	options = append([]Option{
		WithExecutionDAO(store),
		WithTaskExecutor(executor.New(actions, executor.WithPollInterval(time.Millisecond))),
		WithGuard(guard.New(guard.NewLister(store), guard.Config{}, nil)),
	}, options...)
	srv, err := New(options...)
	require.NoError(t, err)
	return srv, store
}

func pipelineOf(root *graph.Node) *model.Pipeline {
	return &model.Pipeline{Name: "test", Root: root}
}

func TestService_Chain(t *testing.T) {
	testCases := []struct {
		name        string
		fail        map[string]bool
		expectCalls []string
		expectNode  string
	}{
		{name: "all succeed", expectCalls: []string{"a", "b", "c"}},
		{name: "second fails", fail: map[string]bool{"b": true}, expectCalls: []string{"a", "b"}, expectNode: "b"},
		{name: "first fails", fail: map[string]bool{"a": true}, expectCalls: []string{"a"}, expectNode: "a"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &recorder{fail: tc.fail}
			srv, store := newDriver(t, p)
			anExecution, err := srv.Run(context.Background(), pipelineOf(graph.NewChain("main", step("a"), step("b"), step("c"))), nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expectCalls, p.Calls())
			persisted, err := store.Load(context.Background(), anExecution.ID)
			require.NoError(t, err)
			if tc.expectNode == "" {
				assert.Equal(t, execution.StatusSucceeded, persisted.Status)
				assert.Equal(t, []execution.Status{execution.StatusPending, execution.StatusRunning, execution.StatusSucceeded}, persisted.Transitions)
				return
			}
			assert.Equal(t, execution.StatusFailed, persisted.Status)
			assert.Equal(t, []execution.Status{execution.StatusPending, execution.StatusRunning, execution.StatusFailed}, persisted.Transitions)
			report := persisted.Report()
			assert.Equal(t, failure.TaskExecutionFailed, report.ErrorKind)
			assert.Equal(t, tc.expectNode, report.FailedNode)
			assert.Contains(t, report.ErrorDetail, tc.expectNode+" failed")
			assert.Empty(t, persisted.Results("c"))
			assert.Equal(t, "main/"+tc.expectNode, persisted.Position)
		})
	}
}

func TestService_Parallel(t *testing.T) {
	testCases := []struct {
		name         string
		fail         map[string]bool
		expectFailed []string
	}{
		{name: "all succeed"},
		{name: "one fails", fail: map[string]bool{"b2": true}, expectFailed: []string{"b2"}},
		{name: "two fail", fail: map[string]bool{"b1": true, "b4": true}, expectFailed: []string{"b1", "b4"}},
		{name: "all fail", fail: map[string]bool{"b1": true, "b2": true, "b3": true, "b4": true}, expectFailed: []string{"b1", "b2", "b3", "b4"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &recorder{fail: tc.fail, delay: 5 * time.Millisecond}
			srv, _ := newDriver(t, p)
			var branches []*graph.Node
			for i := 1; i <= 4; i++ {
				name := fmt.Sprintf("b%d", i)
				branches = append(branches, step(name).WithAssign("written_by_"+name, "{result.values.name}"))
			}
			anExecution, err := srv.Run(context.Background(), pipelineOf(graph.NewParallel("checks", branches...)), map[string]interface{}{"seeded": true})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"b1", "b2", "b3", "b4"}, p.Calls())
			assert.Equal(t, []string{"seeded"}, anExecution.State.Keys())
			if len(tc.expectFailed) == 0 {
				assert.Equal(t, execution.StatusSucceeded, anExecution.Status)
				return
			}
			assert.Equal(t, execution.StatusFailed, anExecution.Status)
			require.NotNil(t, anExecution.Error)
			assert.Equal(t, failure.BranchFailure, anExecution.Error.Kind)
			assert.Equal(t, "checks", anExecution.Error.Node)
			assert.Equal(t, tc.expectFailed, anExecution.Error.BranchNames())
		})
	}
}

func TestService_Map(t *testing.T) {
	letters := []interface{}{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	testCases := []struct {
		name           string
		items          interface{}
		maxConcurrency int
		fail           map[string]bool
		expectCalls    int
		expectFailed   []string
	}{
		{name: "empty list", items: []interface{}{}, maxConcurrency: 2},
		{name: "nil list", items: nil},
		{name: "bounded", items: letters, maxConcurrency: 3, expectCalls: 12},
		{name: "unbounded", items: letters, expectCalls: 12},
		{name: "string list", items: []string{"x", "y"}, maxConcurrency: 1, expectCalls: 2},
		{
			name:           "failures collected",
			items:          letters,
			maxConcurrency: 4,
			fail:           map[string]bool{"B": true, "K": true},
			expectCalls:    12,
			expectFailed:   []string{"letters[10]", "letters[1]"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &recorder{fail: tc.fail, delay: 3 * time.Millisecond}
			srv, _ := newDriver(t, p)
			template := graph.NewTask("partition", "recorder", "run", map[string]interface{}{"name": "{first_letter}"}).
				WithAssign("partition_done", "{result.values.name}")
			root := graph.NewMap("letters", "{letters}", tc.maxConcurrency, template).WithSeed("first_letter", "{item}")
			anExecution, err := srv.Run(context.Background(), pipelineOf(root), map[string]interface{}{"letters": tc.items})
			require.NoError(t, err)
			assert.Len(t, p.Calls(), tc.expectCalls)
			assert.Len(t, anExecution.Results("partition"), tc.expectCalls)
			if tc.maxConcurrency > 0 {
				assert.LessOrEqual(t, p.maxInFlight, tc.maxConcurrency)
			}
			for _, key := range []string{"item", "item_index", "first_letter", "partition_done"} {
				assert.False(t, anExecution.State.Has(key), key)
			}
			if len(tc.expectFailed) == 0 {
				assert.Equal(t, execution.StatusSucceeded, anExecution.Status)
				return
			}
			assert.Equal(t, failure.BranchFailure, anExecution.Error.Kind)
			assert.Equal(t, tc.expectFailed, anExecution.Error.BranchNames())
		})
	}
}

func TestService_MapItemsNotList(t *testing.T) {
	srv, _ := newDriver(t, &recorder{})
	anExecution, err := srv.Run(context.Background(), pipelineOf(graph.NewMap("m", "{items}", 0, step("x"))), map[string]interface{}{"items": "abc"})
	require.NoError(t, err)
	assert.Equal(t, failure.InvalidDefinition, anExecution.Error.Kind)
}

func TestService_Choice(t *testing.T) {
	gate := graph.NewChoice("counts match",
		graph.NewFail("mismatch", failure.RowCountMismatch, "source {source_count} != target {target_count}", "source_count", "target_count"),
		graph.WhenRef("source_count", "eq", "target_count", graph.NewSucceed("ok")),
	)
	testCases := []struct {
		name         string
		seed         map[string]interface{}
		expectKind   failure.Kind
		expectValues map[string]interface{}
		expectCause  string
	}{
		{name: "equal", seed: map[string]interface{}{"source_count": "100", "target_count": "100"}},
		{
			name:         "mismatch",
			seed:         map[string]interface{}{"source_count": "100", "target_count": "99"},
			expectKind:   failure.RowCountMismatch,
			expectValues: map[string]interface{}{"source_count": "100", "target_count": "99"},
			expectCause:  "source 100 != target 99",
		},
		{name: "missing variable", seed: map[string]interface{}{"target_count": "1"}, expectKind: failure.UnresolvedPlaceholder},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newDriver(t, &recorder{})
			anExecution, err := srv.Run(context.Background(), pipelineOf(graph.NewChain("main", gate)), tc.seed)
			require.NoError(t, err)
			report := anExecution.Report()
			if tc.expectKind == "" {
				assert.Equal(t, execution.StatusSucceeded, report.Status)
				return
			}
			assert.Equal(t, execution.StatusFailed, report.Status)
			assert.Equal(t, tc.expectKind, report.ErrorKind)
			if tc.expectValues != nil {
				assert.Equal(t, tc.expectValues, report.Values)
				assert.Equal(t, "mismatch", report.FailedNode)
				assert.Equal(t, tc.expectCause, anExecution.Error.Message)
			}
		})
	}
}

func TestService_Guard(t *testing.T) {
	ctx := context.Background()
	p := &recorder{}
	srv, store := newDriver(t, p)
	pipeline := &model.Pipeline{Name: "singleton", Root: graph.NewGuard("guard", "", graph.NewChain("main", step("body")))}

	other := execution.New("other", "singleton", nil)
	require.NoError(t, other.Start())
	require.NoError(t, store.Save(ctx, other))

	rejected, err := srv.Run(ctx, pipeline, nil)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusAborted, rejected.Status)
	assert.Equal(t, []execution.Status{execution.StatusPending, execution.StatusRunning, execution.StatusAborted}, rejected.Transitions)
	assert.Equal(t, failure.ConcurrentExecution, rejected.Report().ErrorKind)
	assert.Equal(t, guard.RejectionMessage, rejected.Error.Message)
	assert.Empty(t, p.Calls())

	require.NoError(t, other.Succeed())
	require.NoError(t, store.Save(ctx, other))
	accepted, err := srv.Run(ctx, pipeline, nil)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusSucceeded, accepted.Status)
	assert.Equal(t, []string{"body"}, p.Calls())
}

func TestService_GuardConcurrentRuns(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 25; round++ {
		p := &recorder{delay: 2 * time.Millisecond}
		srv, _ := newDriver(t, p)
		pipeline := &model.Pipeline{Name: "singleton", Root: graph.NewGuard("guard", "", graph.NewChain("main", step("body")))}

		var wg sync.WaitGroup
		results := make([]*execution.Execution, 2)
		errs := make([]error, 2)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = srv.Run(ctx, pipeline, nil)
			}(i)
		}
		wg.Wait()

		assert.LessOrEqual(t, len(p.Calls()), 1, "round %d", round)
		succeeded := 0
		for i, anExecution := range results {
			require.NoError(t, errs[i])
			if anExecution.Status == execution.StatusSucceeded {
				succeeded++
				continue
			}
			assert.Equal(t, execution.StatusAborted, anExecution.Status, "round %d", round)
			assert.Equal(t, failure.ConcurrentExecution, anExecution.Report().ErrorKind, "round %d", round)
		}
		assert.Equal(t, succeeded, len(p.Calls()), "round %d", round)
	}
}

func TestService_UnresolvedPlaceholder(t *testing.T) {
	p := &recorder{}
	srv, _ := newDriver(t, p)
	task := graph.NewTask("cleanup", "recorder", "run", map[string]interface{}{"name": "{table_name}"})
	anExecution, err := srv.Run(context.Background(), pipelineOf(graph.NewChain("main", task)), nil)
	require.NoError(t, err)
	assert.Equal(t, failure.UnresolvedPlaceholder, anExecution.Report().ErrorKind)
	assert.Equal(t, "cleanup", anExecution.Report().FailedNode)
	assert.Empty(t, p.Calls())
}

func TestNew(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
	_, err = New(WithTaskExecutor(executor.New(extension.NewActions())))
	assert.Error(t, err)
}

func TestService_Progress(t *testing.T) {
	var mu sync.Mutex
	var last progress.Progress
	p := &recorder{fail: map[string]bool{"x": true}}
	srv, _ := newDriver(t, p, WithProgressListener(func(snapshot progress.Progress) {
		mu.Lock()
		last = snapshot
		mu.Unlock()
	}))
	root := graph.NewChain("main",
		step("a"),
		graph.NewParallel("checks", step("b"), step("x")),
	)
	anExecution, err := srv.Run(context.Background(), pipelineOf(root), nil)
	require.NoError(t, err)
	assert.Equal(t, execution.StatusFailed, anExecution.Status)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, anExecution.ID, last.ExecutionID)
	assert.Equal(t, "test", last.Pipeline)
	assert.Equal(t, 3, last.StartedTasks)
	assert.Equal(t, 2, last.CompletedTasks)
	assert.Equal(t, 1, last.FailedTasks)
	assert.Equal(t, 0, last.RunningTasks)
}
