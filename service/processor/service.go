package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/lakeflow/internal/idgen"
	"github.com/viant/lakeflow/model"
	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/progress"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/dao"
	"github.com/viant/lakeflow/service/guard"
	"github.com/viant/lakeflow/tracing"
)

type (
	// TaskExecutor executes a task node against run state
	TaskExecutor interface {
		Execute(ctx context.Context, node *graph.Node, state *execution.State) (map[string]interface{}, error)
	}

	// Guard decides whether an execution may run a guarded body
	Guard interface {
		Check(ctx context.Context, pipeline, executionID string) (*guard.Decision, error)
	}
)

// Config represents driver configuration
type Config struct {
	// DefaultMaxConcurrency applies to maps that do not declare one; 0 means unbounded
	DefaultMaxConcurrency int `json:"defaultMaxConcurrency,omitempty" yaml:"defaultMaxConcurrency,omitempty"`
}

// DefaultConfig returns the default driver configuration
func DefaultConfig() Config {
	return Config{}
}

// Service drives pipeline executions
type Service struct {
	config         Config
	executor       TaskExecutor
	guard          Guard
	executionDAO   dao.Service[string, execution.Execution]
	stateListeners []execution.StateListener
	onProgress     func(progress.Progress)
	logger         *slog.Logger
	newID          func() string
}

// frame carries per node walking context
type frame struct {
	execution *execution.Execution
	state     *execution.State
	path      string
	iteration *int
	// main is true on the sequential path of the root, where position is tracked
	main bool
}

func (f *frame) child(path string) *frame {
	return &frame{execution: f.execution, state: f.state, path: path, main: f.main}
}

// New creates a pipeline driver
func New(options ...Option) (*Service, error) {
	s := &Service{
		config: DefaultConfig(),
		logger: slog.Default(),
		newID:  idgen.New,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.executor == nil {
		return nil, fmt.Errorf("task executor is required")
	}
	if s.executionDAO == nil {
		return nil, fmt.Errorf("execution DAO is required")
	}
	return s, nil
}

// Create creates and persists a pending execution; seed overrides pipeline seed values
func (s *Service) Create(ctx context.Context, pipeline *model.Pipeline, seed map[string]interface{}) (*execution.Execution, error) {
	if pipeline == nil || pipeline.Root == nil {
		return nil, fmt.Errorf("pipeline definition was empty")
	}
	state := execution.NewState(pipeline.Seed)
	state.Merge(seed)
	state.RegisterListeners(s.stateListeners...)
	anExecution := execution.New(s.newID(), pipeline.Name, state)
	if err := s.executionDAO.Save(ctx, anExecution); err != nil {
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}
	return anExecution, nil
}

// Run creates an execution and drives it to a terminal status
func (s *Service) Run(ctx context.Context, pipeline *model.Pipeline, seed map[string]interface{}) (*execution.Execution, error) {
	anExecution, err := s.Create(ctx, pipeline, seed)
	if err != nil {
		return nil, err
	}
	return anExecution, s.Execute(ctx, pipeline, anExecution)
}

// Execute drives a pending execution to a terminal status. The returned error reports
// persistence problems only; pipeline failures are recorded on the execution.
func (s *Service) Execute(ctx context.Context, pipeline *model.Pipeline, anExecution *execution.Execution) (err error) {
	ctx, span := tracing.StartPipelineSpan(ctx, pipeline.Name, anExecution.ID)
	defer func() {
		var spanErr error
		if report := anExecution.Report(); report.Error != nil {
			spanErr = report.Error
		}
		tracing.EndSpan(span, spanErr)
	}()

	logger := s.logger.With(slog.String("pipeline", pipeline.Name), slog.String("execution", anExecution.ID))
	if err = anExecution.Start(); err != nil {
		return err
	}
	if err = s.save(ctx, anExecution); err != nil {
		_ = anExecution.Fail(err)
		_ = s.save(ctx, anExecution)
		return err
	}
	logger.Info("execution started")

	ctx = execution.WithExecution(ctx, anExecution)
	ctx, tracker := progress.WithNewTracker(ctx, anExecution.ID, pipeline.Name, s.onProgress)
	runErr := s.run(ctx, &frame{execution: anExecution, state: anExecution.State, main: true}, pipeline.Root)
	switch {
	case runErr == nil:
		err = anExecution.Succeed()
	case failure.IsKind(runErr, failure.ConcurrentExecution):
		err = anExecution.Abort(runErr)
	default:
		err = anExecution.Fail(runErr)
	}
	if err != nil {
		return err
	}
	report := anExecution.Report()
	counters := tracker.Snapshot()
	tasks := slog.Group("tasks", slog.Int("completed", counters.CompletedTasks), slog.Int("failed", counters.FailedTasks))
	if report.ErrorKind != "" {
		logger.Warn("execution finished", slog.String("status", string(report.Status)), slog.String("errorKind", string(report.ErrorKind)), slog.String("failedNode", report.FailedNode), slog.String("error", report.ErrorDetail), tasks)
	} else {
		logger.Info("execution finished", slog.String("status", string(report.Status)), tasks)
	}
	return s.save(ctx, anExecution)
}

func (s *Service) save(ctx context.Context, anExecution *execution.Execution) error {
	if err := s.executionDAO.Save(ctx, anExecution); err != nil {
		return fmt.Errorf("failed to save execution %v: %w", anExecution.ID, err)
	}
	return nil
}

// run executes a node, recording its trace entry and span
func (s *Service) run(ctx context.Context, f *frame, node *graph.Node) (err error) {
	path := graph.Path(f.path, node.Name)
	ctx, span := tracing.StartNodeSpan(ctx, string(node.Kind), node.Name, path, f.execution.ID)
	result := f.execution.Begin(path, node.Name, string(node.Kind), f.iteration)
	defer func() {
		if r := recover(); r != nil {
			err = failure.Newf(failure.TaskExecutionFailed, "panic: %v", r)
		}
		if err != nil {
			err = failure.As(err).WithNode(node.Name)
		}
		f.execution.End(result, err)
		tracing.EndSpan(span, err)
	}()

	child := f.child(path)
	switch node.Kind {
	case graph.KindTask:
		err = s.runTask(ctx, child, node)
	case graph.KindChain:
		err = s.runChain(ctx, child, node)
	case graph.KindParallel:
		err = s.runParallel(ctx, child, node)
	case graph.KindMap:
		err = s.runMap(ctx, child, node)
	case graph.KindChoice:
		err = s.runChoice(ctx, child, node)
	case graph.KindGuard:
		err = s.runGuard(ctx, child, node)
	case graph.KindSucceed:
	case graph.KindFail:
		err = s.runFail(child, node)
	default:
		err = failure.Newf(failure.InvalidDefinition, "unsupported node kind %q", node.Kind)
	}
	return err
}

func (s *Service) runTask(ctx context.Context, f *frame, node *graph.Node) error {
	progress.UpdateCtx(ctx, progress.Delta{Started: 1, Running: 1})
	assigned, err := s.executor.Execute(ctx, node, f.state)
	if err != nil {
		progress.UpdateCtx(ctx, progress.Delta{Failed: 1, Running: -1})
		s.logger.Warn("task failed", slog.String("execution", f.execution.ID), slog.String("path", f.path), slog.Any("error", err))
		return err
	}
	progress.UpdateCtx(ctx, progress.Delta{Completed: 1, Running: -1})
	s.logger.Debug("task completed", slog.String("execution", f.execution.ID), slog.String("path", f.path), slog.Int("assigned", len(assigned)))
	return nil
}

func (s *Service) runChain(ctx context.Context, f *frame, node *graph.Node) error {
	for _, child := range node.Nodes {
		if f.main {
			f.execution.SetPosition(graph.Path(f.path, child.Name))
		}
		if err := s.run(ctx, f, child); err != nil {
			return err
		}
	}
	return nil
}

// ErrNoChoiceMatched is reported by a choice without a matching rule or default
var ErrNoChoiceMatched = errors.New("no choice rule matched")
