package lakeflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/viant/lakeflow/internal/yml"
	"github.com/viant/lakeflow/model"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/catalog"
	"github.com/viant/lakeflow/service/dao"
	"github.com/viant/lakeflow/service/meta"
	"github.com/viant/lakeflow/service/processor"
	"github.com/viant/lakeflow/service/trigger"
)

// ErrPipelineNotFound is returned for unregistered pipeline names
var ErrPipelineNotFound = errors.New("pipeline not found")

// Runtime represents a pipeline engine runtime
type Runtime struct {
	mu           sync.RWMutex
	pipelines    map[string]*model.Pipeline
	processor    *processor.Service
	executionDAO dao.Service[string, execution.Execution]
	catalog      *catalog.Catalog
	metaService  *meta.Service
	trigger      *trigger.Service
	environment  string
	logger       *slog.Logger
	running      sync.WaitGroup
}

var _ trigger.Starter = (*Runtime)(nil)

// Register validates and registers pipelines; their tables are added to the catalog
func (r *Runtime) Register(pipelines ...*model.Pipeline) error {
	for _, pipeline := range pipelines {
		if err := pipeline.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pipeline := range pipelines {
		r.pipelines[pipeline.Name] = pipeline
		r.catalog.RegisterStack(pipeline)
	}
	return nil
}

// Pipeline returns registered pipeline
func (r *Runtime) Pipeline(name string) (*model.Pipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret, ok := r.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrPipelineNotFound, name)
	}
	return ret, nil
}

// Pipelines returns registered pipelines sorted by name
func (r *Runtime) Pipelines() []*model.Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*model.Pipeline, 0, len(r.pipelines))
	for _, pipeline := range r.pipelines {
		result = append(result, pipeline)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// LoadPipeline loads and registers a YAML or JSON pipeline definition
func (r *Runtime) LoadPipeline(ctx context.Context, location string) (*model.Pipeline, error) {
	ret := &model.Pipeline{}
	if err := r.metaService.Load(ctx, location, ret); err != nil {
		return nil, err
	}
	ret.Source = &model.Source{URL: r.metaService.URL(location)}
	if err := r.Register(ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// DecodeYAMLPipeline decodes a YAML pipeline definition without registering it
func (r *Runtime) DecodeYAMLPipeline(data []byte) (*model.Pipeline, error) {
	node, err := yml.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pipeline: %w", err)
	}
	ret := &model.Pipeline{}
	if err = node.Decode(ret); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}
	return ret, ret.Validate()
}

// seed adds the deployment environment unless the caller supplied one
func (r *Runtime) seed(values map[string]interface{}) map[string]interface{} {
	ret := make(map[string]interface{}, len(values)+1)
	for k, v := range values {
		ret[k] = v
	}
	if _, ok := ret[model.EnvironmentKey]; !ok && r.environment != "" {
		ret[model.EnvironmentKey] = r.environment
	}
	return ret
}

// Trigger starts a pipeline run in the background and returns the execution id
func (r *Runtime) Trigger(ctx context.Context, name string, seed map[string]interface{}) (string, error) {
	pipeline, err := r.Pipeline(name)
	if err != nil {
		return "", err
	}
	anExecution, err := r.processor.Create(ctx, pipeline, r.seed(seed))
	if err != nil {
		return "", err
	}
	runCtx := context.WithoutCancel(ctx)
	r.running.Add(1)
	go func() {
		defer r.running.Done()
		if err := r.processor.Execute(runCtx, pipeline, anExecution); err != nil {
			r.logger.Error("failed to run pipeline", slog.String("pipeline", name), slog.String("execution", anExecution.ID), slog.Any("error", err))
		}
	}()
	return anExecution.ID, nil
}

// Run runs a pipeline to completion and returns its report
func (r *Runtime) Run(ctx context.Context, name string, seed map[string]interface{}) (*execution.Report, error) {
	pipeline, err := r.Pipeline(name)
	if err != nil {
		return nil, err
	}
	anExecution, err := r.processor.Run(ctx, pipeline, r.seed(seed))
	if err != nil {
		return nil, err
	}
	return anExecution.Report(), nil
}

// Publish enqueues a run request consumed once the runtime is started
func (r *Runtime) Publish(ctx context.Context, message *trigger.Message) error {
	return r.trigger.Publish(ctx, message)
}

// Wait polls the execution store until the execution reaches a terminal status
func (r *Runtime) Wait(ctx context.Context, id string, timeout time.Duration) (*execution.Execution, error) {
	deadline := time.Now().Add(timeout)
	for {
		anExecution, err := r.executionDAO.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if anExecution.Status.IsTerminal() {
			return anExecution, nil
		}
		if time.Now().After(deadline) {
			return anExecution, fmt.Errorf("timeout waiting for execution %q", id)
		}
		select {
		case <-ctx.Done():
			return anExecution, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Execution returns an execution
func (r *Runtime) Execution(ctx context.Context, id string) (*execution.Execution, error) {
	return r.executionDAO.Load(ctx, id)
}

// Executions returns executions matching parameters
func (r *Runtime) Executions(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	return r.executionDAO.List(ctx, parameters...)
}

// Start starts consuming run requests
func (r *Runtime) Start(ctx context.Context) error {
	return r.trigger.Start(ctx)
}

// Shutdown stops consuming run requests and waits for background runs
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.trigger.Shutdown()
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
