package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"time"

	"github.com/viant/lakeflow/extension"
	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/policy"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/runtime/placeholder"
	"github.com/viant/structology/conv"
)

// ResultKey is the key the task output is exposed under when evaluating assign expressions
const ResultKey = "result"

// Listener is invoked once a task action completes successfully.
type Listener func(node *graph.Node, input, output interface{})

// Config represents executor configuration
type Config struct {
	// PollInterval is the delay between status checks of blocking tasks
	PollInterval time.Duration
	// Timeout is the default blocking task timeout
	Timeout time.Duration
}

// DefaultConfig returns the default executor configuration
func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		Timeout:      10 * time.Minute,
	}
}

// Service represents a task executor.
type Service struct {
	actions   *extension.Actions
	converter *conv.Converter
	listener  Listener
	policy    *policy.Policy
	config    Config
	logger    *slog.Logger
}

// Execute executes a task node and returns the values it assigned to the run state.
func (s *Service) Execute(ctx context.Context, node *graph.Node, state *execution.State) (map[string]interface{}, error) {
	if node.Task == nil || node.Task.Action == nil {
		return nil, failure.Newf(failure.InvalidDefinition, "task %v has no action", node.Name)
	}
	action := node.Task.Action
	service := s.actions.Lookup(action.Service)
	if service == nil {
		return nil, &failure.Error{Kind: failure.InvalidDefinition, Cause: fmt.Errorf("%w: %v", ErrServiceNotFound, action.Service)}
	}
	method, err := service.Method(action.Method)
	if err != nil {
		return nil, &failure.Error{Kind: failure.InvalidDefinition, Cause: fmt.Errorf("%w: %v.%v: %v", ErrMethodNotFound, action.Service, action.Method, err)}
	}
	signature := service.Methods().Lookup(action.Method)
	if signature == nil {
		return nil, &failure.Error{Kind: failure.InvalidDefinition, Cause: fmt.Errorf("%w: %v.%v", ErrMethodNotFound, action.Service, action.Method)}
	}

	aPolicy := policy.FromContext(ctx)
	if aPolicy == nil {
		aPolicy = s.policy
	}
	switch aPolicy.Evaluate(action.Service, action.Method) {
	case policy.Skip:
		s.logger.Info("task skipped by policy", slog.String("task", node.Name), slog.String("action", action.Service+"."+action.Method))
		return nil, nil
	case policy.Deny:
		return nil, failure.Newf(failure.TaskExecutionFailed, "action %v.%v is blocked by policy", action.Service, action.Method)
	}

	// payload is fully resolved before any external call
	payload, err := placeholder.Resolve(action.Input, state.Get)
	if err != nil {
		return nil, err
	}
	input, err := s.typedValue(signature.Input, payload)
	if err != nil {
		return nil, failure.Wrap(failure.TaskExecutionFailed, fmt.Errorf("failed to convert %v.%v input: %w", action.Service, action.Method, err))
	}
	output := newInstancePtr(signature.Output)

	if err = method(ctx, input, output); err != nil {
		var classified *failure.Error
		if errors.As(err, &classified) {
			return nil, classified
		}
		return nil, failure.Wrap(failure.TaskExecutionFailed, err)
	}
	if node.Task.Blocking {
		if err = s.poll(ctx, service, action.Method, output, node.Task.TimeoutDuration(s.config.Timeout)); err != nil {
			return nil, err
		}
	}
	if s.listener != nil {
		s.listener(node, input, output)
	}
	assigned, err := s.assign(node.Task, state, output)
	if err != nil {
		return nil, err
	}
	state.Merge(assigned)
	return assigned, nil
}

// poll waits until asynchronous work started by the method reaches a terminal status.
// No cancellation is sent to the executor on timeout.
func (s *Service) poll(ctx context.Context, service types.Service, method string, output interface{}, timeout time.Duration) error {
	checker, ok := service.(types.StatusChecker)
	if !ok {
		return &failure.Error{Kind: failure.InvalidDefinition, Cause: fmt.Errorf("%w: %v", ErrNotPollable, service.Name())}
	}
	handle, ok := output.(types.Handle)
	if !ok || handle.Handle() == "" {
		return failure.Newf(failure.TaskExecutionFailed, "%v.%v returned no handle to poll", service.Name(), method)
	}
	id := handle.Handle()
	interval := s.config.PollInterval
	if interval <= 0 {
		interval = DefaultConfig().PollInterval
	}
	deadline := time.Now().Add(timeout)
	for {
		status, err := checker.Status(ctx, method, id)
		if err != nil {
			return failure.Wrap(failure.TaskExecutionFailed, fmt.Errorf("failed to check %v status: %w", id, err))
		}
		if status.IsTerminal() {
			if status.State == types.StateSucceeded {
				return nil
			}
			return &failure.Error{
				Kind:    failure.TaskExecutionFailed,
				Message: fmt.Sprintf("%v %v: %v", id, status.State, status.Reason),
				Values:  map[string]interface{}{"handle": id, "state": string(status.State)},
			}
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &failure.Error{
				Kind:    failure.TaskTimeout,
				Message: fmt.Sprintf("%v did not finish within %v", id, timeout),
				Values:  map[string]interface{}{"handle": id, "state": string(status.State)},
			}
		}
		s.logger.Debug("waiting for task", slog.String("service", service.Name()), slog.String("handle", id), slog.String("state", string(status.State)))
		wait := interval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return &failure.Error{Kind: failure.TaskTimeout, Message: fmt.Sprintf("%v: wait interrupted", id), Cause: ctx.Err()}
		case <-time.After(wait):
		}
	}
}

func (s *Service) assign(task *graph.Task, state *execution.State, output interface{}) (map[string]interface{}, error) {
	if len(task.Assign) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(task.Assign))
	for key := range task.Assign {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lookup := placeholder.Overlay(state.Get, map[string]interface{}{ResultKey: output})
	result := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		value, err := placeholder.ResolveString(task.Assign[key], lookup)
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, nil
}

// typedValue converts payload into the method input type; map inputs receive the payload as is
func (s *Service) typedValue(aType reflect.Type, value interface{}) (interface{}, error) {
	if aType == nil {
		return value, nil
	}
	if aType.Kind() == reflect.Map {
		if payload, ok := value.(map[string]interface{}); ok {
			return payload, nil
		}
	}
	instance := newInstancePtr(aType)
	if value == nil {
		return instance, nil
	}
	err := s.converter.Convert(value, instance)
	return instance, err
}

// newInstancePtr creates a new instance pointer of the given type
func newInstancePtr(t reflect.Type) interface{} {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}

// New creates a new executor service instance.
func New(actions *extension.Actions, opts ...Option) *Service {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true

	s := &Service{
		actions:   actions,
		converter: conv.NewConverter(options),
		config:    DefaultConfig(),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}
