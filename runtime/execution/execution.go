package execution

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/lakeflow/internal/clock"
	"github.com/viant/lakeflow/model/failure"
)

// ErrInvalidTransition is returned when a status change is not allowed
var ErrInvalidTransition = errors.New("execution: invalid status transition")

// Execution represents a single run of a pipeline
type Execution struct {
	ID          string         `json:"id"`
	Pipeline    string         `json:"pipeline"`
	Status      Status         `json:"status"`
	Position    string         `json:"position,omitempty"`
	State       *State         `json:"state"`
	Trace       []*NodeResult  `json:"trace,omitempty"`
	Transitions []Status       `json:"transitions"`
	Error       *failure.Error `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	FinishedAt  *time.Time     `json:"finishedAt,omitempty"`
	mux         sync.RWMutex
}

// NodeResult is a trace record of a single node run
type NodeResult struct {
	Path      string       `json:"path"`
	Name      string       `json:"name"`
	Kind      string       `json:"kind"`
	Iteration *int         `json:"iteration,omitempty"`
	Status    Status       `json:"status"`
	StartedAt time.Time    `json:"startedAt"`
	EndedAt   *time.Time   `json:"endedAt,omitempty"`
	ErrorKind failure.Kind `json:"errorKind,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Start transitions execution to running
func (e *Execution) Start() error {
	e.mux.Lock()
	defer e.mux.Unlock()
	if err := e.transition(StatusRunning); err != nil {
		return err
	}
	now := clock.Now()
	e.StartedAt = &now
	return nil
}

// Succeed transitions execution to succeeded
func (e *Execution) Succeed() error {
	return e.finish(StatusSucceeded, nil)
}

// Fail transitions execution to failed
func (e *Execution) Fail(err error) error {
	return e.finish(StatusFailed, err)
}

// Abort transitions execution to aborted
func (e *Execution) Abort(err error) error {
	return e.finish(StatusAborted, err)
}

func (e *Execution) finish(status Status, err error) error {
	e.mux.Lock()
	defer e.mux.Unlock()
	if tErr := e.transition(status); tErr != nil {
		return tErr
	}
	now := clock.Now()
	e.FinishedAt = &now
	e.Error = failure.As(err)
	return nil
}

func (e *Execution) transition(to Status) error {
	if !e.Status.CanTransition(to) {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, e.Status, to)
	}
	e.Status = to
	e.Transitions = append(e.Transitions, to)
	return nil
}

// CurrentStatus returns the status
func (e *Execution) CurrentStatus() Status {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.Status
}

// SetPosition records the node currently driven by the top-level chain
func (e *Execution) SetPosition(path string) {
	e.mux.Lock()
	e.Position = path
	e.mux.Unlock()
}

// Begin appends a running trace record for the node
func (e *Execution) Begin(path, name, kind string, iteration *int) *NodeResult {
	result := &NodeResult{
		Path:      path,
		Name:      name,
		Kind:      kind,
		Iteration: iteration,
		Status:    StatusRunning,
		StartedAt: clock.Now(),
	}
	e.mux.Lock()
	e.Trace = append(e.Trace, result)
	e.mux.Unlock()
	return result
}

// End completes a trace record
func (e *Execution) End(result *NodeResult, err error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	now := clock.Now()
	result.EndedAt = &now
	if err == nil {
		result.Status = StatusSucceeded
		return
	}
	result.Status = StatusFailed
	result.Error = err.Error()
	result.ErrorKind = failure.KindOf(err)
	if result.ErrorKind == failure.ConcurrentExecution {
		result.Status = StatusAborted
	}
}

// Results returns trace records matching name; all when name is empty
func (e *Execution) Results(name string) []*NodeResult {
	e.mux.RLock()
	defer e.mux.RUnlock()
	var result []*NodeResult
	for _, item := range e.Trace {
		if name != "" && item.Name != name {
			continue
		}
		clone := *item
		result = append(result, &clone)
	}
	return result
}

// Clone returns a deep enough copy for storage
func (e *Execution) Clone() *Execution {
	e.mux.RLock()
	defer e.mux.RUnlock()
	ret := &Execution{
		ID:          e.ID,
		Pipeline:    e.Pipeline,
		Status:      e.Status,
		Position:    e.Position,
		Transitions: append([]Status(nil), e.Transitions...),
		Error:       e.Error,
		CreatedAt:   e.CreatedAt,
		StartedAt:   e.StartedAt,
		FinishedAt:  e.FinishedAt,
	}
	if e.State != nil {
		ret.State = e.State.Clone()
	}
	ret.Trace = make([]*NodeResult, 0, len(e.Trace))
	for _, item := range e.Trace {
		clone := *item
		ret.Trace = append(ret.Trace, &clone)
	}
	return ret
}

// Report returns a terminal report
func (e *Execution) Report() *Report {
	e.mux.RLock()
	defer e.mux.RUnlock()
	ret := &Report{
		ExecutionID: e.ID,
		Pipeline:    e.Pipeline,
		Status:      e.Status,
		Error:       e.Error,
	}
	if e.Error == nil {
		return ret
	}
	ret.ErrorKind = e.Error.Kind
	ret.ErrorDetail = e.Error.Error()
	ret.FailedNode = e.Error.Node
	ret.Values = collectValues(e.Error, nil)
	return ret
}

func collectValues(err *failure.Error, dest map[string]interface{}) map[string]interface{} {
	for k, v := range err.Values {
		if dest == nil {
			dest = map[string]interface{}{}
		}
		dest[k] = v
	}
	for _, branch := range err.Branches {
		dest = collectValues(branch, dest)
	}
	return dest
}

// Report represents execution outcome surfaced to callers
type Report struct {
	ExecutionID string                 `json:"executionId" yaml:"executionId"`
	Pipeline    string                 `json:"pipeline" yaml:"pipeline"`
	Status      Status                 `json:"status" yaml:"status"`
	ErrorKind   failure.Kind           `json:"errorKind,omitempty" yaml:"errorKind,omitempty"`
	ErrorDetail string                 `json:"errorDetail,omitempty" yaml:"errorDetail,omitempty"`
	FailedNode  string                 `json:"failedNode,omitempty" yaml:"failedNode,omitempty"`
	Values      map[string]interface{} `json:"values,omitempty" yaml:"values,omitempty"`
	Error       *failure.Error         `json:"-" yaml:"-"`
}

// New creates a pending execution
func New(id, pipeline string, state *State) *Execution {
	if state == nil {
		state = NewState(nil)
	}
	return &Execution{
		ID:          id,
		Pipeline:    pipeline,
		Status:      StatusPending,
		State:       state,
		Transitions: []Status{StatusPending},
		CreatedAt:   clock.Now(),
	}
}
