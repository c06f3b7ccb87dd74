package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/service/meta"
	"github.com/viant/lakeflow/service/query"
)

// Fixture scripts the outcome of matching queries
type Fixture struct {
	// Name matches request name
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Match matches a fragment of the request text
	Match   string     `json:"match,omitempty" yaml:"match,omitempty"`
	Columns []string   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	// State is the terminal state, SUCCEEDED by default
	State  types.State `json:"state,omitempty" yaml:"state,omitempty"`
	Reason string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Polls is the number of RUNNING status responses before the terminal state
	Polls int `json:"polls,omitempty" yaml:"polls,omitempty"`
	// Error fails the submission
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Fixtures represents fixture document
type Fixtures struct {
	Fixtures []*Fixture `json:"fixtures" yaml:"fixtures"`
}

func (f *Fixture) matches(request *query.Request) bool {
	if f.Name != "" && f.Name == request.Name {
		return true
	}
	return f.Match != "" && strings.Contains(request.Text, f.Match)
}

type job struct {
	request *query.Request
	fixture *Fixture
	polls   int
	done    bool
}

// Executor is a scripted in-memory query executor that instruments calls and in-flight queries
type Executor struct {
	mu          sync.Mutex
	fixtures    []*Fixture
	jobs        map[string]*job
	requests    []*query.Request
	inFlight    int
	maxInFlight int
}

var _ query.Executor = (*Executor)(nil)

// Add adds fixtures; the first matching fixture wins
func (e *Executor) Add(fixtures ...*Fixture) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fixtures = append(e.fixtures, fixtures...)
	return e
}

// Load loads YAML or JSON fixtures
func (e *Executor) Load(ctx context.Context, metaService *meta.Service, URL string) error {
	fixtures := &Fixtures{}
	if err := metaService.Load(ctx, URL, fixtures); err != nil {
		return err
	}
	e.Add(fixtures.Fixtures...)
	return nil
}

// Submit registers a query execution
func (e *Executor) Submit(ctx context.Context, request *query.Request) (string, error) {
	if request == nil {
		return "", fmt.Errorf("query request was nil")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	clone := *request
	e.requests = append(e.requests, &clone)
	fixture := e.match(&clone)
	if fixture.Error != "" {
		return "", errors.New(fixture.Error)
	}
	id := uuid.New().String()
	e.jobs[id] = &job{request: &clone, fixture: fixture, polls: fixture.Polls}
	e.inFlight++
	if e.inFlight > e.maxInFlight {
		e.maxInFlight = e.inFlight
	}
	return id, nil
}

func (e *Executor) match(request *query.Request) *Fixture {
	for _, candidate := range e.fixtures {
		if candidate.matches(request) {
			return candidate
		}
	}
	return &Fixture{}
}

// Status returns query execution status
func (e *Executor) Status(ctx context.Context, id string) (*types.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	aJob, ok := e.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", query.ErrQueryNotFound, id)
	}
	if aJob.polls > 0 {
		aJob.polls--
		return &types.Status{State: types.StateRunning}, nil
	}
	if !aJob.done {
		aJob.done = true
		e.inFlight--
	}
	state := aJob.fixture.State
	if state == "" {
		state = types.StateSucceeded
	}
	return &types.Status{State: state, Reason: aJob.fixture.Reason}, nil
}

// Results returns query results including the header row
func (e *Executor) Results(ctx context.Context, id string) (*query.ResultSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	aJob, ok := e.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", query.ErrQueryNotFound, id)
	}
	state := aJob.fixture.State
	if state != "" && state != types.StateSucceeded {
		return nil, fmt.Errorf("query %v has no results: %v", id, state)
	}
	result := &query.ResultSet{}
	if len(aJob.fixture.Columns) > 0 {
		result.Rows = append(result.Rows, append([]string(nil), aJob.fixture.Columns...))
	}
	for _, row := range aJob.fixture.Rows {
		result.Rows = append(result.Rows, append([]string(nil), row...))
	}
	return result, nil
}

// Requests returns submitted requests
func (e *Executor) Requests() []*query.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*query.Request(nil), e.requests...)
}

// Calls returns number of submissions matching name or text fragment; empty matches all
func (e *Executor) Calls(nameOrFragment string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, request := range e.requests {
		if nameOrFragment == "" || request.Name == nameOrFragment || strings.Contains(request.Text, nameOrFragment) {
			count++
		}
	}
	return count
}

// MaxInFlight returns the highest number of simultaneously unfinished queries
func (e *Executor) MaxInFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxInFlight
}

// New creates a memory executor
func New(fixtures ...*Fixture) *Executor {
	ret := &Executor{jobs: map[string]*job{}}
	return ret.Add(fixtures...)
}
