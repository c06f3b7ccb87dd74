package graph

import (
	"time"
)

type (
	// Action identifies the executor service method and its payload template
	Action struct {
		Service string      `json:"service,omitempty" yaml:"service,omitempty"`
		Method  string      `json:"method,omitempty" yaml:"method,omitempty"`
		Input   interface{} `json:"input,omitempty" yaml:"input,omitempty"`
	}

	// Task invokes an external executor. Blocking tasks are polled until the
	// executor reports a terminal status or Timeout elapses. Assign maps run
	// state keys to expressions evaluated against {result} and the run state.
	Task struct {
		Action   *Action           `json:"action,omitempty" yaml:"action,omitempty"`
		Blocking bool              `json:"blocking,omitempty" yaml:"blocking,omitempty"`
		Timeout  string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
		Assign   map[string]string `json:"assign,omitempty" yaml:"assign,omitempty"`
	}
)

// TimeoutDuration returns task timeout or fallback when not set or invalid
func (t *Task) TimeoutDuration(fallback time.Duration) time.Duration {
	if t.Timeout == "" {
		return fallback
	}
	if d, err := time.ParseDuration(t.Timeout); err == nil && d > 0 {
		return d
	}
	return fallback
}

// WithAction sets the action for the task
func (t *Task) WithAction(service string, method string, input interface{}) *Task {
	t.Action = &Action{
		Service: service,
		Method:  method,
		Input:   input,
	}
	return t
}
