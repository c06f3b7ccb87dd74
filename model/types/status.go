package types

import "context"

// State represents state of asynchronous work
type State string

const (
	StateQueued    State = "QUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// Status represents status of asynchronous work started by a method
type Status struct {
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// IsTerminal returns true when the work will not change state anymore
func (s *Status) IsTerminal() bool {
	switch s.State {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Handle is implemented by method outputs that reference asynchronous work
type Handle interface {
	Handle() string
}

// StatusChecker is implemented by services whose methods start asynchronous work
type StatusChecker interface {
	Status(ctx context.Context, method, handle string) (*Status, error)
}
