package execution

// Status represents the state of a pipeline execution or a traced node
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
)

// IsTerminal returns true for statuses that allow no further transition
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusAborted:
		return true
	}
	return false
}

// CanTransition reports whether the status can move to the supplied one
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusRunning || to == StatusAborted
	case StatusRunning:
		return to.IsTerminal()
	}
	return false
}
