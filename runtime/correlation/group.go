package correlation

import (
	"fmt"
	"sync"
	"time"

	"github.com/viant/lakeflow/model/failure"
)

// Group represents a rendez-vous for a set of concurrent branches launched by
// a parallel set or fan-out map. It tracks how many branches were expected,
// how many have reported completion and every branch failure.
type Group struct {
	ID       string
	Expected int

	mu        sync.Mutex
	completed int
	failures  []*failure.Error
	done      chan struct{}

	DoneAt *time.Time
}

// MarkDone registers the completion of a branch and returns true when the
// rendez-vous condition (all branches finished) has been satisfied.
func (g *Group) MarkDone(branch string, err error) (groupComplete bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DoneAt != nil {
		return false
	}
	if err != nil {
		g.failures = append(g.failures, branchFailure(branch, err))
	}
	g.completed++
	if g.completed >= g.Expected {
		now := time.Now()
		g.DoneAt = &now
		close(g.done)
		return true
	}
	return false
}

// Wait blocks until every branch reported completion
func (g *Group) Wait() {
	<-g.done
}

// Done returns whether the group has completed.
func (g *Group) Done() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.DoneAt != nil
}

// Completed returns number of finished branches
func (g *Group) Completed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completed
}

// Failed returns true when at least one branch reported failure.
func (g *Group) Failed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.failures) > 0
}

// Failures returns branch failures
func (g *Group) Failures() []*failure.Error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*failure.Error(nil), g.failures...)
}

// Err returns a BranchFailure naming every failed branch, or nil
func (g *Group) Err(node string) error {
	failures := g.Failures()
	if len(failures) == 0 {
		return nil
	}
	return failure.Branches(node, failures)
}

// branchFailure names the failure after the branch; a deeper failing node is kept in the message
func branchFailure(branch string, err error) *failure.Error {
	source := failure.As(err)
	ret := *source
	ret.Node = branch
	if source.Node != "" && source.Node != branch {
		message := source.Message
		if message == "" && source.Cause != nil {
			message = source.Cause.Error()
		}
		ret.Message = fmt.Sprintf("%v: %v", source.Node, message)
	}
	return &ret
}

// NewGroup creates a group; a group expecting no branches is done immediately
func NewGroup(id string, expected int) *Group {
	ret := &Group{ID: id, Expected: expected, done: make(chan struct{})}
	if expected <= 0 {
		now := time.Now()
		ret.DoneAt = &now
		close(ret.done)
	}
	return ret
}
