package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change; fields may be negative.
type Delta struct {
	Started   int
	Completed int
	Failed    int
	Running   int
}

// Progress keeps aggregated task counters of an execution, including every
// map instance and parallel branch. It is safe for concurrent use.
type Progress struct {
	ExecutionID string
	Pipeline    string
	StartedAt   time.Time

	StartedTasks   int
	CompletedTasks int
	FailedTasks    int
	RunningTasks   int

	sync.Mutex
	onChange func(Progress)
}

// Update applies the delta; the callback receives a copy taken under the lock
// and runs outside of it.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.StartedTasks += d.Started
	p.CompletedTasks += d.Completed
	p.FailedTasks += d.Failed
	p.RunningTasks += d.Running
	snapshot := p.copy()
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copy()
}

func (p *Progress) copy() Progress {
	return Progress{
		ExecutionID:    p.ExecutionID,
		Pipeline:       p.Pipeline,
		StartedAt:      p.StartedAt,
		StartedTasks:   p.StartedTasks,
		CompletedTasks: p.CompletedTasks,
		FailedTasks:    p.FailedTasks,
		RunningTasks:   p.RunningTasks,
	}
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker, embeds it in a derived context and returns both
func WithNewTracker(ctx context.Context, executionID, pipeline string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		ExecutionID: executionID,
		Pipeline:    pipeline,
		StartedAt:   time.Now(),
		onChange:    onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext returns the tracker carried by ctx
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies the delta to the tracker carried by ctx, if any
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
