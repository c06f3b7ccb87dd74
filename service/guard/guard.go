package guard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/dao"
)

// RejectionMessage is reported when another execution is running
const RejectionMessage = "AnotherExecutionRunning"

type (
	// ExecutionLister lists running execution ids of a pipeline, oldest first
	ExecutionLister interface {
		ListRunningExecutions(ctx context.Context, pipeline string) ([]string, error)
	}

	// Decision represents guard outcome
	Decision struct {
		Proceed bool     `json:"proceed"`
		Running []string `json:"running,omitempty"`
		Message string   `json:"message"`
	}

	// Config represents guard configuration
	Config struct {
		// OldestWins lets the oldest running execution proceed when several start at once;
		// otherwise any other running execution rejects the caller.
		OldestWins bool `json:"oldestWins,omitempty" yaml:"oldestWins,omitempty"`
	}

	// Checker decides whether an execution may run its guarded body
	Checker struct {
		lister ExecutionLister
		config Config
		logger *slog.Logger
	}
)

// Check lists running executions of pipeline and excludes executionID
func (c *Checker) Check(ctx context.Context, pipeline, executionID string) (*Decision, error) {
	running, err := c.lister.ListRunningExecutions(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list running executions of %v: %w", pipeline, err)
	}
	var others []string
	selfIndex := -1
	for i, id := range running {
		if id == executionID {
			selfIndex = i
			continue
		}
		others = append(others, id)
	}
	decision := &Decision{Proceed: len(others) == 0, Running: others}
	if !decision.Proceed && c.config.OldestWins && selfIndex == 0 {
		decision.Proceed = true
	}
	if decision.Proceed {
		decision.Message = "NoOtherExecutionRunning"
	} else {
		decision.Message = RejectionMessage
		c.logger.Warn("execution rejected", slog.String("pipeline", pipeline), slog.String("execution", executionID), slog.Any("running", others))
	}
	return decision, nil
}

// New creates a checker
func New(lister ExecutionLister, config Config, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{lister: lister, config: config, logger: logger}
}

// Lister lists running executions from the execution store on every call
type Lister struct {
	dao dao.Service[string, execution.Execution]
}

// ListRunningExecutions returns running executions of pipeline ordered by start time
func (l *Lister) ListRunningExecutions(ctx context.Context, pipeline string) ([]string, error) {
	executions, err := l.dao.List(ctx,
		dao.NewParameter(dao.ParameterPipeline, pipeline),
		dao.NewParameter(dao.ParameterStatus, string(execution.StatusRunning)))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(executions, func(i, j int) bool {
		left, right := executions[i].StartedAt, executions[j].StartedAt
		switch {
		case left == nil || right == nil:
			return executions[i].ID < executions[j].ID
		case left.Equal(*right):
			return executions[i].ID < executions[j].ID
		}
		return left.Before(*right)
	})
	result := make([]string, 0, len(executions))
	for _, candidate := range executions {
		result = append(result, candidate.ID)
	}
	return result, nil
}

// NewLister creates an execution store backed lister
func NewLister(executions dao.Service[string, execution.Execution]) *Lister {
	return &Lister{dao: executions}
}
