package processor

import (
	"context"
	"log/slog"

	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/service/guard"
)

// runGuard runs the body only when no other execution of the guarded pipeline is running
func (s *Service) runGuard(ctx context.Context, f *frame, node *graph.Node) error {
	if s.guard == nil {
		return failure.Newf(failure.InvalidDefinition, "guard %v: no execution checker configured", node.Name)
	}
	pipeline := node.Guard.Pipeline
	if pipeline == "" {
		pipeline = f.execution.Pipeline
	}
	decision, err := s.guard.Check(ctx, pipeline, f.execution.ID)
	if err != nil {
		return failure.Wrap(failure.TaskExecutionFailed, err)
	}
	if !decision.Proceed {
		s.logger.Warn("guard rejected execution", slog.String("pipeline", pipeline), slog.String("execution", f.execution.ID))
		return &failure.Error{
			Kind:    failure.ConcurrentExecution,
			Message: guard.RejectionMessage,
			Values:  map[string]interface{}{"running": decision.Running},
		}
	}
	return s.run(ctx, f, node.Guard.Body)
}
