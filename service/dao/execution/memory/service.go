package memory

import (
	"context"
	"sort"

	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/dao"
	"github.com/viant/lakeflow/service/dao/criteria"
	"github.com/viant/lakeflow/service/dao/store"
)

// Service implements an in-memory execution storage.  All operations are
// thread-safe and return copies of the underlying objects.
type Service struct {
	*store.MemoryStore[string, execution.Execution]
}

var _ dao.Service[string, execution.Execution] = (*Service)(nil)

// List returns executions matching Pipeline and Status parameters, oldest first.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	all, err := s.MemoryStore.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*execution.Execution, 0, len(all))
	for _, candidate := range all {
		if criteria.Match(fields(candidate), parameters) {
			out = append(out, candidate)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func fields(e *execution.Execution) map[string]string {
	return map[string]string{
		dao.ParameterPipeline: e.Pipeline,
		dao.ParameterStatus:   string(e.Status),
	}
}

// New constructor.
func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, execution.Execution](
			func(e *execution.Execution) string { return e.ID },
			func(e *execution.Execution) *execution.Execution { return e.Clone() },
		),
	}
}
