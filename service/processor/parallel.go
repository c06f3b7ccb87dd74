package processor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/runtime/correlation"
	"github.com/viant/lakeflow/runtime/placeholder"
)

// runParallel runs every branch on its own copy of the pre-set state and waits for all of them.
// Failing siblings do not cancel running branches.
func (s *Service) runParallel(ctx context.Context, f *frame, node *graph.Node) error {
	snapshot := f.state.Clone()
	group := correlation.NewGroup(f.path, len(node.Nodes))
	for _, branch := range node.Nodes {
		branchFrame := &frame{execution: f.execution, state: snapshot.Clone(), path: f.path}
		go func(branch *graph.Node) {
			group.MarkDone(branch.Name, s.run(ctx, branchFrame, branch))
		}(branch)
	}
	group.Wait()
	return group.Err(node.Name)
}

// runMap runs the template once per item with at most MaxConcurrency instances in flight
func (s *Service) runMap(ctx context.Context, f *frame, node *graph.Node) error {
	spec := node.Map
	value, err := placeholder.ResolveString(spec.Items, f.state.Get)
	if err != nil {
		return err
	}
	items, err := asItems(value)
	if err != nil {
		return failure.Newf(failure.InvalidDefinition, "map %v: %v", node.Name, err)
	}
	if len(items) == 0 {
		return nil
	}
	limit := spec.MaxConcurrency
	if limit == 0 {
		limit = s.config.DefaultMaxConcurrency
	}
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}
	snapshot := f.state.Clone()
	group := correlation.NewGroup(f.path, len(items))
	semaphore := make(chan struct{}, limit)
	for i, item := range items {
		semaphore <- struct{}{}
		index := i
		instance := &frame{
			execution: f.execution,
			state:     snapshot.Clone(),
			path:      fmt.Sprintf("%s[%d]", f.path, index),
			iteration: &index,
		}
		go func(item interface{}) {
			defer func() { <-semaphore }()
			name := fmt.Sprintf("%s[%d]", node.Name, index)
			instance.state.Set(spec.Key(), item)
			instance.state.Set(spec.Index(), index)
			if err := s.seed(instance, spec); err != nil {
				group.MarkDone(name, err)
				return
			}
			group.MarkDone(name, s.run(ctx, instance, spec.Template))
		}(item)
	}
	group.Wait()
	return group.Err(node.Name)
}

// seed resolves per item values against the instance state
func (s *Service) seed(f *frame, spec *graph.Map) error {
	if len(spec.Seed) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(spec.Seed))
	for key, expr := range spec.Seed {
		value, err := placeholder.ResolveString(expr, f.state.Get)
		if err != nil {
			return err
		}
		values[key] = value
	}
	f.state.Merge(values)
	return nil
}

// asItems converts a list value into items; nil yields no items
func asItems(value interface{}) ([]interface{}, error) {
	switch actual := value.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return actual, nil
	case []string:
		result := make([]interface{}, len(actual))
		for i, item := range actual {
			result[i] = item
		}
		return result, nil
	}
	rValue := reflect.ValueOf(value)
	if rValue.Kind() != reflect.Slice && rValue.Kind() != reflect.Array {
		return nil, fmt.Errorf("items expression returned %T, expected a list", value)
	}
	result := make([]interface{}, rValue.Len())
	for i := 0; i < rValue.Len(); i++ {
		result[i] = rValue.Index(i).Interface()
	}
	return result, nil
}
