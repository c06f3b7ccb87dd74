package processor

import (
	"context"

	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/runtime/evaluator"
	"github.com/viant/lakeflow/runtime/placeholder"
)

// runChoice routes to the first matching rule or the default
func (s *Service) runChoice(ctx context.Context, f *frame, node *graph.Node) error {
	for _, rule := range node.Choice.Rules {
		matched, err := s.matches(f, rule)
		if err != nil {
			return err
		}
		if matched {
			return s.run(ctx, f, rule.Next)
		}
	}
	if node.Choice.Default != nil {
		return s.run(ctx, f, node.Choice.Default)
	}
	return &failure.Error{Kind: failure.InvalidDefinition, Message: ErrNoChoiceMatched.Error(), Cause: ErrNoChoiceMatched}
}

func (s *Service) matches(f *frame, rule *graph.Rule) (bool, error) {
	operator := evaluator.Operator(rule.Operator).Normalize()
	left, err := placeholder.Evaluate(rule.Variable, f.state.Get)
	if err != nil {
		if operator == evaluator.Exists && failure.IsKind(err, failure.UnresolvedPlaceholder) {
			return false, nil
		}
		return false, err
	}
	right := rule.Value
	if rule.Ref != "" {
		if right, err = placeholder.Evaluate(rule.Ref, f.state.Get); err != nil {
			return false, err
		}
	}
	return evaluator.Compare(operator, left, right)
}
