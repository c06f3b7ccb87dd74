package processor

import (
	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/runtime/placeholder"
)

// runFail builds the classified failure; the cause falls back to its raw text when it cannot be resolved
func (s *Service) runFail(f *frame, node *graph.Node) error {
	spec := node.Fail
	ret := &failure.Error{Kind: spec.Error, Node: node.Name, Message: spec.Cause}
	if spec.Cause != "" {
		if cause, err := placeholder.ResolveString(spec.Cause, f.state.Get); err == nil {
			ret.Message = placeholder.Stringify(cause)
		}
	}
	for _, key := range spec.Values {
		value, err := placeholder.Evaluate(key, f.state.Get)
		if err != nil {
			continue
		}
		if ret.Values == nil {
			ret.Values = map[string]interface{}{}
		}
		ret.Values[key] = value
	}
	return ret
}
