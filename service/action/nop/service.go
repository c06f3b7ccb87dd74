package nop

import (
	"context"
	"reflect"

	"github.com/viant/lakeflow/model/types"
)

const name = "nop"

// Service performs no external work; echo returns its payload so that a
// pipeline can publish constants into the run state.
type Service struct{}

// Output represents echoed values
type Output struct {
	Values map[string]interface{} `json:"values,omitempty"`
}

// New creates a nop service
func New() *Service {
	return &Service{}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "nop",
			Description: "Performs no operation and returns immediately.",
			Input:       reflect.TypeOf(map[string]interface{}{}),
			Output:      reflect.TypeOf(&Output{}),
		},
		{
			Name:        "echo",
			Description: "Returns the resolved payload as values.",
			Input:       reflect.TypeOf(map[string]interface{}{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch name {
	case "nop":
		return s.nop, nil
	case "echo":
		return s.echo, nil
	}
	return nil, types.NewMethodNotFoundError(name)
}

// does nothing
func (s *Service) nop(ctx context.Context, in, out interface{}) error {
	return nil
}

func (s *Service) echo(ctx context.Context, in, out interface{}) error {
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if payload, ok := in.(map[string]interface{}); ok {
		output.Values = payload
	}
	return nil
}
