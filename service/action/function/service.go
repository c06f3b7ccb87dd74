package function

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/viant/lakeflow/model/types"
)

const name = "function"

// Func represents an injected transformer; args are the resolved task arguments
type Func func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)

// Input represents function invocation
type Input struct {
	Function string                 `json:"function" required:"true"`
	Args     map[string]interface{} `json:"args,omitempty"`
}

// Output represents function result
type Output struct {
	Function string                 `json:"function"`
	Values   map[string]interface{} `json:"values,omitempty"`
}

// Service dispatches to named transformer functions
type Service struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// New creates function service
func New(funcs map[string]Func) *Service {
	ret := &Service{funcs: map[string]Func{}}
	for k, fn := range funcs {
		ret.Register(k, fn)
	}
	return ret
}

// Register registers function
func (s *Service) Register(name string, fn Func) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs[name] = fn
}

// Functions returns registered function names
func (s *Service) Functions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, 0, len(s.funcs))
	for k := range s.funcs {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "invoke",
			Description: "Invokes a named transformer function.",
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	if name == "invoke" {
		return s.invoke, nil
	}
	return nil, types.NewMethodNotFoundError(name)
}

func (s *Service) invoke(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Invoke(ctx, input, output)
}

// Invoke calls the function named by input
func (s *Service) Invoke(ctx context.Context, input *Input, output *Output) error {
	if input.Function == "" {
		return types.NewRequiredError("function")
	}
	s.mu.RLock()
	fn, ok := s.funcs[input.Function]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("function %v was not registered", input.Function)
	}
	values, err := fn(ctx, input.Args)
	if err != nil {
		return fmt.Errorf("function %v failed: %w", input.Function, err)
	}
	output.Function = input.Function
	output.Values = values
	return nil
}
