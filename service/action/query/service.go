package query

import (
	"context"
	"reflect"
	"strings"

	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/service/query"
)

const name = "query"

// Service submits queries to the query executor and polls their status
type Service struct {
	executor query.Executor
	texts    *query.Texts
	defaults Defaults
}

// Defaults represents request defaults applied when a task payload omits them
type Defaults struct {
	Database       string `json:"database,omitempty" yaml:"database,omitempty"`
	Workgroup      string `json:"workgroup,omitempty" yaml:"workgroup,omitempty"`
	OutputLocation string `json:"outputLocation,omitempty" yaml:"outputLocation,omitempty"`
}

var _ types.StatusChecker = (*Service)(nil)

// New creates a query action service
func New(executor query.Executor, texts *query.Texts, defaults Defaults) *Service {
	if texts == nil {
		texts = query.NewTexts(nil, "")
	}
	return &Service{executor: executor, texts: texts, defaults: defaults}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "submit",
			Description: "Submits a query text or named query and returns its execution id.",
			Input:       reflect.TypeOf(&SubmitInput{}),
			Output:      reflect.TypeOf(&SubmitOutput{}),
		},
		{
			Name:        "results",
			Description: "Returns rows of a finished query execution without the header row.",
			Input:       reflect.TypeOf(&ResultsInput{}),
			Output:      reflect.TypeOf(&ResultsOutput{}),
		},
		{
			Name:        "repair",
			Description: "Submits MSCK REPAIR TABLE to register new partitions.",
			Input:       reflect.TypeOf(&RepairInput{}),
			Output:      reflect.TypeOf(&SubmitOutput{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "submit":
		return s.submit, nil
	case "results":
		return s.results, nil
	case "repair":
		return s.repair, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

// Status returns status of a submitted query execution
func (s *Service) Status(ctx context.Context, method string, handle string) (*types.Status, error) {
	return s.executor.Status(ctx, handle)
}

func (s *Service) submit(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*SubmitInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*SubmitOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Submit(ctx, input, output)
}

func (s *Service) results(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ResultsInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ResultsOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Results(ctx, input, output)
}

func (s *Service) repair(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*RepairInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*SubmitOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Repair(ctx, input, output)
}
