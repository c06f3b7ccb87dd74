package storage

import (
	"context"
	"reflect"
	"strings"

	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/service/storage"
)

const name = "storage"

// Service exposes bucket prefix operations to pipelines
type Service struct {
	cleaner *storage.Cleaner
}

// New creates a new storage service
func New(cleaner *storage.Cleaner) *Service {
	return &Service{cleaner: cleaner}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "cleanup",
			Description: "Deletes every object under a bucket prefix.",
			Input:       reflect.TypeOf(&PrefixInput{}),
			Output:      reflect.TypeOf(&CleanupOutput{}),
		},
		{
			Name:        "list",
			Description: "Lists objects under a bucket prefix.",
			Input:       reflect.TypeOf(&PrefixInput{}),
			Output:      reflect.TypeOf(&ListOutput{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "cleanup":
		return s.cleanup, nil
	case "list":
		return s.list, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func (s *Service) cleanup(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*PrefixInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*CleanupOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Cleanup(ctx, input, output)
}

func (s *Service) list(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*PrefixInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ListOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.List(ctx, input, output)
}
