package catalog

import (
	"context"
	"reflect"

	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/service/catalog"
)

const name = "catalog"

// LocationInput identifies a table
type LocationInput struct {
	Database string `json:"database" required:"true"`
	Table    string `json:"table" required:"true"`
}

// LocationOutput represents table location
type LocationOutput struct {
	Location string `json:"location"`
}

// Service resolves table locations
type Service struct {
	catalog *catalog.Catalog
}

// New creates a catalog action service
func New(aCatalog *catalog.Catalog) *Service {
	return &Service{catalog: aCatalog}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "location",
			Description: "Returns storage location of a catalog table.",
			Input:       reflect.TypeOf(&LocationInput{}),
			Output:      reflect.TypeOf(&LocationOutput{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	if name == "location" {
		return s.location, nil
	}
	return nil, types.NewMethodNotFoundError(name)
}

func (s *Service) location(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*LocationInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*LocationOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if input.Database == "" {
		return types.NewRequiredError("database")
	}
	if input.Table == "" {
		return types.NewRequiredError("table")
	}
	location, err := s.catalog.GetTableLocation(ctx, input.Database, input.Table)
	if err != nil {
		return err
	}
	output.Location = location
	return nil
}
