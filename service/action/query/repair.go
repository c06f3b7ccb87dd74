package query

import (
	"context"
	"fmt"

	"github.com/viant/lakeflow/model/types"
)

// RepairInput identifies partitioned table
type RepairInput struct {
	Database       string `json:"database,omitempty"`
	Table          string `json:"table" required:"true"`
	Workgroup      string `json:"workgroup,omitempty"`
	OutputLocation string `json:"outputLocation,omitempty"`
}

// RepairStatement returns partition discovery statement
func RepairStatement(table string) string {
	return fmt.Sprintf("MSCK REPAIR TABLE `%s`;", table)
}

// Repair submits partition discovery for a table
func (s *Service) Repair(ctx context.Context, input *RepairInput, output *SubmitOutput) error {
	if input.Table == "" {
		return types.NewRequiredError("table")
	}
	return s.Submit(ctx, &SubmitInput{
		Name:           "repair_" + input.Table,
		Query:          RepairStatement(input.Table),
		Database:       input.Database,
		Workgroup:      input.Workgroup,
		OutputLocation: input.OutputLocation,
	}, output)
}
