package query

import (
	"context"
	"fmt"

	"github.com/viant/lakeflow/model/types"
)

// ResultsInput identifies query execution
type ResultsInput struct {
	QueryExecutionID string `json:"queryExecutionId" required:"true"`
}

// ResultsOutput represents query rows without the header row
type ResultsOutput struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Count   int        `json:"count"`
}

// Results fetches query results
func (s *Service) Results(ctx context.Context, input *ResultsInput, output *ResultsOutput) error {
	if input.QueryExecutionID == "" {
		return types.NewRequiredError("queryExecutionId")
	}
	resultSet, err := s.executor.Results(ctx, input.QueryExecutionID)
	if err != nil {
		return fmt.Errorf("failed to fetch results of %v: %w", input.QueryExecutionID, err)
	}
	output.Columns = resultSet.Header()
	output.Rows = resultSet.Data()
	output.Count = len(output.Rows)
	return nil
}
