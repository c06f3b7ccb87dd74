package query

import (
	"context"
	"fmt"

	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/runtime/placeholder"
	"github.com/viant/lakeflow/service/query"
)

// SubmitInput represents query submission; Name refers to a registered query text.
// Placeholders in the text are substituted from Context.
type SubmitInput struct {
	Name           string                 `json:"name,omitempty"`
	Query          string                 `json:"query,omitempty"`
	Database       string                 `json:"database,omitempty"`
	Workgroup      string                 `json:"workgroup,omitempty"`
	OutputLocation string                 `json:"outputLocation,omitempty"`
	Context        map[string]interface{} `json:"context,omitempty"`
}

// SubmitOutput represents submitted query execution
type SubmitOutput struct {
	QueryExecutionID string `json:"queryExecutionId"`
	Query            string `json:"query"`
}

// Handle returns query execution id
func (o *SubmitOutput) Handle() string {
	return o.QueryExecutionID
}

// Submit renders and submits query
func (s *Service) Submit(ctx context.Context, input *SubmitInput, output *SubmitOutput) error {
	text := input.Query
	if text == "" {
		if input.Name == "" {
			return types.NewRequiredError("query or name")
		}
		var err error
		if text, err = s.texts.Lookup(ctx, input.Name); err != nil {
			return err
		}
	}
	rendered, err := Render(text, input.Context)
	if err != nil {
		return err
	}
	request := &query.Request{
		Name:           input.Name,
		Text:           rendered,
		Database:       firstNonEmpty(input.Database, s.defaults.Database),
		Workgroup:      firstNonEmpty(input.Workgroup, s.defaults.Workgroup),
		OutputLocation: firstNonEmpty(input.OutputLocation, s.defaults.OutputLocation),
		Context:        input.Context,
	}
	id, err := s.executor.Submit(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to submit query %v: %w", firstNonEmpty(input.Name, rendered), err)
	}
	output.QueryExecutionID = id
	output.Query = rendered
	return nil
}

// Render substitutes {placeholder} expressions in query text with context values
func Render(text string, values map[string]interface{}) (string, error) {
	if !placeholder.Has(text) {
		return text, nil
	}
	value, err := placeholder.ResolveString(text, placeholder.MapLookup(values))
	if err != nil {
		return "", err
	}
	return placeholder.Stringify(value), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
