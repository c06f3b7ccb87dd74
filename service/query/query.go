package query

import (
	"context"
	"errors"

	"github.com/viant/lakeflow/model/types"
)

// ErrQueryNotFound is returned for unknown query execution ids
var ErrQueryNotFound = errors.New("query: execution not found")

type (
	// Request represents a query submission
	Request struct {
		Name           string                 `json:"name,omitempty" yaml:"name,omitempty"`
		Text           string                 `json:"text" yaml:"text"`
		Database       string                 `json:"database,omitempty" yaml:"database,omitempty"`
		Workgroup      string                 `json:"workgroup,omitempty" yaml:"workgroup,omitempty"`
		OutputLocation string                 `json:"outputLocation,omitempty" yaml:"outputLocation,omitempty"`
		Context        map[string]interface{} `json:"context,omitempty" yaml:"context,omitempty"`
	}

	// ResultSet represents raw query results; the first row carries column names
	ResultSet struct {
		Rows [][]string `json:"rows" yaml:"rows"`
	}

	// Executor represents an asynchronous query engine
	Executor interface {
		Submit(ctx context.Context, request *Request) (string, error)
		Status(ctx context.Context, id string) (*types.Status, error)
		Results(ctx context.Context, id string) (*ResultSet, error)
	}
)

// Header returns column names
func (r *ResultSet) Header() []string {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Data returns rows without the header row
func (r *ResultSet) Data() [][]string {
	if len(r.Rows) < 2 {
		return [][]string{}
	}
	return r.Rows[1:]
}
