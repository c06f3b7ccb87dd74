package model

import (
	"errors"
	"fmt"

	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/runtime/placeholder"
)

// Stack exposes storage resources a pipeline definition works with
type Stack interface {
	DeclaredTables() []*Table
	DeclaredBuckets() []*Bucket
}

// Source describes where a pipeline definition was loaded from
type Source struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Pipeline represents a pipeline definition
type Pipeline struct {
	Source      *Source                `json:"source,omitempty" yaml:"source,omitempty"`
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Seed        map[string]interface{} `json:"seed,omitempty" yaml:"seed,omitempty"`
	Tables      []*Table               `json:"tables,omitempty" yaml:"tables,omitempty"`
	Buckets     []*Bucket              `json:"buckets,omitempty" yaml:"buckets,omitempty"`
	Root        *graph.Node            `json:"root" yaml:"root"`
}

var _ Stack = (*Pipeline)(nil)

// DeclaredTables returns tables the pipeline reads or writes
func (p *Pipeline) DeclaredTables() []*Table {
	return p.Tables
}

// DeclaredBuckets returns buckets the pipeline reads or writes
func (p *Pipeline) DeclaredBuckets() []*Bucket {
	return p.Buckets
}

// Table returns declared table by name
func (p *Pipeline) Table(name string) *Table {
	for _, table := range p.Tables {
		if table.Name == name {
			return table
		}
	}
	return nil
}

// Bucket returns declared bucket by name
func (p *Pipeline) Bucket(name string) *Bucket {
	for _, bucket := range p.Buckets {
		if bucket.Name == name {
			return bucket
		}
	}
	return nil
}

// Validate checks the definition tree and that literal table and bucket
// references used by tasks are declared.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if p.Root == nil {
		return fmt.Errorf("pipeline %v: root node is required", p.Name)
	}
	var issues []error
	if err := p.Root.Validate(); err != nil {
		issues = append(issues, err)
	}
	for _, table := range p.Tables {
		if table.Bucket != "" && p.Bucket(table.Bucket) == nil {
			issues = append(issues, fmt.Errorf("table %v: bucket %v is not declared", table.Name, table.Bucket))
		}
	}
	for _, task := range p.Root.Tasks() {
		input, ok := task.Task.Action.Input.(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := literal(input["bucket"]); ok && p.Bucket(name) == nil {
			issues = append(issues, fmt.Errorf("task %v: bucket %v is not declared", task.Name, name))
		}
		if name, ok := literal(input["table"]); ok && p.Table(name) == nil {
			issues = append(issues, fmt.Errorf("task %v: table %v is not declared", task.Name, name))
		}
	}
	if len(issues) > 0 {
		return fmt.Errorf("pipeline %v: %w", p.Name, errors.Join(issues...))
	}
	return nil
}

func literal(value interface{}) (string, bool) {
	text, ok := value.(string)
	if !ok || text == "" || placeholder.Has(text) {
		return "", false
	}
	return text, true
}
