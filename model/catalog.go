package model

import (
	"fmt"
	"strings"
)

// EnvironmentKey is the run state key holding deployment environment
const EnvironmentKey = "dc_environment"

// Environments lists supported deployment environments
var Environments = []string{"development", "staging", "production"}

type (
	// Bucket represents an object storage bucket used by a pipeline
	Bucket struct {
		Name        string `json:"name" yaml:"name"`
		Description string `json:"description,omitempty" yaml:"description,omitempty"`
	}

	// Column represents a table column
	Column struct {
		Name string `json:"name" yaml:"name"`
		Type string `json:"type" yaml:"type"`
	}

	// Table represents a catalog table backed by objects under Bucket/Prefix.
	// Prefix may reference {dc_environment}.
	Table struct {
		Name          string    `json:"name" yaml:"name"`
		Database      string    `json:"database" yaml:"database"`
		Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
		Bucket        string    `json:"bucket" yaml:"bucket"`
		Prefix        string    `json:"prefix" yaml:"prefix"`
		Format        string    `json:"format,omitempty" yaml:"format,omitempty"`
		Columns       []*Column `json:"columns,omitempty" yaml:"columns,omitempty"`
		PartitionKeys []*Column `json:"partitionKeys,omitempty" yaml:"partitionKeys,omitempty"`
		DependsOn     []string  `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
		PopulatedBy   string    `json:"populatedBy,omitempty" yaml:"populatedBy,omitempty"`
	}
)

// ResolvedPrefix returns prefix for the supplied environment
func (t *Table) ResolvedPrefix(env string) string {
	return strings.ReplaceAll(t.Prefix, "{"+EnvironmentKey+"}", env)
}

// Location returns s3 style table location
func (t *Table) Location(env string) string {
	return fmt.Sprintf("s3://%s/%s", t.Bucket, t.ResolvedPrefix(env))
}

// IsPartitioned returns true if table declares partition keys
func (t *Table) IsPartitioned() bool {
	return len(t.PartitionKeys) > 0
}
