// Package progress keeps aggregated task counters of a single pipeline execution.
// The tracker travels in the execution context so every component receiving the
// context can update it without a global registry.
package progress
