// Package extension provides the run-time registry of executor services
// (query engine, storage cleaner, catalog, transformer functions) that
// pipeline tasks reference by name.
package extension
