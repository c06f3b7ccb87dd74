// Package processor hosts the pipeline driver: it creates executions, walks
// the workflow tree of a pipeline and records a trace entry per node while
// moving the execution through pending, running and a terminal status.
package processor
