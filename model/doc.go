// Package model contains the in-memory representation of pipeline
// definitions: the workflow tree (graph), the tables and buckets a pipeline
// declares, the failure taxonomy and the executor service contracts (types).
package model
