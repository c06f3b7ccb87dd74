// Package baker defines the data baker pipelines: addressbase partitioning, current
// elections and current boundary changes, together with the tables, buckets and
// query texts they use.
package baker
