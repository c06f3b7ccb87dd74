// Package tracing wraps OpenTelemetry so that the pipeline driver can open a
// span per workflow node without importing the upstream packages directly.
package tracing
