// Package executor runs a single pipeline task: it resolves the payload
// template against the run state, converts it into the input type of the
// target action method, invokes the method, polls blocking work to completion
// and merges declared outputs back into the run state.
package executor
