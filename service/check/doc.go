// Package check builds data-quality gates out of query backed checks.
//
// Each check is a chain that submits a query, waits for it, fetches the first result
// row and routes on it with a choice. A gate runs checks in parallel and reports every
// failing check by name.
package check
