// Package policy gates task actions by their "service.method" name. A policy is
// attached to the executor or carried by the context; none means every action runs.
package policy
