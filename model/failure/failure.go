package failure

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	TaskTimeout             Kind = "TaskTimeout"
	TaskExecutionFailed     Kind = "TaskExecutionFailed"
	UnresolvedPlaceholder   Kind = "UnresolvedPlaceholder"
	ConcurrentExecution     Kind = "ConcurrentExecution"
	MultipleSourcesDetected Kind = "MultipleSourcesDetected"
	RowCountMismatch        Kind = "RowCountMismatch"
	BranchFailure           Kind = "BranchFailure"
	InvalidDefinition       Kind = "InvalidDefinition"
)

// Error is a classified pipeline failure. Node names the workflow node that failed,
// Values carries the literal values involved (counts, identifiers) and Branches lists
// every failing child of a parallel set or fan-out map.
type Error struct {
	Kind     Kind                   `json:"kind" yaml:"kind"`
	Node     string                 `json:"node,omitempty" yaml:"node,omitempty"`
	Message  string                 `json:"message,omitempty" yaml:"message,omitempty"`
	Values   map[string]interface{} `json:"values,omitempty" yaml:"values,omitempty"`
	Branches []*Error               `json:"branches,omitempty" yaml:"branches,omitempty"`
	Cause    error                  `json:"-" yaml:"-"`
}

// Error returns the error message
func (e *Error) Error() string {
	builder := strings.Builder{}
	builder.WriteString(string(e.Kind))
	if e.Node != "" {
		builder.WriteString(" at ")
		builder.WriteString(e.Node)
	}
	if e.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Message)
	}
	if len(e.Values) > 0 {
		keys := make([]string, 0, len(e.Values))
		for k := range e.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, e.Values[k]))
		}
		builder.WriteString(" [" + strings.Join(pairs, ", ") + "]")
	}
	if len(e.Branches) > 0 {
		parts := make([]string, 0, len(e.Branches))
		for _, branch := range e.Branches {
			parts = append(parts, branch.Error())
		}
		builder.WriteString(" {" + strings.Join(parts, "; ") + "}")
	}
	if e.Cause != nil && e.Message == "" {
		builder.WriteString(": ")
		builder.WriteString(e.Cause.Error())
	}
	return builder.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Node == "" || t.Node == e.Node)
}

// BranchNames returns names of failing branches
func (e *Error) BranchNames() []string {
	var result []string
	for _, branch := range e.Branches {
		result = append(result, branch.Node)
	}
	return result
}

// WithNode returns the error annotated with the failing node, keeping an existing one.
func (e *Error) WithNode(node string) *Error {
	if e.Node == "" {
		e.Node = node
	}
	return e
}

// New creates a failure
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a failure with formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with the supplied kind
func Wrap(kind Kind, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: cause}
}

// Branches creates a BranchFailure aggregating every failing child.
func Branches(node string, failures []*Error) *Error {
	sort.SliceStable(failures, func(i, j int) bool { return failures[i].Node < failures[j].Node })
	return &Error{
		Kind:     BranchFailure,
		Node:     node,
		Message:  fmt.Sprintf("%d branch(es) failed", len(failures)),
		Branches: failures,
	}
}

// As converts err into *Error, wrapping unclassified errors as TaskExecutionFailed.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ret *Error
	if errors.As(err, &ret) {
		return ret
	}
	return Wrap(TaskExecutionFailed, err)
}

// KindOf returns the failure kind of err or empty string.
func KindOf(err error) Kind {
	var ret *Error
	if errors.As(err, &ret) {
		return ret.Kind
	}
	return ""
}

// IsKind returns true if err carries the supplied kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
