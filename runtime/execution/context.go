package execution

import (
	"context"
	"reflect"
)

var ExecutionKey = KeyOf[*Execution]()

// WithExecution returns context carrying the execution
func WithExecution(ctx context.Context, execution *Execution) context.Context {
	return context.WithValue(ctx, ExecutionKey, execution)
}

// ContextValue returns the value of the provided type from the context
func ContextValue[T any](ctx context.Context) T {
	key := KeyOf[T]()
	if value := ctx.Value(key); value != nil {
		return value.(T)
	}
	var t T
	return t
}

// KeyOf returns the reflect.Type of the provided type
func KeyOf[T any]() reflect.Type {
	var a T
	return reflect.TypeOf(a)
}
