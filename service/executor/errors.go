package executor

import "errors"

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrMethodNotFound  = errors.New("method not found in service")
	ErrNotPollable     = errors.New("service does not support blocking tasks")
)
