package processor

import (
	"log/slog"

	"github.com/viant/lakeflow/progress"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/dao"
)

// Option represents processor option
type Option func(*Service)

// WithExecutionDAO sets the execution store implementation
func WithExecutionDAO(executionDAO dao.Service[string, execution.Execution]) Option {
	return func(s *Service) {
		s.executionDAO = executionDAO
	}
}

// WithTaskExecutor sets the task executor
func WithTaskExecutor(executor TaskExecutor) Option {
	return func(s *Service) {
		s.executor = executor
	}
}

// WithGuard sets the singleton guard checker
func WithGuard(guard Guard) Option {
	return func(s *Service) {
		s.guard = guard
	}
}

// WithStateListeners registers listeners copied to every execution run state
func WithStateListeners(fns ...execution.StateListener) Option {
	return func(s *Service) {
		s.stateListeners = append(s.stateListeners, fns...)
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithIDGenerator sets execution id generator
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithProgressListener registers a callback receiving task counters of every execution
func WithProgressListener(fn func(progress.Progress)) Option {
	return func(s *Service) {
		s.onProgress = fn
	}
}
