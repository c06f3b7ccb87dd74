package executor

import (
	"log/slog"
	"time"

	"github.com/viant/lakeflow/policy"
)

// Option is used to customise the executor instance.
type Option func(*Service)

// WithListener overrides the listener invoked after every executed task. Passing nil disables the
// callback entirely.
func WithListener(l Listener) Option {
	return func(s *Service) {
		s.listener = l
	}
}

// WithConfig sets executor config
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithPollInterval sets blocking task poll interval
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.config.PollInterval = interval
	}
}

// WithTimeout sets default blocking task timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.config.Timeout = timeout
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPolicy sets the action policy used when the context carries none
func WithPolicy(aPolicy *policy.Policy) Option {
	return func(s *Service) {
		s.policy = aPolicy
	}
}
