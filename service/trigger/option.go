package trigger

import "log/slog"

// Option represents trigger consumer option
type Option func(s *Service)

// WithConfig sets consumer configuration
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithWorkers sets number of consuming workers
func WithWorkers(workers int) Option {
	return func(s *Service) {
		s.config.Workers = workers
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
