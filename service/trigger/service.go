package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/lakeflow/service/messaging"
)

// Message requests a pipeline run
type Message struct {
	Pipeline string                 `json:"pipeline" yaml:"pipeline"`
	Seed     map[string]interface{} `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Starter starts a pipeline run and returns the execution id
type Starter interface {
	Trigger(ctx context.Context, pipeline string, seed map[string]interface{}) (string, error)
}

// Config represents trigger consumer configuration
type Config struct {
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// Backoff is the pause after a transient consume error
	Backoff time.Duration `json:"backoff,omitempty" yaml:"backoff,omitempty"`
}

// DefaultConfig returns the default consumer configuration
func DefaultConfig() Config {
	return Config{Workers: 1, Backoff: 100 * time.Millisecond}
}

// Service consumes run requests from a queue and starts pipelines
type Service struct {
	queue    messaging.Queue[Message]
	starter  Starter
	config   Config
	logger   *slog.Logger
	workers  []*worker
	workerWg sync.WaitGroup
	mu       sync.Mutex
}

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// Publish enqueues a run request
func (s *Service) Publish(ctx context.Context, message *Message) error {
	if message == nil || message.Pipeline == "" {
		return fmt.Errorf("pipeline name is required")
	}
	return s.queue.Publish(ctx, message)
}

// Start starts consuming workers
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.workers) > 0 {
		return fmt.Errorf("trigger consumer already started")
	}
	for i := 0; i < s.config.Workers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{id: i, service: s, ctx: workerCtx, cancelFn: cancel}
		s.workers = append(s.workers, w)
		s.workerWg.Add(1)
		go w.run()
	}
	return nil
}

// Shutdown stops workers and waits for them to exit
func (s *Service) Shutdown() {
	s.mu.Lock()
	workers := s.workers
	s.workers = nil
	s.mu.Unlock()
	for _, w := range workers {
		w.cancelFn()
	}
	s.workerWg.Wait()
}

func (w *worker) run() {
	defer w.service.workerWg.Done()
	for {
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, messaging.ErrClosed) || w.ctx.Err() != nil {
				return
			}
			w.service.logger.Warn("failed to consume trigger", slog.Int("worker", w.id), slog.Any("error", err))
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(w.service.config.Backoff):
			}
			continue
		}
		if msg == nil {
			continue
		}
		w.service.handle(w.ctx, msg)
	}
}

// handle starts the requested run; the message is acknowledged once the run started
func (s *Service) handle(ctx context.Context, msg messaging.Message[Message]) {
	request := msg.T()
	logger := s.logger.With(slog.String("message", msg.ID()), slog.String("pipeline", request.Pipeline))
	executionID, err := s.starter.Trigger(ctx, request.Pipeline, request.Seed)
	if err != nil {
		logger.Error("failed to start pipeline", slog.Any("error", err))
		if nErr := msg.Nack(err); nErr != nil {
			logger.Warn("failed to nack trigger", slog.Any("error", nErr))
		}
		return
	}
	if err = msg.Ack(); err != nil {
		logger.Warn("failed to ack trigger", slog.Any("error", err))
	}
	logger.Info("pipeline started", slog.String("execution", executionID))
}

// New creates a trigger consumer
func New(queue messaging.Queue[Message], starter Starter, options ...Option) *Service {
	s := &Service{
		queue:   queue,
		starter: starter,
		config:  DefaultConfig(),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.config.Workers <= 0 {
		s.config.Workers = 1
	}
	if s.config.Backoff <= 0 {
		s.config.Backoff = DefaultConfig().Backoff
	}
	return s
}
