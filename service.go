package lakeflow

import (
	"fmt"
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/lakeflow/extension"
	"github.com/viant/lakeflow/model"
	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/progress"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/action/catalog"
	"github.com/viant/lakeflow/service/action/function"
	"github.com/viant/lakeflow/service/action/nop"
	aquery "github.com/viant/lakeflow/service/action/query"
	astorage "github.com/viant/lakeflow/service/action/storage"
	tcatalog "github.com/viant/lakeflow/service/catalog"
	"github.com/viant/lakeflow/service/dao"
	fsdao "github.com/viant/lakeflow/service/dao/execution/fs"
	ememory "github.com/viant/lakeflow/service/dao/execution/memory"
	"github.com/viant/lakeflow/service/executor"
	"github.com/viant/lakeflow/service/guard"
	"github.com/viant/lakeflow/service/messaging"
	mmemory "github.com/viant/lakeflow/service/messaging/memory"
	"github.com/viant/lakeflow/service/meta"
	"github.com/viant/lakeflow/service/processor"
	"github.com/viant/lakeflow/service/query"
	qmemory "github.com/viant/lakeflow/service/query/memory"
	sstorage "github.com/viant/lakeflow/service/storage"
	"github.com/viant/lakeflow/service/trigger"
)

// Service wires lakeflow services together
type Service struct {
	config            *Config
	logger            *slog.Logger
	runtime           *Runtime
	fs                afs.Service
	metaService       *meta.Service
	metaBaseURL       string
	metaFsOptions     []storage.Option
	actions           *extension.Actions
	extensionServices []types.Service
	functions         map[string]function.Func
	queryExecutor     query.Executor
	queryTexts        *query.Texts
	catalog           *tcatalog.Catalog
	executionDAO      dao.Service[string, execution.Execution]
	queue             messaging.Queue[trigger.Message]
	stateListeners    []execution.StateListener
	onProgress        func(progress.Progress)
	pipelines         []*model.Pipeline
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}
	cleaner := sstorage.NewCleaner(s.fs, sstorage.Config{
		BaseURL:   s.config.Storage.BaseURL,
		BatchSize: s.config.Storage.BatchSize,
		MaxRounds: sstorage.DefaultConfig().MaxRounds,
	}, s.logger)
	s.actions = extension.NewActions(
		nop.New(),
		astorage.New(cleaner),
		catalog.New(s.catalog),
		aquery.New(s.queryExecutor, s.queryTexts, aquery.Defaults{
			Database:       s.config.Query.Database,
			Workgroup:      s.config.Query.Workgroup,
			OutputLocation: s.config.Query.OutputLocation,
		}),
		function.New(s.functions),
	)
	for _, service := range s.extensionServices {
		s.actions.Register(service)
	}
	executorOptions := []executor.Option{
		executor.WithConfig(executor.Config{
			PollInterval: s.config.Processor.PollIntervalDuration(),
			Timeout:      s.config.Processor.TaskTimeoutDuration(),
		}),
		executor.WithLogger(s.logger),
	}
	if !s.config.Policy.IsEmpty() {
		executorOptions = append(executorOptions, executor.WithPolicy(&s.config.Policy))
	}
	taskExecutor := executor.New(s.actions, executorOptions...)

	checker := guard.New(guard.NewLister(s.executionDAO), guard.Config{OldestWins: s.config.Guard.OldestWins}, s.logger)
	driver, err := processor.New(
		processor.WithTaskExecutor(taskExecutor),
		processor.WithExecutionDAO(s.executionDAO),
		processor.WithGuard(checker),
		processor.WithStateListeners(s.stateListeners...),
		processor.WithProgressListener(s.onProgress),
		processor.WithConfig(processor.Config{DefaultMaxConcurrency: s.config.Processor.DefaultMaxConcurrency}),
		processor.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}
	s.runtime = &Runtime{
		pipelines:    map[string]*model.Pipeline{},
		processor:    driver,
		executionDAO: s.executionDAO,
		catalog:      s.catalog,
		metaService:  s.metaService,
		environment:  s.config.Environment,
		logger:       s.logger,
	}
	s.runtime.trigger = trigger.New(s.queue, s.runtime, trigger.WithWorkers(s.config.Trigger.Workers), trigger.WithLogger(s.logger))
	return s.runtime.Register(s.pipelines...)
}

func (s *Service) ensureBaseSetup() error {
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
	if s.queryExecutor == nil {
		s.queryExecutor = qmemory.New()
	}
	if s.queryTexts == nil {
		s.queryTexts = query.NewTexts(s.metaService, s.config.Query.TextsURL)
	}
	if s.catalog == nil {
		s.catalog = tcatalog.New(s.config.Environment)
	}
	if s.executionDAO == nil {
		if s.config.Store.URL == "" {
			s.executionDAO = ememory.New()
		} else {
			store, err := fsdao.New(s.fs, s.config.Store.URL, s.logger)
			if err != nil {
				return err
			}
			s.executionDAO = store
		}
	}
	if s.queue == nil {
		s.queue = mmemory.NewQueue[trigger.Message](mmemory.DefaultConfig())
	}
	return nil
}

// Runtime returns the pipeline runtime
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Actions returns registered action services
func (s *Service) Actions() *extension.Actions {
	return s.actions
}

// Catalog returns the table catalog
func (s *Service) Catalog() *tcatalog.Catalog {
	return s.catalog
}

// MetaService returns the definition asset loader
func (s *Service) MetaService() *meta.Service {
	return s.metaService
}

// RegisterExtensionServices registers additional action services
func (s *Service) RegisterExtensionServices(services ...types.Service) {
	for i := range services {
		s.actions.Register(services[i])
	}
}

// New creates a lakeflow service
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig(), logger: slog.Default()}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}
