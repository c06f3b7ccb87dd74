package lakeflow

import (
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/lakeflow/model"
	"github.com/viant/lakeflow/model/types"
	"github.com/viant/lakeflow/progress"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/action/function"
	"github.com/viant/lakeflow/service/catalog"
	"github.com/viant/lakeflow/service/dao"
	"github.com/viant/lakeflow/service/messaging"
	"github.com/viant/lakeflow/service/meta"
	"github.com/viant/lakeflow/service/query"
	"github.com/viant/lakeflow/service/trigger"
	"github.com/viant/lakeflow/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option represents lakeflow service option
type Option func(s *Service)

// WithConfig sets engine configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithLogger sets the logger shared by all services
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileSystem sets the file system used by storage cleanup and the file execution store
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the meta base URL
func WithMetaBaseURL(url string) Option {
	return func(s *Service) {
		s.metaBaseURL = url
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithQueryExecutor sets the query executor
func WithQueryExecutor(executor query.Executor) Option {
	return func(s *Service) {
		s.queryExecutor = executor
	}
}

// WithQueryTexts sets named query texts
func WithQueryTexts(texts *query.Texts) Option {
	return func(s *Service) {
		s.queryTexts = texts
	}
}

// WithCatalog sets the table catalog
func WithCatalog(aCatalog *catalog.Catalog) Option {
	return func(s *Service) {
		s.catalog = aCatalog
	}
}

// WithExecutionDAO sets the execution store
func WithExecutionDAO(executionDAO dao.Service[string, execution.Execution]) Option {
	return func(s *Service) {
		s.executionDAO = executionDAO
	}
}

// WithFunctions registers transformer functions invoked by the function action
func WithFunctions(funcs map[string]function.Func) Option {
	return func(s *Service) {
		if s.functions == nil {
			s.functions = map[string]function.Func{}
		}
		for name, fn := range funcs {
			s.functions[name] = fn
		}
	}
}

// WithExtensionServices sets additional action services
func WithExtensionServices(services ...types.Service) Option {
	return func(s *Service) {
		s.extensionServices = append(s.extensionServices, services...)
	}
}

// WithPipelines registers pipeline definitions
func WithPipelines(pipelines ...*model.Pipeline) Option {
	return func(s *Service) {
		s.pipelines = append(s.pipelines, pipelines...)
	}
}

// WithQueue sets the trigger inbox
func WithQueue(queue messaging.Queue[trigger.Message]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithStateListeners registers run state listeners
func WithStateListeners(listeners ...execution.StateListener) Option {
	return func(s *Service) {
		s.stateListeners = append(s.stateListeners, listeners...)
	}
}

// WithProgressListener registers a callback receiving task counters of every execution
func WithProgressListener(fn func(progress.Progress)) Option {
	return func(s *Service) {
		s.onProgress = fn
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
