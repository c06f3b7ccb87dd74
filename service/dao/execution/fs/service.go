package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/lakeflow/runtime/execution"
	"github.com/viant/lakeflow/service/dao"
	"github.com/viant/lakeflow/service/dao/criteria"
)

// Service implements an afs backed execution storage, one JSON document per execution
type Service struct {
	baseURL string
	fs      afs.Service
	logger  *slog.Logger
	mu      sync.RWMutex
}

var _ dao.Service[string, execution.Execution] = (*Service)(nil)

// Save persists an execution
func (s *Service) Save(ctx context.Context, anExecution *execution.Execution) error {
	if anExecution == nil {
		return dao.ErrNilEntity
	}
	if anExecution.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(anExecution.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.executionURL(anExecution.ID)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save execution to %s: %w", URL, err)
	}
	return nil
}

// Load retrieves an execution
func (s *Service) Load(ctx context.Context, id string) (*execution.Execution, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.executionURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check if execution exists: %w", err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read execution %s: %w", URL, err)
	}
	ret := &execution.Execution{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", URL, err)
	}
	return ret, nil
}

// Delete removes an execution
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.executionURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check if execution exists: %w", err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err := s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete execution %s: %w", URL, err)
	}
	return nil
}

// List returns stored executions matching Pipeline and Status parameters
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if exists, _ := s.fs.Exists(ctx, s.baseURL); !exists {
		return nil, nil
	}
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	var result []*execution.Execution
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("failed to read execution", slog.String("url", object.URL()), slog.Any("error", err))
			continue
		}
		anExecution := &execution.Execution{}
		if err := json.Unmarshal(data, anExecution); err != nil {
			s.logger.Warn("failed to unmarshal execution", slog.String("url", object.URL()), slog.Any("error", err))
			continue
		}
		values := map[string]string{
			dao.ParameterPipeline: anExecution.Pipeline,
			dao.ParameterStatus:   string(anExecution.Status),
		}
		if criteria.Match(values, parameters) {
			result = append(result, anExecution)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Service) executionURL(id string) string {
	return url.Join(s.baseURL, id+".json")
}

// New creates an execution storage rooted at baseURL (file path, mem://, s3:// ...)
func New(fs afs.Service, baseURL string, logger *slog.Logger) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		baseURL: url.Normalize(baseURL, file.Scheme),
		fs:      fs,
		logger:  logger,
	}, nil
}
