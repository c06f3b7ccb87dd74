package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/lakeflow/internal/yml"
)

// Service loads definition assets (pipelines, query texts, fixtures) from any afs location
type Service struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
}

// URL returns absolute URL; relative locations are resolved against the base URL
func (s *Service) URL(location string) string {
	if s.baseURL == "" || strings.Contains(location, "://") || strings.HasPrefix(location, "/") {
		return location
	}
	return url.Join(s.baseURL, location)
}

// Download returns raw asset content
func (s *Service) Download(ctx context.Context, location string) ([]byte, error) {
	URL := s.URL(location)
	data, err := s.fs.DownloadWithURL(ctx, URL, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to download %v: %w", URL, err)
	}
	return data, nil
}

// Exists returns true if asset exists
func (s *Service) Exists(ctx context.Context, location string) bool {
	ok, _ := s.fs.Exists(ctx, s.URL(location), s.options...)
	return ok
}

// List returns URLs of assets under location with one of supplied extensions
func (s *Service) List(ctx context.Context, location string, extensions ...string) ([]string, error) {
	URL := s.URL(location)
	options := append([]storage.Option{option.NewRecursive(true)}, s.options...)
	objects, err := s.fs.List(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %v: %w", URL, err)
	}
	var result []string
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		if len(extensions) > 0 && !hasExtension(object.Name(), extensions) {
			continue
		}
		result = append(result, object.URL())
	}
	return result, nil
}

// Load decodes a YAML or JSON asset into dest, expanding ${env.KEY} in values
func (s *Service) Load(ctx context.Context, location string, dest interface{}) error {
	data, err := s.Download(ctx, location)
	if err != nil {
		return err
	}
	URL := s.URL(location)
	switch strings.ToLower(path.Ext(URL)) {
	case ".json":
		if err = json.Unmarshal([]byte(expandEnvExpr(string(data))), dest); err != nil {
			return fmt.Errorf("failed to decode %v: %w", URL, err)
		}
		return nil
	default:
		node, err := yml.Parse(data)
		if err != nil {
			return fmt.Errorf("failed to parse %v: %w", URL, err)
		}
		node.Expand(expandEnvExpr)
		if err = node.Decode(dest); err != nil {
			return fmt.Errorf("failed to decode %v: %w", URL, err)
		}
		return nil
	}
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, candidate := range extensions {
		if ext == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

// New creates a meta service
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs, baseURL: baseURL, options: options}
}
