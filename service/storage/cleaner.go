package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// Config represents storage cleaner configuration
type Config struct {
	// BaseURL is prepended to bucket names, e.g. s3:// or mem://localhost/
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	// BatchSize is the number of objects deleted between progress checks
	BatchSize int `json:"batchSize,omitempty" yaml:"batchSize,omitempty"`
	// MaxRounds limits list-then-delete rounds for prefixes that keep growing
	MaxRounds int `json:"maxRounds,omitempty" yaml:"maxRounds,omitempty"`
}

// DefaultConfig returns default cleaner configuration
func DefaultConfig() Config {
	return Config{BaseURL: "s3://", BatchSize: 1000, MaxRounds: 100}
}

// Cleaner deletes objects under bucket prefixes
type Cleaner struct {
	fs     afs.Service
	config Config
	logger *slog.Logger
}

// URL returns location of bucket prefix
func (c *Cleaner) URL(bucket, prefix string) string {
	base := c.config.BaseURL
	var bucketURL string
	if strings.HasSuffix(base, "://") {
		bucketURL = base + bucket
	} else {
		bucketURL = strings.TrimRight(base, "/") + "/" + bucket
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return bucketURL
	}
	return url.Join(bucketURL, prefix)
}

// Objects returns objects (files only) under bucket prefix
func (c *Cleaner) Objects(ctx context.Context, bucket, prefix string) ([]storage.Object, error) {
	URL := c.URL(bucket, prefix)
	exists, err := c.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check %v: %w", URL, err)
	}
	if !exists {
		return nil, nil
	}
	objects, err := c.fs.List(ctx, URL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list %v: %w", URL, err)
	}
	var result []storage.Object
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		result = append(result, object)
	}
	return result, nil
}

// DeleteAllUnderPrefix deletes every object under bucket prefix and returns the deleted object count.
// A missing prefix deletes nothing; listing repeats until the prefix is empty.
func (c *Cleaner) DeleteAllUnderPrefix(ctx context.Context, bucket, prefix string) (int, error) {
	if bucket == "" {
		return 0, fmt.Errorf("bucket was empty")
	}
	URL := c.URL(bucket, prefix)
	batchSize := c.config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultConfig().BatchSize
	}
	maxRounds := c.config.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultConfig().MaxRounds
	}
	total := 0
	for round := 0; round < maxRounds; round++ {
		objects, err := c.Objects(ctx, bucket, prefix)
		if err != nil {
			return total, err
		}
		if len(objects) == 0 {
			break
		}
		for start := 0; start < len(objects); start += batchSize {
			if err = ctx.Err(); err != nil {
				return total, err
			}
			end := start + batchSize
			if end > len(objects) {
				end = len(objects)
			}
			for _, object := range objects[start:end] {
				if err = c.fs.Delete(ctx, object.URL()); err != nil {
					return total, fmt.Errorf("failed to delete %v: %w", object.URL(), err)
				}
				total++
			}
			c.logger.Debug("deleted batch", slog.String("url", URL), slog.Int("count", end-start))
		}
	}
	if strings.Trim(prefix, "/") != "" {
		exists, err := c.fs.Exists(ctx, URL)
		if err != nil {
			return total, fmt.Errorf("failed to check %v: %w", URL, err)
		}
		if exists {
			if err = c.fs.Delete(ctx, URL); err != nil {
				return total, fmt.Errorf("failed to delete %v: %w", URL, err)
			}
		}
	}
	c.logger.Info("prefix cleaned", slog.String("url", URL), slog.Int("deleted", total))
	return total, nil
}

// NewCleaner creates a cleaner
func NewCleaner(fs afs.Service, config Config, logger *slog.Logger) *Cleaner {
	if fs == nil {
		fs = afs.New()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{fs: fs, config: config, logger: logger}
}
