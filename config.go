package lakeflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/viant/lakeflow/model"
	"github.com/viant/lakeflow/policy"
	"github.com/viant/lakeflow/service/meta"
	"github.com/viant/lakeflow/service/storage"
)

// Config is a serialisable representation of the engine configuration. It can be
// loaded from YAML or JSON; zero values inherit package defaults.
type Config struct {
	// Environment is exposed to pipelines as dc_environment
	Environment string          `json:"environment" yaml:"environment"`
	Processor   ProcessorConfig `json:"processor" yaml:"processor"`
	Storage     StorageConfig   `json:"storage" yaml:"storage"`
	Query       QueryConfig     `json:"query" yaml:"query"`
	Store       StoreConfig     `json:"store" yaml:"store"`
	Guard       GuardConfig     `json:"guard" yaml:"guard"`
	Trigger     TriggerConfig   `json:"trigger" yaml:"trigger"`
	// Policy gates task actions by service.method
	Policy policy.Policy `json:"policy" yaml:"policy"`
}

type ProcessorConfig struct {
	PollInterval          string `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
	TaskTimeout           string `json:"taskTimeout,omitempty" yaml:"taskTimeout,omitempty"`
	DefaultMaxConcurrency int    `json:"defaultMaxConcurrency,omitempty" yaml:"defaultMaxConcurrency,omitempty"`
}

type StorageConfig struct {
	BaseURL   string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	BatchSize int    `json:"batchSize,omitempty" yaml:"batchSize,omitempty"`
}

type QueryConfig struct {
	// TextsURL is the location of named query texts (<name>.sql)
	TextsURL       string `json:"textsURL,omitempty" yaml:"textsURL,omitempty"`
	Database       string `json:"database,omitempty" yaml:"database,omitempty"`
	Workgroup      string `json:"workgroup,omitempty" yaml:"workgroup,omitempty"`
	OutputLocation string `json:"outputLocation,omitempty" yaml:"outputLocation,omitempty"`
}

type StoreConfig struct {
	// URL enables the file based execution store; executions are kept in memory when empty
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

type GuardConfig struct {
	OldestWins bool `json:"oldestWins,omitempty" yaml:"oldestWins,omitempty"`
}

type TriggerConfig struct {
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// DefaultConfig returns a Config populated with default values
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Processor: ProcessorConfig{
			PollInterval: "5s",
			TaskTimeout:  "10m",
		},
		Storage: StorageConfig{
			BaseURL:   storage.DefaultConfig().BaseURL,
			BatchSize: storage.DefaultConfig().BatchSize,
		},
		Trigger: TriggerConfig{Workers: 1},
	}
}

// PollIntervalDuration returns blocking task poll interval
func (c *ProcessorConfig) PollIntervalDuration() time.Duration {
	return duration(c.PollInterval, 5*time.Second)
}

// TaskTimeoutDuration returns default blocking task timeout
func (c *ProcessorConfig) TaskTimeoutDuration() time.Duration {
	return duration(c.TaskTimeout, 10*time.Minute)
}

func duration(text string, defaultValue time.Duration) time.Duration {
	if text == "" {
		return defaultValue
	}
	if ret, err := time.ParseDuration(text); err == nil && ret > 0 {
		return ret
	}
	return defaultValue
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var issues []error
	if !slices.Contains(model.Environments, c.Environment) {
		issues = append(issues, fmt.Errorf("environment must be one of %v, got %q", model.Environments, c.Environment))
	}
	for name, text := range map[string]string{"processor.pollInterval": c.Processor.PollInterval, "processor.taskTimeout": c.Processor.TaskTimeout} {
		if text == "" {
			continue
		}
		if value, err := time.ParseDuration(text); err != nil || value <= 0 {
			issues = append(issues, fmt.Errorf("%s: invalid duration %q", name, text))
		}
	}
	if c.Processor.DefaultMaxConcurrency < 0 {
		issues = append(issues, fmt.Errorf("processor.defaultMaxConcurrency must not be negative"))
	}
	if c.Storage.BatchSize < 0 {
		issues = append(issues, fmt.Errorf("storage.batchSize must not be negative"))
	}
	if c.Trigger.Workers < 0 {
		issues = append(issues, fmt.Errorf("trigger.workers must not be negative"))
	}
	if err := c.Policy.Validate(); err != nil {
		issues = append(issues, fmt.Errorf("policy: %w", err))
	}
	return errors.Join(issues...)
}

// LoadConfig loads configuration over the defaults
func LoadConfig(ctx context.Context, metaService *meta.Service, location string) (*Config, error) {
	ret := DefaultConfig()
	if err := metaService.Load(ctx, location, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", location, err)
	}
	return ret, nil
}
