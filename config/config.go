package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/streamkit/errors"
	"github.com/c360/streamkit/message"
)

// Defaults applied by Load for fields the file leaves unset.
const (
	DefaultQueueCapacity = 64
	DefaultMetricsPort   = 9090
	DefaultMetricsPath   = "/metrics"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
)

// Config is the complete service configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PipelineConfig describes the stage chain.
type PipelineConfig struct {
	// Name identifies the pipeline in logs and metric labels.
	Name string `yaml:"name"`

	// QueueCapacity bounds every inter-stage queue.
	QueueCapacity int `yaml:"queue_capacity"`

	// Stages run in declaration order.
	Stages []StageConfig `yaml:"stages"`
}

// StageConfig describes one decoder stage.
type StageConfig struct {
	// Name is the stage's unique name within the pipeline.
	Name string `yaml:"name"`

	// Codec names the registered decode transform for this stage.
	Codec string `yaml:"codec"`

	// AcceptedTypes lists dotted type keys (domain.category.version) the
	// stage decodes; everything else passes through. Empty accepts all.
	AcceptedTypes []string `yaml:"accepted_types"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`
}

// Load reads, defaults, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Config", "Load", "read config file")
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Parse", "decode yaml")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.QueueCapacity == 0 {
		c.Pipeline.QueueCapacity = DefaultQueueCapacity
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.Pipeline.Name == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"pipeline.name required")
	}
	if c.Pipeline.QueueCapacity < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"pipeline.queue_capacity must be positive")
	}
	if len(c.Pipeline.Stages) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"at least one stage required")
	}

	seen := make(map[string]struct{}, len(c.Pipeline.Stages))
	for i, s := range c.Pipeline.Stages {
		if s.Name == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
				fmt.Sprintf("stages[%d].name required", i))
		}
		if _, dup := seen[s.Name]; dup {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"duplicate stage name "+s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Codec == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
				fmt.Sprintf("stages[%d].codec required", i))
		}
		if _, err := s.ParseAcceptedTypes(); err != nil {
			return err
		}
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("metrics.port %d out of range", c.Metrics.Port))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"logging.level must be debug, info, warn, or error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"logging.format must be json or text")
	}

	return nil
}

// ParseAcceptedTypes converts the dotted type keys into type descriptors.
func (s StageConfig) ParseAcceptedTypes() ([]message.Type, error) {
	types := make([]message.Type, 0, len(s.AcceptedTypes))
	for _, key := range s.AcceptedTypes {
		t, err := message.ParseType(key)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Config", "ParseAcceptedTypes",
				"stage "+s.Name)
		}
		types = append(types, t)
	}
	return types, nil
}
