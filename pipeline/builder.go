package pipeline

import (
	"log/slog"

	"github.com/c360/streamkit/codec"
	"github.com/c360/streamkit/config"
	"github.com/c360/streamkit/errors"
)

// FromConfig assembles an initialized pipeline from configuration. Each
// stage's codec must already be registered via codec.RegisterCodec; the
// returned pipeline is ready for Start.
func FromConfig(cfg *config.PipelineConfig, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "FromConfig",
			"pipeline configuration required")
	}

	opts = append(opts,
		WithLogger(logger),
		WithQueueCapacity(cfg.QueueCapacity),
	)
	p, err := New(cfg.Name, opts...)
	if err != nil {
		return nil, err
	}

	for _, sc := range cfg.Stages {
		decode, ok := codec.LookupCodec(sc.Codec)
		if !ok {
			return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Pipeline", "FromConfig",
				"unknown codec "+sc.Codec+" for stage "+sc.Name)
		}

		types, err := sc.ParseAcceptedTypes()
		if err != nil {
			return nil, err
		}

		stage, err := codec.NewDecoder(sc.Name, decode, p.registry,
			codec.WithAcceptedTypes(types...),
			codec.WithLogger(p.logger))
		if err != nil {
			return nil, err
		}
		if err := p.AddStage(stage); err != nil {
			return nil, err
		}
	}

	if err := p.Initialize(); err != nil {
		return nil, err
	}
	return p, nil
}
