// Package main implements framepipe, a line-oriented decoding pipeline.
// It reads newline-delimited frames from stdin, runs them through the
// configured decoder stages, and writes the decoded units to stdout as
// JSON, with Prometheus metrics on the side.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/c360/streamkit/config"
	cerrors "github.com/c360/streamkit/errors"
	"github.com/c360/streamkit/message"
	"github.com/c360/streamkit/metric"
	"github.com/c360/streamkit/pipeline"
	"github.com/c360/streamkit/pkg/retry"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "framepipe"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}

	// CLI flags win over the file for logging
	level := cfg.Logging.Level
	if cliCfg.LogLevel != "" {
		level = cliCfg.LogLevel
	}
	format := cfg.Logging.Format
	if cliCfg.LogFormat != "" {
		format = cliCfg.LogFormat
	}
	logger := setupLogger(level, format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "config_path", cliCfg.ConfigPath)
		return nil
	}

	slog.Info("Starting framepipe",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath,
		"pipeline", cfg.Pipeline.Name)

	registry := metric.NewMetricsRegistry()

	out := bufio.NewWriter(os.Stdout)
	defer func() { _ = out.Flush() }()
	enc := json.NewEncoder(out)

	outlet := pipeline.OutletFunc(func(msg message.Message) bool {
		if err := enc.Encode(msg); err != nil {
			logger.Error("Failed to encode output unit",
				"unit_id", msg.ID(),
				"error", err)
		}
		return true
	})

	p, err := pipeline.FromConfig(&cfg.Pipeline, logger,
		pipeline.WithMetricsRegistry(registry),
		pipeline.WithOutlet(outlet))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		g.Go(metricsServer.Start)
		logger.Info("Metrics server listening", "address", metricsServer.Address())
	}

	g.Go(func() error {
		// EOF on stdin ends the run
		defer stop()
		return feedStdin(gctx, p, logger)
	})

	<-gctx.Done()

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Warn("Failed to stop metrics server", "error", err)
		}
	}
	if err := p.Stop(cliCfg.ShutdownTimeout); err != nil {
		logger.Warn("Pipeline shutdown incomplete", "error", err)
	}

	if err := g.Wait(); err != nil && !cerrors.IsTransient(err) && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("Shutdown complete")
	return nil
}

// feedStdin reads newline-delimited frames and offers them to the pipeline,
// pausing briefly whenever the inlet queue is full.
func feedStdin(ctx context.Context, p *pipeline.Pipeline, logger *slog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		frame := message.NewBaseMessage(message.RawType,
			message.NewRawPayload(line), appName)

		if err := retry.Do(ctx, retry.Backpressure(), func() error {
			return p.Feed(frame)
		}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("Failed to read input", "error", err)
		return err
	}
	return nil
}
