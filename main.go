package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/moepig/nexpose-kit/app"
	"github.com/moepig/nexpose-kit/config"
	"github.com/moepig/nexpose-kit/console"
	"github.com/moepig/nexpose-kit/reports"
)

func init() {
	// Register export collectors
	for _, c := range reports.Defaults() {
		reports.Register(c)
	}
}

func main() {
	// Command line arguments
	configPath := flag.String("config", "nexpose-kit.yaml", "Path to configuration file")
	logLevelStr := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	// Parse log level
	var logLevel slog.Level
	switch *logLevelStr {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level '%s' (must be debug, info, warn, or error)\n", *logLevelStr)
		flag.Usage()
		os.Exit(1)
	}

	// Initialize slog logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ctrl-C cancels the in-flight request; a second one terminates
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	context.AfterFunc(ctx, stop)

	// Run the application
	if err := run(ctx, *configPath); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("Interrupted")
			stop()
			os.Exit(130)
		}
		slog.Error("Application failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	slog.Info("Loading configuration", "config_path", configPath)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.Debug("Loaded configuration",
		"environments", cfg.EnvironmentNames(),
		"default_environment", cfg.DefaultEnvironment,
		"collectors", reports.List())

	a := app.New(cfg, console.New(os.Stdin, os.Stdout), app.NewNexposeClient)
	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		slog.Warn("Failed to finish run", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	slog.Info("Done!")
	return nil
}
