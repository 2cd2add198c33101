package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/aleister1102/apifileprocessor/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := ParseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	env, err := config.LoadEnv(config.GetEnvPath(flags.EnvFile))
	if err != nil {
		log.Printf("[FATAL] Main: %v", err)
		return 1
	}

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		log.Printf("[FATAL] Main: %v", err)
		return 1
	}
	config.ApplyEnv(cfg, env)
	resolveRuntimePaths(cfg, config.RootDir(cfg.SourcePath))

	zLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		log.Printf("[FATAL] Main: could not initialize logger: %v", err)
		return 1
	}
	for _, warning := range env.Warnings {
		zLogger.Warn().Str("env_file", env.FilePath).Msg(warning)
	}
	zLogger.Info().
		Str("config", cfg.SourcePath).
		Int("folders", len(cfg.Folders)).
		Bool("watch", flags.Watch).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, zLogger)
	if err != nil {
		zLogger.Error().Err(err).Msg("Failed to initialize")
		return 1
	}
	defer a.Close()

	sum, err := a.runner.Run(ctx, cfg.Folders)
	if err != nil {
		zLogger.Warn().Err(err).Msg("Run interrupted, in-flight jobs were abandoned")
	}

	if flags.Watch && ctx.Err() == nil {
		if err := a.watch(ctx); err != nil {
			zLogger.Error().Err(err).Msg("Watch mode stopped")
			return 1
		}
	}

	zLogger.Info().Int("exit_code", sum.ExitCode()).Msg("Shutting down")
	return sum.ExitCode()
}
