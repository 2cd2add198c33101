package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aleister1102/apifileprocessor/internal/common/filemanager"
	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/aleister1102/apifileprocessor/internal/dispatcher"
	"github.com/aleister1102/apifileprocessor/internal/history"
	"github.com/aleister1102/apifileprocessor/internal/httpclient"
	"github.com/aleister1102/apifileprocessor/internal/jobclient"
	"github.com/aleister1102/apifileprocessor/internal/lifecycle"
	"github.com/aleister1102/apifileprocessor/internal/notifier"
	"github.com/aleister1102/apifileprocessor/internal/runner"
	"github.com/aleister1102/apifileprocessor/internal/watcher"
	"github.com/rs/zerolog"
)

// app holds the wired components of one process
type app struct {
	cfg     *config.GlobalConfig
	runner  *runner.Runner
	history *history.Store
	logger  zerolog.Logger
}

func newApp(cfg *config.GlobalConfig, logger zerolog.Logger) (*app, error) {
	httpClient, err := httpclient.NewHTTPClientBuilder(logger).
		WithConfig(httpclient.ConfigFromSettings(cfg.HTTPClient)).
		WithRetry(httpclient.RetryConfigFromSettings(cfg.RetryConfig)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	api := jobclient.NewClient(httpClient, jobclient.OptionsFromConfig(cfg.API), logger)
	if cfg.API.APIKey == "" {
		logger.Warn().Msg("API_KEY is not set, using the API as guest")
	}

	files := filemanager.NewFileManager(logger)
	jobs := lifecycle.NewRunner(api, files, lifecycle.PolicyFromConfig(cfg.Lifecycle, cfg.RetryConfig), logger)
	disp := dispatcher.NewDispatcher(jobs, files, cfg.Runner.MaxConcurrentFiles, logger)

	a := &app{
		cfg:    cfg,
		runner: runner.NewRunner(disp, cfg.Runner.MaxConcurrentFolders, logger).WithConfigPath(cfg.SourcePath),
		logger: logger,
	}

	if cfg.StorageConfig.SQLiteDBPath != "" {
		store, err := history.NewStore(cfg.StorageConfig.SQLiteDBPath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("History store unavailable, runs will not be recorded")
		} else {
			a.history = store
			a.runner.WithHistory(store)
		}
	}

	if cfg.NotificationConfig.DiscordWebhookURL != "" {
		dn, err := notifier.NewDiscordNotifier(logger, httpClient)
		if err != nil {
			logger.Warn().Err(err).Msg("Discord notifier unavailable")
		} else {
			a.runner.WithNotifier(notifier.NewNotificationHelper(dn, cfg.NotificationConfig, logger))
		}
	}

	return a, nil
}

// Close releases the history store
func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close history store")
		}
	}
}

// watch processes folders again whenever new files appear, until ctx is done
func (a *app) watch(ctx context.Context) error {
	var folders []config.FolderConfig
	for _, fc := range a.cfg.Folders {
		if err := config.CheckFolder(fc); err != nil {
			a.logger.Error().Err(err).Str("folder", fc.FolderPath).Msg("Folder is not watched")
			continue
		}
		folders = append(folders, fc)
	}
	if len(folders) == 0 {
		return fmt.Errorf("no folder can be watched")
	}

	w, err := watcher.NewWatcher(folders, a.cfg.Runner.WatchDebounce(), a.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	a.logger.Info().Int("folders", len(folders)).Msg("Watching folders for new files, press Ctrl+C to stop")
	return w.Run(ctx, func(ctx context.Context, fc config.FolderConfig) {
		_, _ = a.runner.Run(ctx, []config.FolderConfig{fc})
	})
}

// resolveRuntimePaths anchors relative log and database paths to rootDir
func resolveRuntimePaths(cfg *config.GlobalConfig, rootDir string) {
	cfg.LogConfig.LogFile = anchor(rootDir, cfg.LogConfig.LogFile)
	cfg.StorageConfig.SQLiteDBPath = anchor(rootDir, cfg.StorageConfig.SQLiteDBPath)
}

func anchor(rootDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}
