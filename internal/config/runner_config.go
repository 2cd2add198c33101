package config

import "time"

// RunnerConfig bounds concurrency across folders and files
type RunnerConfig struct {
	MaxConcurrentFiles   int `json:"max_concurrent_files,omitempty" yaml:"max_concurrent_files,omitempty" validate:"min=1,max=64"`
	MaxConcurrentFolders int `json:"max_concurrent_folders,omitempty" yaml:"max_concurrent_folders,omitempty" validate:"min=1,max=64"`
	WatchDebounceMs      int `json:"watch_debounce_ms,omitempty" yaml:"watch_debounce_ms,omitempty" validate:"min=0"`
}

// NewDefaultRunnerConfig creates default runner configuration
func NewDefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxConcurrentFiles:   DefaultMaxConcurrentFiles,
		MaxConcurrentFolders: DefaultMaxConcurrentFolders,
		WatchDebounceMs:      DefaultWatchDebounceMs,
	}
}

// WatchDebounce returns the quiet period before a watched folder is processed
func (rc RunnerConfig) WatchDebounce() time.Duration {
	return time.Duration(rc.WatchDebounceMs) * time.Millisecond
}
