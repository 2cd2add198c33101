package config

import "time"

// LifecycleConfig bounds the submit/poll/fetch cycle of a single job
type LifecycleConfig struct {
	PollIntervalSecs     int    `json:"poll_interval_secs,omitempty" yaml:"poll_interval_secs,omitempty" validate:"min=0"`
	MaxPollIntervalSecs  int    `json:"max_poll_interval_secs,omitempty" yaml:"max_poll_interval_secs,omitempty" validate:"min=0"`
	MaxPollAttempts      int    `json:"max_poll_attempts,omitempty" yaml:"max_poll_attempts,omitempty" validate:"min=1"`
	JobTimeoutSecs       int    `json:"job_timeout_secs,omitempty" yaml:"job_timeout_secs,omitempty" validate:"min=1"`
	InitialPollDelaySecs int    `json:"initial_poll_delay_secs" yaml:"initial_poll_delay_secs" validate:"min=0"`
	SubmitRetries        int    `json:"submit_retries" yaml:"submit_retries" validate:"min=0,max=10"`
	MaxPollErrors        int    `json:"max_poll_errors,omitempty" yaml:"max_poll_errors,omitempty" validate:"min=1"`
	OutputNaming         string `json:"output_naming,omitempty" yaml:"output_naming,omitempty" validate:"omitempty,outputnaming"`
	// MaxFileSizeMB refuses larger source files before they are read, 0 for no limit
	MaxFileSizeMB int `json:"max_file_size_mb" yaml:"max_file_size_mb" validate:"min=0"`
}

// NewDefaultLifecycleConfig creates default lifecycle configuration
func NewDefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		PollIntervalSecs:     DefaultPollIntervalSecs,
		MaxPollIntervalSecs:  DefaultMaxPollIntervalSecs,
		MaxPollAttempts:      DefaultMaxPollAttempts,
		JobTimeoutSecs:       DefaultJobTimeoutSecs,
		InitialPollDelaySecs: DefaultInitialPollDelaySecs,
		SubmitRetries:        DefaultSubmitRetries,
		MaxPollErrors:        DefaultMaxPollErrors,
		OutputNaming:         OutputNamingJobID,
		MaxFileSizeMB:        DefaultMaxFileSizeMB,
	}
}

// PollInterval returns the base wait between two status calls
func (lc LifecycleConfig) PollInterval() time.Duration {
	return time.Duration(lc.PollIntervalSecs) * time.Second
}

// MaxPollInterval returns the cap applied to server wait hints and backoff
func (lc LifecycleConfig) MaxPollInterval() time.Duration {
	return time.Duration(lc.MaxPollIntervalSecs) * time.Second
}

// JobTimeout returns the overall deadline of one job
func (lc LifecycleConfig) JobTimeout() time.Duration {
	return time.Duration(lc.JobTimeoutSecs) * time.Second
}

// MaxFileSize returns the source size limit in bytes, 0 for no limit
func (lc LifecycleConfig) MaxFileSize() int64 {
	return int64(lc.MaxFileSizeMB) * 1024 * 1024
}

// InitialPollDelay returns the wait between upload and the first status call
func (lc LifecycleConfig) InitialPollDelay() time.Duration {
	return time.Duration(lc.InitialPollDelaySecs) * time.Second
}
