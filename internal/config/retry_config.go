package config

import "time"

// RetryConfig defines configuration for HTTP request retries
type RetryConfig struct {
	// Maximum number of retries after the first attempt
	MaxRetries int `json:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`
	// Base delay in milliseconds for exponential backoff
	BaseDelayMs int `json:"base_delay_ms,omitempty" yaml:"base_delay_ms,omitempty" validate:"min=0,max=300000"`
	// Maximum delay in milliseconds for exponential backoff
	MaxDelayMs int `json:"max_delay_ms,omitempty" yaml:"max_delay_ms,omitempty" validate:"min=0,max=3600000"`
	// Enable jitter to randomize delays slightly
	EnableJitter bool `json:"enable_jitter" yaml:"enable_jitter"`
	// HTTP status codes that should trigger retries
	RetryStatusCodes []int `json:"retry_status_codes,omitempty" yaml:"retry_status_codes,omitempty" validate:"dive,min=100,max=599"`
}

// NewDefaultRetryConfig creates default retry configuration
func NewDefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:       DefaultRetryMaxRetries,
		BaseDelayMs:      DefaultRetryBaseDelayMs,
		MaxDelayMs:       DefaultRetryMaxDelayMs,
		EnableJitter:     true,
		RetryStatusCodes: []int{429, 502, 503, 504},
	}
}

// BaseDelay returns the base delay as a duration
func (rc RetryConfig) BaseDelay() time.Duration {
	return time.Duration(rc.BaseDelayMs) * time.Millisecond
}

// MaxDelay returns the delay cap as a duration
func (rc RetryConfig) MaxDelay() time.Duration {
	return time.Duration(rc.MaxDelayMs) * time.Millisecond
}
