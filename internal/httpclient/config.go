package httpclient

import (
	"time"

	"github.com/aleister1102/apifileprocessor/internal/config"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout               time.Duration     // Per-request timeout, including reading the body
	InsecureSkipVerify    bool              // Skip TLS verification
	Proxy                 string            // Proxy URL (HTTP/SOCKS)
	UserAgent             string            // User-Agent sent with every request
	CustomHeaders         map[string]string // Custom headers to add to all requests
	MaxIdleConns          int               // Maximum idle connections
	MaxIdleConnsPerHost   int               // Maximum idle connections per host
	IdleConnTimeout       time.Duration     // Idle connection timeout
	TLSHandshakeTimeout   time.Duration     // TLS handshake timeout
	ExpectContinueTimeout time.Duration     // Expect 100-continue timeout
	DialTimeout           time.Duration     // Connection dial timeout
	KeepAlive             time.Duration     // Keep-alive duration
	EnableHTTP2           bool              // Enable HTTP/2 support
	MaxResponseSize       int64             // Maximum response body size in bytes (0 for no limit)
}

// DefaultHTTPClientConfig returns the default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:               time.Duration(config.DefaultHTTPTimeoutSecs) * time.Second,
		UserAgent:             config.DefaultUserAgent,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialTimeout:           10 * time.Second,
		KeepAlive:             30 * time.Second,
		EnableHTTP2:           true,
		MaxResponseSize:       512 * 1024 * 1024,
		CustomHeaders: map[string]string{
			"Accept": "application/json, */*",
		},
	}
}

// ConfigFromSettings overlays the user facing http_client section on the defaults
func ConfigFromSettings(settings config.HTTPClientSettings) HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	if settings.TimeoutSecs > 0 {
		cfg.Timeout = settings.Timeout()
	}
	cfg.InsecureSkipVerify = settings.InsecureSkipVerify
	cfg.EnableHTTP2 = settings.EnableHTTP2
	cfg.Proxy = settings.Proxy
	if settings.UserAgent != "" {
		cfg.UserAgent = settings.UserAgent
	}
	return cfg
}

// RetryConfigFromSettings converts the retry_config section
func RetryConfigFromSettings(rc config.RetryConfig) RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries:       rc.MaxRetries,
		BaseDelay:        rc.BaseDelay(),
		MaxDelay:         rc.MaxDelay(),
		EnableJitter:     rc.EnableJitter,
		RetryStatusCodes: rc.RetryStatusCodes,
	}
}
