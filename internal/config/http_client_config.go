package config

import "time"

// HTTPClientSettings configures the transport used for every API call
type HTTPClientSettings struct {
	TimeoutSecs        int    `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"min=0,max=3600"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	EnableHTTP2        bool   `json:"enable_http2" yaml:"enable_http2"`
	Proxy              string `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	UserAgent          string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// NewDefaultHTTPClientSettings creates default HTTP client settings
func NewDefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		TimeoutSecs: DefaultHTTPTimeoutSecs,
		EnableHTTP2: true,
		UserAgent:   DefaultUserAgent,
	}
}

// Timeout returns the per-request timeout
func (s HTTPClientSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}
