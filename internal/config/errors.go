package config

import (
	"fmt"
	"strings"
)

// ConfigError reports an unusable configuration. It is fatal at startup and
// aborts a single folder when raised by CheckFolder.
type ConfigError struct {
	Source string // config file or folder the problem was found in
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Source != "" {
		fmt.Fprintf(&b, " in '%s'", e.Source)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ", field '%s'", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Kind labels the error in logs and history records
func (e *ConfigError) Kind() string {
	return "ConfigError"
}

// NewConfigError creates a new configuration error
func NewConfigError(source, field, reason string, err error) *ConfigError {
	return &ConfigError{
		Source: source,
		Field:  field,
		Reason: reason,
		Err:    err,
	}
}
