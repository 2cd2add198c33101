package logger

import (
	"github.com/aleister1102/apifileprocessor/internal/config"

	"github.com/rs/zerolog"
)

// Logger wraps the configured zerolog instance
type Logger struct {
	zerolog zerolog.Logger
}

// GetZerolog returns the underlying zerolog instance
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zerolog
}

// New creates a new logger instance from the application log config
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	logger, err := NewLoggerBuilder().WithConfig(cfg).Build()
	if err != nil {
		return zerolog.Logger{}, err
	}
	return *logger.GetZerolog(), nil
}
