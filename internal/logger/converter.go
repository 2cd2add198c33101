package logger

import (
	"github.com/aleister1102/apifileprocessor/internal/config"
)

// convertConfig maps the log_config section to a LoggerConfig. An invalid
// level falls back to info and is reported alongside the usable config.
func convertConfig(cfg config.LogConfig) (LoggerConfig, error) {
	level, err := ParseLevel(cfg.LogLevel)

	lc := LoggerConfig{
		Level:         level,
		Format:        parseFormat(cfg.LogFormat),
		EnableConsole: true,
		EnableFile:    cfg.LogFile != "",
		FilePath:      cfg.LogFile,
		MaxSizeMB:     cfg.MaxLogSizeMB,
		MaxBackups:    cfg.MaxLogBackups,
	}
	if lc.MaxSizeMB <= 0 {
		lc.MaxSizeMB = config.DefaultMaxLogSizeMB
	}
	if lc.MaxBackups <= 0 {
		lc.MaxBackups = config.DefaultMaxLogBackups
	}
	return lc, err
}
