package logger

import (
	"strings"

	"github.com/aleister1102/apifileprocessor/internal/common/errorwrapper"
	"github.com/rs/zerolog"
)

// ParseLevel parses a log level name. WARNING and CRITICAL are accepted as
// aliases for warn and fatal.
func ParseLevel(levelStr string) (zerolog.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(levelStr))
	switch normalized {
	case "warning":
		normalized = "warn"
	case "critical":
		normalized = "fatal"
	}
	level, err := zerolog.ParseLevel(normalized)
	if err != nil || normalized == "" {
		return zerolog.InfoLevel, errorwrapper.WrapError(err, "invalid log level")
	}
	return level, nil
}

func parseFormat(formatStr string) LogFormat {
	switch strings.ToLower(formatStr) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}
