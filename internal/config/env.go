package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvAPIKey             = "API_KEY"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFileMaxMB       = "LOG_FILE_MAX_MB"
	EnvLogFileBackupCount = "LOG_FILE_BACKUP_COUNT"
)

// EnvConfig is the validated content of the .env file merged with the process environment.
type EnvConfig struct {
	APIKey             string
	LogLevel           string
	LogFileMaxMB       int
	LogFileBackupCount int

	// FilePath is the .env file that was read, empty when none was found
	FilePath string
	// Warnings lists invalid values that were replaced by defaults
	Warnings []string
}

// LoadEnv reads path with godotenv without touching the process environment.
// Values from the file win over the process environment. A missing file is
// not an error: the API is then used as guest and logging keeps its defaults.
func LoadEnv(path string) (EnvConfig, error) {
	fileValues := map[string]string{}
	env := EnvConfig{}

	if path != "" {
		values, err := godotenv.Read(path)
		switch {
		case err == nil:
			fileValues = values
			env.FilePath = path
		case errors.Is(err, os.ErrNotExist):
		default:
			return env, NewConfigError(path, "", "malformed .env file", err)
		}
	}

	lookup := func(key string) string {
		if v, ok := fileValues[key]; ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(os.Getenv(key))
	}

	env.APIKey = lookup(EnvAPIKey)

	if level := lookup(EnvLogLevel); level != "" {
		if isValidEnvLogLevel(level) {
			env.LogLevel = strings.ToUpper(level)
		} else {
			env.Warnings = append(env.Warnings, fmt.Sprintf("invalid %s '%s', using INFO", EnvLogLevel, level))
			env.LogLevel = "INFO"
		}
	}

	env.LogFileMaxMB = parsePositiveInt(lookup(EnvLogFileMaxMB), EnvLogFileMaxMB, DefaultMaxLogSizeMB, &env.Warnings)
	env.LogFileBackupCount = parsePositiveInt(lookup(EnvLogFileBackupCount), EnvLogFileBackupCount, DefaultMaxLogBackups, &env.Warnings)

	return env, nil
}

// ApplyEnv overlays the environment on cfg. Unset variables leave the file configuration untouched.
func ApplyEnv(cfg *GlobalConfig, env EnvConfig) {
	if env.APIKey != "" {
		cfg.API.APIKey = env.APIKey
	}
	if env.LogLevel != "" {
		cfg.LogConfig.LogLevel = env.LogLevel
	}
	if env.LogFileMaxMB > 0 {
		cfg.LogConfig.MaxLogSizeMB = env.LogFileMaxMB
	}
	if env.LogFileBackupCount > 0 {
		cfg.LogConfig.MaxLogBackups = env.LogFileBackupCount
	}
}

func isValidEnvLogLevel(level string) bool {
	switch strings.ToUpper(level) {
	case "DEBUG", "INFO", "WARNING", "WARN", "ERROR", "CRITICAL":
		return true
	}
	return false
}

// parsePositiveInt returns 0 for an unset value so callers can tell "unset" from "default"
func parsePositiveInt(raw, key string, def int, warnings *[]string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		*warnings = append(*warnings, fmt.Sprintf("invalid %s '%s', using %d", key, raw, def))
		return def
	}
	return n
}
