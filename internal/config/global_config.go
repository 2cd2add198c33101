package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxConfigFileSize = 10 * 1024 * 1024

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	Folders            []FolderConfig     `json:"folders" yaml:"folders" validate:"required,min=1,dive"`
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	HTTPClient         HTTPClientSettings `json:"http_client,omitempty" yaml:"http_client,omitempty"`
	RetryConfig        RetryConfig        `json:"retry_config,omitempty" yaml:"retry_config,omitempty"`
	Lifecycle          LifecycleConfig    `json:"lifecycle,omitempty" yaml:"lifecycle,omitempty"`
	Runner             RunnerConfig       `json:"runner,omitempty" yaml:"runner,omitempty"`
	API                APIConfig          `json:"api,omitempty" yaml:"api,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`

	// SourcePath is the file the configuration was read from
	SourcePath string `json:"-" yaml:"-"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values and no folders
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogConfig:          NewDefaultLogConfig(),
		HTTPClient:         NewDefaultHTTPClientSettings(),
		RetryConfig:        NewDefaultRetryConfig(),
		Lifecycle:          NewDefaultLifecycleConfig(),
		Runner:             NewDefaultRunnerConfig(),
		API:                NewDefaultAPIConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
	}
}

// Load resolves the configuration file (see GetConfigPath), parses it as JSON
// or YAML, applies defaults and validates it. Every failure is a *ConfigError.
func Load(providedPath string) (*GlobalConfig, error) {
	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		return nil, NewConfigError(DefaultConfigFileName, "", "configuration file not found in working or executable directory", nil)
	}

	data, err := readConfigFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data, filePath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw configuration content. The format is picked from the
// extension of source; anything but .yaml/.yml is treated as JSON.
func Parse(data []byte, source string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()
	if err := parseConfigContent(data, source, cfg); err != nil {
		return nil, err
	}
	cfg.SourcePath = source
	cfg.normalize()

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize fills derived defaults that depend on other fields
func (cfg *GlobalConfig) normalize() {
	for i := range cfg.Folders {
		fc := &cfg.Folders[i]
		fc.FolderPath = strings.TrimSpace(fc.FolderPath)
		fc.OutputFolder = strings.TrimSpace(fc.OutputFolder)
		fc.Endpoint.URL = strings.TrimSpace(fc.Endpoint.URL)
		if fc.FolderPath != "" && fc.OutputFolder == "" {
			fc.OutputFolder = filepath.Join(fc.FolderPath, DefaultOutputSubfolderName)
		}
	}
	if cfg.Lifecycle.OutputNaming == "" {
		cfg.Lifecycle.OutputNaming = OutputNamingJobID
	}
	// nil means the key was absent; a decoded empty object stays empty
	if cfg.API.ExtraFields == nil {
		cfg.API.ExtraFields = defaultExtraFields()
	}
}

func readConfigFile(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, NewConfigError(filePath, "", "cannot access configuration file", err)
	}
	if info.IsDir() {
		return nil, NewConfigError(filePath, "", "configuration path is a directory", nil)
	}
	if info.Size() > maxConfigFileSize {
		return nil, NewConfigError(filePath, "", fmt.Sprintf("configuration file exceeds %d bytes", maxConfigFileSize), nil)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, NewConfigError(filePath, "", "cannot read configuration file", err)
	}
	return data, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	ext = strings.ToLower(ext)
	return ext == ".yaml" || ext == ".yml"
}

func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return NewConfigError(filePath, "", "malformed YAML", err)
	}
	return nil
}

func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return NewConfigError(filePath, jsonErrorField(err), "malformed JSON", err)
	}
	return nil
}

func jsonErrorField(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Field
	}
	return ""
}
