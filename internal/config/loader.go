package config

import (
	"os"
	"path/filepath"
)

// GetConfigPath determines the configuration file path.
// Priority:
// 1. -config command-line flag (returned even if missing, so the caller reports it)
// 2. APIFP_CONFIG_PATH environment variable
// 3. api_file_processor_config.json / .yaml in the current working directory
// 4. the same names in the executable's directory
func GetConfigPath(configFilePathFlag string) string {
	if configFilePathFlag != "" {
		return configFilePathFlag
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if fileExists(envPath) {
			return envPath
		}
	}

	return ResolveFile(DefaultConfigFileName, DefaultYAMLConfigFileName)
}

// GetEnvPath determines the .env file path, looking in the same places as the config file.
func GetEnvPath(envFilePathFlag string) string {
	if envFilePathFlag != "" {
		return envFilePathFlag
	}
	return ResolveFile(DefaultEnvFileName)
}

// ResolveFile returns the first of names found in the working directory or
// next to the executable, or "" when none exists.
func ResolveFile(names ...string) string {
	for _, loc := range searchLocations() {
		for _, name := range names {
			path := filepath.Join(loc, name)
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

// RootDir is the directory relative runtime files (log, history db) are placed in:
// the config file's directory when known, otherwise the working directory.
func RootDir(configPath string) string {
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			return filepath.Dir(abs)
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

func searchLocations() []string {
	var locations []string

	cwd, errCwd := os.Getwd()
	if errCwd == nil {
		locations = append(locations, cwd)
	}

	if exePath, errExe := os.Executable(); errExe == nil {
		exeDir := filepath.Dir(exePath)
		if errCwd != nil || exeDir != cwd {
			locations = append(locations, exeDir)
		}
	}
	return locations
}

// Helper function to check if a file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

func joinPath(elem ...string) string {
	return filepath.Join(elem...)
}
