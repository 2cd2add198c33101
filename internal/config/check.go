package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// CheckFolder verifies that folder_path is a readable directory and creates
// output_folder if needed. Problems are reported as *ConfigError and only
// concern this folder.
func CheckFolder(fc FolderConfig) error {
	info, err := os.Stat(fc.FolderPath)
	if err != nil {
		reason := "folder cannot be accessed"
		if errors.Is(err, os.ErrNotExist) {
			reason = "folder does not exist"
		}
		return NewConfigError(fc.FolderPath, "folder_path", reason, err)
	}
	if !info.IsDir() {
		return NewConfigError(fc.FolderPath, "folder_path", "not a directory", nil)
	}

	dir, err := os.Open(fc.FolderPath)
	if err != nil {
		return NewConfigError(fc.FolderPath, "folder_path", "folder is not readable", err)
	}
	_, err = dir.Readdirnames(1)
	dir.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return NewConfigError(fc.FolderPath, "folder_path", "folder is not readable", err)
	}

	if samePath(fc.FolderPath, fc.OutputFolder) {
		return NewConfigError(fc.FolderPath, "output_folder", "output_folder must differ from folder_path", nil)
	}

	if err := os.MkdirAll(fc.OutputFolder, 0755); err != nil {
		return NewConfigError(fc.OutputFolder, "output_folder", "cannot create output folder", err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
