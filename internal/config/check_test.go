package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFolder_CreatesOutputFolder(t *testing.T) {
	root := t.TempDir()
	fc := FolderConfig{
		FolderPath:   root,
		OutputFolder: filepath.Join(root, "out", "nested"),
	}

	require.NoError(t, CheckFolder(fc))

	info, err := os.Stat(fc.OutputFolder)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCheckFolder_Errors(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, root, "plain.txt", "x")

	tests := []struct {
		name   string
		fc     FolderConfig
		reason string
	}{
		{
			name:   "missing folder",
			fc:     FolderConfig{FolderPath: filepath.Join(root, "missing"), OutputFolder: filepath.Join(root, "out")},
			reason: "does not exist",
		},
		{
			name:   "file instead of folder",
			fc:     FolderConfig{FolderPath: file, OutputFolder: filepath.Join(root, "out")},
			reason: "not a directory",
		},
		{
			name:   "output equals input",
			fc:     FolderConfig{FolderPath: root, OutputFolder: root},
			reason: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFolder(tt.fc)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Reason, tt.reason)
		})
	}
}
