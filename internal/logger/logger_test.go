package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogFile = ""
	log, err := New(cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	_ = log
}

func TestLoggerBuilder_WritesRotatingFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "api_file_processor.log")
	cfg := config.LogConfig{
		LogFile:       logPath,
		LogFormat:     "json",
		LogLevel:      "DEBUG",
		MaxLogSizeMB:  1,
		MaxLogBackups: 2,
	}

	var console bytes.Buffer
	l, err := NewLoggerBuilder().WithConfig(cfg).WithConsoleOutput(&console).Build()
	require.NoError(t, err)

	l.GetZerolog().Debug().Str("file", "a.pdf").Msg("processing")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file":"a.pdf"`)
	assert.Contains(t, console.String(), "processing")
	assert.Equal(t, zerolog.DebugLevel, l.GetZerolog().GetLevel())
}

func TestLoggerBuilder_TextFormatHasNoColor(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	cfg := config.LogConfig{LogFile: logPath, LogFormat: "text", LogLevel: "info"}

	var console bytes.Buffer
	l, err := NewLoggerBuilder().WithConfig(cfg).WithConsoleOutput(&console).Build()
	require.NoError(t, err)

	l.GetZerolog().Info().Str("job_id", "j1").Msg("done")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "job_id=j1")
	assert.NotContains(t, string(data), "\x1b[")
	assert.NotContains(t, console.String(), "\x1b[")
}

func TestLogLevelParser_ParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{input: "DEBUG", want: zerolog.DebugLevel},
		{input: "info", want: zerolog.InfoLevel},
		{input: "WARNING", want: zerolog.WarnLevel},
		{input: "error", want: zerolog.ErrorLevel},
		{input: "CRITICAL", want: zerolog.FatalLevel},
		{input: "verbose", want: zerolog.InfoLevel, wantErr: true},
		{input: "", want: zerolog.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertConfig_Defaults(t *testing.T) {
	lc, err := convertConfig(config.LogConfig{LogLevel: "info"})
	require.NoError(t, err)

	assert.False(t, lc.EnableFile)
	assert.Equal(t, config.DefaultMaxLogSizeMB, lc.MaxSizeMB)
	assert.Equal(t, config.DefaultMaxLogBackups, lc.MaxBackups)
	assert.Equal(t, FormatConsole, lc.Format)

	lc, err = convertConfig(config.LogConfig{LogLevel: "loud", LogFormat: "JSON", MaxLogBackups: 2})
	assert.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, lc.Level)
	assert.Equal(t, FormatJSON, lc.Format)
	assert.Equal(t, 2, lc.MaxBackups)
}
