package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const consoleTimeFormat = "2006-01-02 15:04:05.000"

// formatWriter wraps out in the layout of format. noColor is forced for files.
func formatWriter(format LogFormat, out io.Writer, noColor bool) io.Writer {
	switch format {
	case FormatJSON:
		return out
	case FormatText:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	default:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat, NoColor: noColor}
	}
}

// fileWriter creates a size-rotated log file writer
func fileWriter(cfg LoggerConfig) io.Writer {
	if dir := filepath.Dir(cfg.FilePath); dir != "" {
		_ = os.MkdirAll(dir, 0755)
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		LocalTime:  true,
		MaxBackups: cfg.MaxBackups,
	}
	return formatWriter(cfg.Format, rotating, true)
}
