// Package logging builds the slog.Logger shared by the client, the HTTP
// facade and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Output and format values accepted in Config.
const (
	OutputStderr = "stderr"
	OutputStdout = "stdout"
	OutputFile   = "file"

	FormatText = "text"
	FormatJSON = "json"
)

// Config selects level, format and destination.
type Config struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// New returns a logger writing to the configured output. An output of
// "file" rotates through lumberjack; an unusable file setup falls back to
// stderr with a warning.
func New(cfg Config) *slog.Logger {
	var w io.Writer
	switch cfg.Output {
	case OutputFile:
		w = fileWriter(cfg)
	case OutputStdout:
		w = os.Stdout
	case OutputStderr, "":
		w = os.Stderr
	default:
		fmt.Fprintf(os.Stderr, "WARNING: unknown log output %q, using stderr\n", cfg.Output)
		w = os.Stderr
	}
	return NewWithWriter(cfg, w)
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, FormatJSON) {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug/info/warn/error to a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fileWriter(cfg Config) io.Writer {
	if cfg.FilePath == "" {
		fmt.Fprintln(os.Stderr, "WARNING: log output is file but no file_path is set, using stderr")
		return os.Stderr
	}
	if dir := filepath.Dir(cfg.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: creating log directory %s: %v, using stderr\n", dir, err)
			return os.Stderr
		}
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}
