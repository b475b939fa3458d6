// Package logger configures the zerolog logger shared by the CLI, the HTTP server and the MCP server.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Supported log formats.
const (
	ConsoleFormat = "console" // default
	JSONFormat    = "json"
)

// Config holds logging settings.
type Config struct {
	Level      string // trace, debug, info, warn, error, fatal, panic, disabled
	Format     string // console or json
	Output     string // stdout, stderr or a file path
	TimeFormat string
}

// DefaultConfig logs warnings and above to stderr in console format, so that
// table output on stdout stays clean.
func DefaultConfig() Config {
	return Config{Level: "warn", Format: ConsoleFormat, Output: "stderr", TimeFormat: time.RFC3339}
}

// New builds a logger from cfg and installs it as the global zerolog logger.
func New(cfg Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return zerolog.Nop(), err
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	switch strings.ToLower(cfg.Format) {
	case "", ConsoleFormat:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	case JSONFormat:
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format '%s'. must be console, json", cfg.Format)
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return logger, nil
}

// NewWriter builds a json logger over w, for tests.
func NewWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		return f, nil
	}
}
