// Package logger builds the application's hclog logger from configuration.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/mediaconv/internal/config"
)

// Name is the root logger name
const Name = "mediaconv"

// New creates the root logger writing to stderr
func New(cfg config.LoggingConfig) hclog.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput creates the root logger writing to w
func NewWithOutput(cfg config.LoggingConfig, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       Name,
		Level:      ParseLevel(cfg.Level),
		Output:     w,
		JSONFormat: cfg.JSON,
	})
}

// ParseLevel maps a config level string to an hclog level, defaulting to info
func ParseLevel(level string) hclog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "warn", "warning":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}

// OrNull returns l, or a null logger when l is nil
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
