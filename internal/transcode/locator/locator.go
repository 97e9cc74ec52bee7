// Package locator resolves external tool paths and probes the transcoding
// engine once for the optional encoders it was built with.
package locator

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
	"github.com/mantonx/mediaconv/internal/logger"
)

// Tool names
const (
	FFmpeg  = "ffmpeg"
	FFprobe = "ffprobe"
)

// CommandRunner interface for command execution (enables mocking in tests)
type CommandRunner interface {
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner using os/exec, returning
// stdout and stderr combined
type DefaultCommandRunner struct{}

// Run executes a command using os/exec
func (r *DefaultCommandRunner) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, cmd, args...).CombinedOutput()
}

// Locator finds tool binaries. Explicit overrides win, then the bundled
// resource directory, then a PATH lookup through which.
type Locator struct {
	logger      hclog.Logger
	execer      CommandRunner
	resourceDir string
	overrides   map[string]string

	capsOnce sync.Once
	caps     EngineCapabilities
}

// New creates a Locator that searches resourceDir before PATH
func New(log hclog.Logger, resourceDir string) *Locator {
	return NewWithExecutor(log, resourceDir, &DefaultCommandRunner{})
}

// NewWithExecutor creates a Locator with a custom command executor (for testing)
func NewWithExecutor(log hclog.Logger, resourceDir string, execer CommandRunner) *Locator {
	return &Locator{
		logger:      logger.OrNull(log).Named("locator"),
		execer:      execer,
		resourceDir: resourceDir,
		overrides:   make(map[string]string),
	}
}

// SetOverride pins name to an explicit path. Empty paths are ignored.
func (l *Locator) SetOverride(name, path string) {
	if path != "" {
		l.overrides[name] = path
	}
}

// Locate returns the path of the named tool or a BinaryNotFound error
func (l *Locator) Locate(ctx context.Context, name string) (string, error) {
	if path, ok := l.overrides[name]; ok {
		if isExecutable(path) {
			return path, nil
		}
		l.logger.Warn("configured binary is not executable", "binary", name, "path", path)
	}

	if l.resourceDir != "" {
		candidate := filepath.Join(l.resourceDir, name)
		if isExecutable(candidate) {
			l.logger.Debug("using bundled binary", "binary", name, "path", candidate)
			return candidate, nil
		}
	}

	out, err := l.execer.Run(ctx, "which", name)
	if err == nil {
		if path := firstLine(out); path != "" {
			l.logger.Debug("found binary on PATH", "binary", name, "path", path)
			return path, nil
		}
	}

	return "", mediaerrors.BinaryNotFound(name)
}

// SupportsEncoder lists the binary's encoders and matches pattern against
// the combined output. A failing command counts as unsupported.
func (l *Locator) SupportsEncoder(ctx context.Context, path string, pattern *regexp.Regexp) bool {
	out, err := l.execer.Run(ctx, path, "-hide_banner", "-encoders")
	if err != nil && len(out) == 0 {
		l.logger.Warn("failed to list encoders", "path", path, "error", err)
		return false
	}
	return pattern.Match(out)
}

// Capabilities probes the engine at path once; later calls return the
// cached value regardless of path.
func (l *Locator) Capabilities(ctx context.Context, path string) EngineCapabilities {
	l.capsOnce.Do(func() {
		l.caps = l.detect(ctx, path)
		l.logger.Info("engine capabilities detected",
			"path", path,
			"aac_encoder", l.caps.AACEncoder(),
			"h264_encoder", l.caps.H264Encoder())
	})
	return l.caps
}

func (l *Locator) detect(ctx context.Context, path string) EngineCapabilities {
	out, err := l.execer.Run(ctx, path, "-hide_banner", "-encoders")
	if err != nil && len(out) == 0 {
		l.logger.Warn("failed to list encoders", "path", path, "error", err)
		return EngineCapabilities{}
	}
	return CapabilitiesFromEncoderList(out)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
