// Package probe determines whether a file is playable media and describes
// its tracks, preferring a native asset loader and falling back to ffprobe.
package probe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
	"github.com/mantonx/mediaconv/internal/logger"
	"github.com/mantonx/mediaconv/internal/media"
	"github.com/mantonx/mediaconv/internal/media/catalog"
	"github.com/mantonx/mediaconv/internal/media/streams"
	"github.com/mantonx/mediaconv/internal/utils"
)

// DefaultDurationFallback is used when no usable duration can be read, so
// progress computation never divides by zero.
const DefaultDurationFallback = 0.01

// CommandRunner interface for command execution (enables mocking in tests)
type CommandRunner interface {
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// DefaultCommandRunner runs commands with os/exec and returns stdout
type DefaultCommandRunner struct{}

// Run executes a command and returns its standard output
func (r *DefaultCommandRunner) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, cmd, args...).Output()
}

// Track is one track reported by a native asset loader
type Track struct {
	Description      streams.Description
	NominalFrameRate float64
}

// AssetLoader is an optional platform metadata source. An error or an
// empty track list means the asset is not natively playable.
type AssetLoader interface {
	LoadTracks(ctx context.Context, path string) ([]Track, error)
	LoadDuration(ctx context.Context, path string) (float64, error)
}

// Options configures a Prober
type Options struct {
	FFprobePath      string
	Loader           AssetLoader
	ReadTags         bool
	Workers          int
	Timeout          time.Duration
	DurationFallback float64
}

// Result is the outcome of probing one file. Reason explains why a file is
// not playable.
type Result struct {
	Path     string
	Playable bool
	File     *media.File
	Reason   error
}

// Prober resolves playability and stream descriptions. It holds no mutable
// state, so concurrent Probe calls are independent.
type Prober struct {
	logger      hclog.Logger
	execer      CommandRunner
	ffprobePath string
	loader      AssetLoader
	readTags    bool
	workers     int
	timeout     time.Duration
	fallback    float64
}

// New creates a Prober that runs ffprobe through os/exec
func New(log hclog.Logger, opts Options) *Prober {
	return NewWithExecutor(log, opts, &DefaultCommandRunner{})
}

// NewWithExecutor creates a Prober with a custom command executor (for testing)
func NewWithExecutor(log hclog.Logger, opts Options, execer CommandRunner) *Prober {
	fallback := opts.DurationFallback
	if fallback <= 0 {
		fallback = DefaultDurationFallback
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	return &Prober{
		logger:      logger.OrNull(log).Named("probe"),
		execer:      execer,
		ffprobePath: opts.FFprobePath,
		loader:      opts.Loader,
		readTags:    opts.ReadTags,
		workers:     workers,
		timeout:     opts.Timeout,
		fallback:    fallback,
	}
}

// Probe inspects one file. Failures never abort: they yield a Result that
// is not playable and carries the reason.
func (p *Prober) Probe(ctx context.Context, path string) Result {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if file, ok := p.probeNative(ctx, path); ok {
		return Result{Path: path, Playable: true, File: file}
	}

	if !catalog.IsValidCandidate(path) {
		return p.notPlayable(path, mediaerrors.New(mediaerrors.ErrorTypeProbe, "probe",
			fmt.Errorf("%w: not a recognized media file", mediaerrors.ErrInvalidData)).WithPath(path))
	}

	if p.ffprobePath == "" {
		return p.notPlayable(path, mediaerrors.BinaryNotFound("ffprobe").WithPath(path))
	}

	out, err := p.execer.Run(ctx, p.ffprobePath,
		"-v", "quiet",
		"-show_format",
		"-show_streams",
		"-print_format", "json",
		path,
	)
	if err != nil {
		return p.notPlayable(path, mediaerrors.InvalidData(path, fmt.Errorf("ffprobe failed: %w", err)))
	}

	report, err := ParseOutput(out)
	if err != nil {
		return p.notPlayable(path, mediaerrors.InvalidData(path, err))
	}

	descs, skipped := report.Describe()
	for _, serr := range skipped {
		p.logger.Debug("skipping stream", "path", path, "error", serr)
	}
	if len(descs) == 0 {
		return p.notPlayable(path, mediaerrors.CreationFailed("no usable streams").WithPath(path))
	}

	duration := report.Format.DurationSeconds()
	if duration <= 0 {
		duration = p.Duration(ctx, path)
	}

	file := media.NewFile(path, descs, duration)
	p.attachTags(file)

	p.logger.Debug("probed file", "path", path, "streams", len(file.Streams), "duration", file.Duration)
	return Result{Path: path, Playable: true, File: file}
}

// ProbeAll probes paths concurrently and returns results in input order
func (p *Prober) ProbeAll(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))

	pool := utils.NewWorkerPool(p.workers)
	pool.Start()

	for i, path := range paths {
		i, path := i, path
		if err := pool.SubmitWait(ctx, func() {
			results[i] = p.Probe(ctx, path)
		}); err != nil {
			results[i] = p.notPlayable(path, err)
		}
	}

	pool.Stop()
	return results
}

// Duration asks ffprobe for the container duration. Any failure, or a
// non-positive value, yields the fallback sentinel.
func (p *Prober) Duration(ctx context.Context, path string) float64 {
	if p.ffprobePath == "" {
		return p.fallback
	}

	out, err := p.execer.Run(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		p.logger.Debug("duration probe failed", "path", path, "error", err)
		return p.fallback
	}

	d, ok := parseDurationLine(out)
	if !ok {
		return p.fallback
	}
	return d
}

func (p *Prober) probeNative(ctx context.Context, path string) (*media.File, bool) {
	if p.loader == nil {
		return nil, false
	}

	tracks, err := p.loader.LoadTracks(ctx, path)
	if err != nil || len(tracks) == 0 {
		if err != nil {
			p.logger.Trace("native loader declined file", "path", path, "error", err)
		}
		return nil, false
	}

	descs := make([]streams.Description, 0, len(tracks))
	for _, t := range tracks {
		if t.Description == nil {
			continue
		}
		desc := t.Description
		if v, ok := desc.(*streams.Video); ok && v.FrameRate == 0 {
			// The loader owns v
			filled := *v
			filled.FrameRate = t.NominalFrameRate
			desc = &filled
		}
		descs = append(descs, desc)
	}
	if len(descs) == 0 {
		return nil, false
	}

	duration, err := p.loader.LoadDuration(ctx, path)
	if err != nil || duration <= 0 {
		duration = p.Duration(ctx, path)
	}

	file := media.NewFile(path, descs, duration)
	p.attachTags(file)
	return file, true
}

func (p *Prober) attachTags(file *media.File) {
	if !p.readTags || file.Video() != nil || file.Audio() == nil {
		return
	}

	tags, err := ReadTags(file.SourcePath)
	if err != nil {
		p.logger.Debug("no tag metadata", "path", file.SourcePath, "error", err)
		return
	}
	file.Tags = tags
}

func (p *Prober) notPlayable(path string, reason error) Result {
	p.logger.Debug("file not playable", "path", path, "error", reason)
	return Result{Path: path, Reason: reason}
}

func parseDurationLine(out []byte) (float64, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(scanner.Text()), 64)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
