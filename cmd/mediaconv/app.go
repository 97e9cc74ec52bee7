package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/mediaconv/internal/config"
	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
	"github.com/mantonx/mediaconv/internal/logger"
	"github.com/mantonx/mediaconv/internal/media/probe"
	"github.com/mantonx/mediaconv/internal/transcode/batch"
	"github.com/mantonx/mediaconv/internal/transcode/ffmpeg"
	"github.com/mantonx/mediaconv/internal/transcode/locator"
)

// app is the wiring shared by every command
type app struct {
	cfg         *config.Config
	logger      hclog.Logger
	locator     *locator.Locator
	ffmpegPath  string
	ffprobePath string
	caps        locator.EngineCapabilities
	prober      *probe.Prober
}

// commonFlags registers the flags every command accepts
type commonFlags struct {
	configPath string
	logLevel   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", os.Getenv("MEDIACONV_CONFIG_PATH"), "configuration file (YAML or JSON)")
	fs.StringVar(&c.logLevel, "log-level", "", "override the configured log level")
}

// newApp loads configuration and resolves the external tools. With
// needEngine set a missing ffmpeg is an error; a missing ffprobe only
// degrades probing.
func newApp(ctx context.Context, flags commonFlags, needEngine bool) (*app, error) {
	configPath := flags.configPath
	if configPath == "" {
		if _, err := os.Stat("./mediaconv.yaml"); err == nil {
			configPath = "./mediaconv.yaml"
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	log := logger.New(cfg.Logging)
	if configPath != "" {
		log.Debug("configuration loaded", "path", configPath)
	}

	loc := locator.New(log, cfg.Engine.ResourceDir)
	if cfg.Engine.FFmpegPath != "" {
		loc.SetOverride(locator.FFmpeg, cfg.Engine.FFmpegPath)
	}
	if cfg.Engine.FFprobePath != "" {
		loc.SetOverride(locator.FFprobe, cfg.Engine.FFprobePath)
	}

	a := &app{cfg: cfg, logger: log, locator: loc}

	a.ffprobePath, err = loc.Locate(ctx, locator.FFprobe)
	if err != nil {
		log.Warn("ffprobe not found, files cannot be probed", "error", err)
	}

	a.ffmpegPath, err = loc.Locate(ctx, locator.FFmpeg)
	if err != nil {
		if needEngine {
			return nil, err
		}
		log.Debug("ffmpeg not found", "error", err)
	} else {
		capCtx, cancel := context.WithTimeout(ctx, cfg.Engine.CapabilityTimeout)
		a.caps = loc.Capabilities(capCtx, a.ffmpegPath)
		cancel()
		log.Debug("engine capabilities", "fdk_aac", a.caps.FDKAAC, "libx264", a.caps.LibX264)
	}

	a.prober = probe.New(log, probe.Options{
		FFprobePath:      a.ffprobePath,
		ReadTags:         cfg.Probe.ReadTags,
		Workers:          cfg.Probe.Workers,
		Timeout:          cfg.Probe.Timeout,
		DurationFallback: cfg.Conversion.DurationFallback,
	})

	return a, nil
}

// orchestrator builds a session and batch runner for the located engine
func (a *app) orchestrator(concurrency int) (*batch.Orchestrator, error) {
	session, err := ffmpeg.NewSession(a.logger, a.ffmpegPath,
		ffmpeg.WithDurationFallback(a.cfg.Conversion.DurationFallback))
	if err != nil {
		return nil, err
	}
	if concurrency == 0 {
		concurrency = a.cfg.Conversion.Concurrency
	}
	return batch.New(a.logger, session, a.caps, concurrency), nil
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "mediaconv: %s\n", mediaerrors.UserMessage(err))
	if mediaerrors.IsFatal(err) {
		return exitUsage
	}
	return exitFailure
}
