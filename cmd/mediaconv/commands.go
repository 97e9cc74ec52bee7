package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
	"github.com/mantonx/mediaconv/internal/media"
	"github.com/mantonx/mediaconv/internal/media/catalog"
	"github.com/mantonx/mediaconv/internal/media/probe"
	"github.com/mantonx/mediaconv/internal/transcode/args"
	"github.com/mantonx/mediaconv/internal/transcode/batch"
	"github.com/mantonx/mediaconv/internal/watch"
)

func parseFlags(fs *flag.FlagSet, argv []string) (int, bool) {
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitUsage, false
	}
	return 0, true
}

// probeResult is the JSON shape printed by probe -json
type probeResult struct {
	Path     string      `json:"path"`
	Playable bool        `json:"playable"`
	Kind     string      `json:"kind,omitempty"`
	Duration float64     `json:"duration,omitempty"`
	Streams  []string    `json:"streams,omitempty"`
	Tags     *media.Tags `json:"tags,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func runProbe(argv []string) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	asJSON := fs.Bool("json", false, "print results as JSON")
	if code, ok := parseFlags(fs, argv); !ok {
		return code
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "probe: no input files")
		return exitUsage
	}

	ctx := context.Background()
	a, err := newApp(ctx, common, false)
	if err != nil {
		return fail(err)
	}

	results := a.prober.ProbeAll(ctx, fs.Args())

	if *asJSON {
		out := make([]probeResult, 0, len(results))
		for _, r := range results {
			out = append(out, toProbeResult(r))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fail(err)
		}
	} else {
		printProbeResults(os.Stdout, results)
	}

	for _, r := range results {
		if !r.Playable {
			return exitFailure
		}
	}
	return exitOK
}

func toProbeResult(r probe.Result) probeResult {
	pr := probeResult{Path: r.Path, Playable: r.Playable}
	if r.Reason != nil {
		pr.Error = mediaerrors.UserMessage(r.Reason)
	}
	if r.File != nil {
		pr.Kind = r.File.Kind().String()
		pr.Duration = r.File.Duration
		pr.Tags = r.File.Tags
		for _, s := range r.File.Streams {
			pr.Streams = append(pr.Streams, s.String())
		}
	}
	return pr
}

func printProbeResults(w io.Writer, results []probe.Result) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, r.Path)
		if !r.Playable {
			fmt.Fprintf(w, "  not playable: %s\n", mediaerrors.UserMessage(r.Reason))
			continue
		}
		for _, line := range strings.Split(r.File.Summary(), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

func runConvert(argv []string) int {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	var common commonFlags
	var conv conversionFlags
	common.register(fs)
	conv.register(fs)
	verbose := fs.Bool("v", false, "show engine output")
	if code, ok := parseFlags(fs, argv); !ok {
		return code
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "convert: no input files")
		return exitUsage
	}

	ctx := context.Background()
	a, err := newApp(ctx, common, true)
	if err != nil {
		return fail(err)
	}

	opts, err := conv.options(a.cfg.Conversion.DestinationDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "convert: %v\n", err)
		return exitUsage
	}

	orch, err := a.orchestrator(conv.concurrency)
	if err != nil {
		return fail(err)
	}

	files := a.playable(ctx, fs.Args())
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "convert: nothing to convert")
		return exitFailure
	}

	stop := cancelOnSignal(a.logger, orch)
	defer stop()

	listener := newTerminalListener(os.Stdout, os.Stderr, files, *verbose)
	report, err := orch.Run(ctx, files, opts, listener)
	if err != nil {
		return fail(err)
	}

	printReport(os.Stdout, report)
	if !report.OK() || len(files) < fs.NArg() {
		return exitFailure
	}
	return exitOK
}

func runWatch(argv []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	var common commonFlags
	var conv conversionFlags
	common.register(fs)
	conv.register(fs)
	recursive := fs.Bool("recursive", false, "also watch subdirectories")
	verbose := fs.Bool("v", false, "show engine output")
	if code, ok := parseFlags(fs, argv); !ok {
		return code
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, common, true)
	if err != nil {
		return fail(err)
	}

	dir := a.cfg.Watch.Dir
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	if dir == "" {
		fmt.Fprintln(os.Stderr, "watch: no directory given")
		return exitUsage
	}

	opts, err := conv.options(a.cfg.Conversion.DestinationDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		return exitUsage
	}
	// Reject bad options before waiting for files
	if _, err := args.Build(opts, a.caps); err != nil {
		return fail(err)
	}

	orch, err := a.orchestrator(conv.concurrency)
	if err != nil {
		return fail(err)
	}

	var produced sync.Map
	queue := make(chan []string, 64)

	w, err := watch.New(a.logger, watch.Options{
		Dir:       dir,
		Recursive: *recursive || a.cfg.Watch.Recursive,
		Debounce:  a.cfg.Watch.Debounce,
		Ignore: func(path string) bool {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			_, ok := produced.Load(path)
			return ok
		},
	}, func(paths []string) {
		select {
		case queue <- paths:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fail(err)
	}
	if err := w.Start(); err != nil {
		return fail(err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	fmt.Fprintf(os.Stdout, "watching %s for media files\n", dir)

	for {
		select {
		case sig := <-sigs:
			a.logger.Info("received signal, stopping watch", "signal", sig.String())
			cancel()
			orch.Cancel()
			w.Stop()
			return exitOK

		case paths := <-queue:
			files := a.playable(ctx, paths)
			if len(files) == 0 {
				continue
			}
			for _, f := range files {
				produced.Store(args.OutputPath(f.SourcePath, opts), true)
			}

			done := make(chan *batch.Report, 1)
			orch.RunAsync(ctx, files, opts, newTerminalListener(os.Stdout, os.Stderr, files, *verbose),
				func(r *batch.Report, err error) {
					if err != nil {
						a.logger.Error("batch refused", "error", err)
					}
					done <- r
				})

			select {
			case r := <-done:
				if r != nil {
					printReport(os.Stdout, r)
				}
			case sig := <-sigs:
				a.logger.Info("received signal, stopping watch", "signal", sig.String())
				cancel()
				orch.Cancel()
				<-done
				w.Stop()
				return exitOK
			}
		}
	}
}

func runOptions(argv []string) int {
	fs := flag.NewFlagSet("options", flag.ContinueOnError)
	if code, ok := parseFlags(fs, argv); !ok {
		return code
	}
	printOptions(os.Stdout)
	return exitOK
}

func printOptions(w io.Writer) {
	fmt.Fprintln(w, "Audio formats:")
	for _, f := range args.AudioFormats {
		fmt.Fprintf(w, "  %-4s .%s\n", f, f.Extension())
	}
	fmt.Fprintf(w, "  bit depths: %s\n", joinInts(args.AudioBitDepths))
	fmt.Fprintf(w, "  bitrates (kbit/s): %s\n", joinInts(args.AudioBitrates))
	fmt.Fprintf(w, "  sample rates (Hz): %s\n", joinInts(args.AudioSampleRates))

	fmt.Fprintln(w, "\nVideo codecs:")
	for _, c := range args.VideoCodecs {
		profiles := make([]string, 0, len(c.Profiles()))
		for _, p := range c.Profiles() {
			profiles = append(profiles, fmt.Sprintf("%s (%s)", p.Title, p.Value))
		}
		fmt.Fprintf(w, "  %s\n    profiles: %s\n    containers: %s\n",
			c, strings.Join(profiles, ", "), strings.Join(c.Containers(), ", "))
	}

	fmt.Fprintln(w, "\nResolutions:")
	for _, r := range args.Resolutions {
		fmt.Fprintf(w, "  %-9s %s\n", r.Name, r)
	}

	rates := []string{args.FrameRateAuto.String()}
	for _, r := range args.FrameRates {
		rates = append(rates, r.String())
	}
	fmt.Fprintf(w, "\nFrame rates: %s\n", strings.Join(rates, ", "))

	fmt.Fprintf(w, "\nAccepted input extensions: %s\n", strings.Join(catalog.Extensions(), ", "))
}

// playable probes paths and returns the files that can be converted,
// reporting the rest on stderr.
func (a *app) playable(ctx context.Context, paths []string) []*media.File {
	var files []*media.File
	for _, r := range a.prober.ProbeAll(ctx, paths) {
		if !r.Playable {
			fmt.Fprintf(os.Stderr, "skipping %s: %s\n", r.Path, mediaerrors.UserMessage(r.Reason))
			continue
		}
		files = append(files, r.File)
	}
	return files
}

// cancelOnSignal cancels the running batch on SIGINT or SIGTERM until the
// returned stop function is called.
func cancelOnSignal(log hclog.Logger, orch *batch.Orchestrator) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigs:
			log.Warn("received signal, cancelling conversions", "signal", sig.String())
			orch.Cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func printReport(w io.Writer, r *batch.Report) {
	for _, res := range r.Results {
		switch {
		case res.Outcome.Success:
			fmt.Fprintf(w, "ok      %s -> %s\n", res.Input, res.Output)
		case errors.Is(res.Outcome.Err, mediaerrors.ErrCancelled):
			fmt.Fprintf(w, "skipped %s: %s\n", res.Input, res.Outcome.Message)
		default:
			fmt.Fprintf(w, "failed  %s: %s\n", res.Input, res.Outcome.Message)
		}
	}
	fmt.Fprintf(w, "batch %s: %d succeeded, %d failed, %d cancelled in %s\n",
		r.BatchID, r.Succeeded, r.Failed, r.Cancelled, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
