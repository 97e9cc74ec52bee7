// Package batch runs a list of probed files through a conversion session,
// one after another or on a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
	"github.com/mantonx/mediaconv/internal/media"
	"github.com/mantonx/mediaconv/internal/transcode/args"
	"github.com/mantonx/mediaconv/internal/transcode/ffmpeg"
	"github.com/mantonx/mediaconv/internal/transcode/locator"
	"github.com/mantonx/mediaconv/internal/utils"
)

// AutoConcurrency sizes the pool from the host's resources
const AutoConcurrency = -1

// FileResult is the outcome of one file in a batch
type FileResult struct {
	Row     int
	JobID   string
	Input   string
	Output  string
	State   ffmpeg.JobState
	Outcome ffmpeg.Outcome
}

// Report summarises a finished batch
type Report struct {
	BatchID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []FileResult
	Succeeded  int
	Failed     int
	Cancelled  int
}

// OK reports whether every file converted
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Cancelled == 0
}

// Orchestrator drives batches through a session
type Orchestrator struct {
	logger      hclog.Logger
	session     *ffmpeg.Session
	caps        locator.EngineCapabilities
	concurrency int
}

// New creates an orchestrator. A nil session means the engine is missing;
// Run then refuses every batch. concurrency 1 runs files in order,
// AutoConcurrency sizes the pool with DefaultConcurrency.
func New(logger hclog.Logger, session *ffmpeg.Session, caps locator.EngineCapabilities, concurrency int) *Orchestrator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if concurrency == AutoConcurrency {
		concurrency = DefaultConcurrency(context.Background())
	}
	if concurrency < 1 {
		concurrency = 1
	}

	return &Orchestrator{
		logger:      logger.Named("batch"),
		session:     session,
		caps:        caps,
		concurrency: concurrency,
	}
}

// Concurrency returns the number of simultaneous engine processes
func (o *Orchestrator) Concurrency() int {
	return o.concurrency
}

// Prepare builds one job per file with the engine arguments for opts
func (o *Orchestrator) Prepare(files []*media.File, opts args.Options) ([]*ffmpeg.Job, error) {
	argv, err := args.Build(opts, o.caps)
	if err != nil {
		return nil, err
	}

	jobs := make([]*ffmpeg.Job, 0, len(files))
	for row, file := range files {
		if file == nil {
			continue
		}
		jobs = append(jobs, ffmpeg.NewJob(row, file, args.OutputPath(file.SourcePath, opts), argv))
	}
	return jobs, nil
}

// Run converts files and returns once all of them have finished or been
// cancelled. A failing file never stops the rest of the batch.
func (o *Orchestrator) Run(ctx context.Context, files []*media.File, opts args.Options, listener ffmpeg.Listener) (*Report, error) {
	if o.session == nil {
		return nil, mediaerrors.BinaryNotFound("ffmpeg")
	}

	jobs, err := o.Prepare(files, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		BatchID:   utils.GenerateBatchID(),
		StartedAt: time.Now(),
		Results:   make([]FileResult, len(jobs)),
	}

	o.logger.Info("batch started",
		"batch_id", report.BatchID,
		"files", len(jobs),
		"concurrency", o.concurrency,
		"kind", opts.Kind.String())

	if o.concurrency == 1 {
		o.runSequential(ctx, jobs, listener, report)
	} else {
		o.runPooled(ctx, jobs, listener, report)
	}

	report.FinishedAt = time.Now()
	for _, res := range report.Results {
		switch {
		case res.Outcome.Success:
			report.Succeeded++
		case errors.Is(res.Outcome.Err, mediaerrors.ErrCancelled):
			report.Cancelled++
		default:
			report.Failed++
		}
	}

	o.logger.Info("batch finished",
		"batch_id", report.BatchID,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"cancelled", report.Cancelled,
		"elapsed", report.FinishedAt.Sub(report.StartedAt))

	return report, nil
}

// RunAsync runs the batch on its own goroutine and calls done once
func (o *Orchestrator) RunAsync(ctx context.Context, files []*media.File, opts args.Options, listener ffmpeg.Listener, done func(*Report, error)) {
	go func() {
		report, err := o.Run(ctx, files, opts, listener)
		if done != nil {
			done(report, err)
		}
	}()
}

// Cancel stops the running batch and refuses new jobs until Reset
func (o *Orchestrator) Cancel() int {
	if o.session == nil {
		return 0
	}
	return o.session.CancelAll()
}

// Reset re-enables conversions after Cancel
func (o *Orchestrator) Reset() {
	if o.session != nil {
		o.session.Reset()
	}
}

func (o *Orchestrator) runSequential(ctx context.Context, jobs []*ffmpeg.Job, listener ffmpeg.Listener, report *Report) {
	for i, job := range jobs {
		if ctx.Err() != nil || o.session.Cancelled() {
			report.Results[i] = skipped(job)
			continue
		}
		report.Results[i] = o.runJob(ctx, job, listener)
	}
}

func (o *Orchestrator) runPooled(ctx context.Context, jobs []*ffmpeg.Job, listener ffmpeg.Listener, report *Report) {
	pool := utils.NewWorkerPool(o.concurrency)
	pool.Start()

	for i, job := range jobs {
		i, job := i, job
		if ctx.Err() != nil || o.session.Cancelled() {
			report.Results[i] = skipped(job)
			continue
		}

		err := pool.SubmitWait(ctx, func() {
			if ctx.Err() != nil {
				report.Results[i] = skipped(job)
				return
			}
			report.Results[i] = o.runJob(ctx, job, listener)
		})
		if err != nil {
			report.Results[i] = skipped(job)
		}
	}

	pool.Stop()
}

func (o *Orchestrator) runJob(ctx context.Context, job *ffmpeg.Job, listener ffmpeg.Listener) FileResult {
	outcome := o.session.Convert(ctx, job, listener)
	if !outcome.Success {
		o.logger.Warn("file failed, continuing batch",
			"row", job.Row,
			"input", job.Input.SourcePath,
			"exit_code", outcome.ExitCode,
			"message", outcome.Message)
	}
	return result(job, outcome)
}

func skipped(job *ffmpeg.Job) FileResult {
	err := mediaerrors.Cancelled(job.Input.SourcePath)
	return result(job, ffmpeg.Outcome{
		JobID:    job.ID,
		Row:      job.Row,
		ExitCode: ffmpeg.LaunchCancelledExitCode,
		Message:  mediaerrors.UserMessage(err),
		Err:      err,
	})
}

func result(job *ffmpeg.Job, outcome ffmpeg.Outcome) FileResult {
	return FileResult{
		Row:     job.Row,
		JobID:   job.ID,
		Input:   job.Input.SourcePath,
		Output:  job.OutputPath,
		State:   job.State(),
		Outcome: outcome,
	}
}
