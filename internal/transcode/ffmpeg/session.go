package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/hashicorp/go-hclog"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
)

const (
	readBufferSize = 32 * 1024

	// maxPending bounds an unterminated line before it is flushed as log text
	maxPending = 1024 * 1024
)

// LaunchCancelledExitCode is reported for jobs refused because the session
// was cancelled before they started.
const LaunchCancelledExitCode = mediaerrors.LaunchFailedExitCode

// Session supervises engine processes, one per job, and tracks them so a
// batch can be cancelled as a whole.
type Session struct {
	logger           hclog.Logger
	launcher         Launcher
	enginePath       string
	registry         *Registry
	durationFallback float64
}

// SessionOption customises a Session
type SessionOption func(*Session)

// WithLauncher replaces the os/exec launcher (for testing)
func WithLauncher(l Launcher) SessionOption {
	return func(s *Session) { s.launcher = l }
}

// WithDurationFallback sets the duration used when a file reports none
func WithDurationFallback(seconds float64) SessionOption {
	return func(s *Session) {
		if seconds > 0 {
			s.durationFallback = seconds
		}
	}
}

// NewSession creates a session that runs the engine at enginePath. An empty
// path means the engine was not found and no conversion may start.
func NewSession(logger hclog.Logger, enginePath string, opts ...SessionOption) (*Session, error) {
	if enginePath == "" {
		return nil, mediaerrors.BinaryNotFound("ffmpeg")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &Session{
		logger:           logger.Named("session"),
		launcher:         ExecLauncher{},
		enginePath:       enginePath,
		durationFallback: DefaultDurationFallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = NewRegistry(s.logger)

	return s, nil
}

// CommandLine returns the full engine argument vector for job
func (s *Session) CommandLine(job *Job) []string {
	argv := make([]string, 0, len(job.Args)+8)
	argv = append(argv, "-hide_banner", "-progress", "pipe:1", "-nostats", "-i", job.inputPath())
	argv = append(argv, job.Args...)
	argv = append(argv, job.OutputPath)
	return argv
}

// Convert runs job to completion and returns its outcome. Progress and log
// callbacks fire on the calling goroutine in output order.
func (s *Session) Convert(ctx context.Context, job *Job, listener Listener) Outcome {
	if listener == nil {
		listener = NopListener{}
	}
	input := job.inputPath()

	argv := s.CommandLine(job)
	proc, err := s.registry.Launch(job.ID, input, func() (Process, error) {
		return s.launcher.Start(ctx, s.enginePath, argv)
	})
	if err != nil {
		if errors.Is(err, mediaerrors.ErrCancelled) {
			s.logger.Debug("job not started, session cancelled", "job_id", job.ID, "input", input)
			return s.outcome(job, LaunchCancelledExitCode, err)
		}

		launchErr := mediaerrors.LaunchFailed(input, err)
		job.finish(mediaerrors.LaunchFailedExitCode)
		s.logger.Error("failed to launch engine", "job_id", job.ID, "input", input, "error", err)
		listener.Log(mediaerrors.UserMessage(launchErr), SeverityError)
		return s.outcome(job, mediaerrors.LaunchFailedExitCode, launchErr)
	}

	job.setRunning()
	s.logger.Info("conversion started",
		"job_id", job.ID,
		"pid", proc.PID(),
		"input", input,
		"output", job.OutputPath)

	s.pump(job, proc.Output(), listener)

	code, waitErr := proc.Wait()
	claimed := s.registry.Unregister(job.ID)

	switch {
	case waitErr != nil:
		code = mediaerrors.LaunchFailedExitCode
		err = mediaerrors.ProcessFailed(input, code).WithDetail("cause", waitErr.Error())
	case !claimed && code != 0:
		err = mediaerrors.Cancelled(input).WithExitCode(code)
	case code != 0:
		err = mediaerrors.ProcessFailed(input, code)
	}

	job.finish(code)
	if err != nil {
		s.logger.Warn("conversion failed", "job_id", job.ID, "input", input, "exit_code", code, "error", err)
		listener.Log(mediaerrors.UserMessage(err), SeverityError)
		return s.outcome(job, code, err)
	}

	if job.Progress() < 100 {
		job.setProgress(100)
		listener.Progress(job.Row, 100)
	}
	s.logger.Info("conversion finished", "job_id", job.ID, "input", input, "output", job.OutputPath)
	return s.outcome(job, 0, nil)
}

// ConvertAsync runs Convert on its own goroutine and hands the outcome to
// done exactly once.
func (s *Session) ConvertAsync(ctx context.Context, job *Job, listener Listener, done func(Outcome)) {
	go func() {
		outcome := s.Convert(ctx, job, listener)
		if done != nil {
			done(outcome)
		}
	}()
}

// CancelAll terminates every running engine process and refuses new
// launches until Reset. It returns the number of processes signalled.
func (s *Session) CancelAll() int {
	n := s.registry.TerminateAll()
	s.logger.Info("session cancelled", "terminated", n)
	return n
}

// Reset allows launches again after CancelAll
func (s *Session) Reset() {
	s.registry.Reopen()
}

// Cancelled reports whether CancelAll has been called since the last Reset
func (s *Session) Cancelled() bool {
	return s.registry.Closed()
}

// Running lists the tracked engine processes
func (s *Session) Running() []Entry {
	return s.registry.Entries()
}

func (s *Session) outcome(job *Job, code int, err error) Outcome {
	return Outcome{
		JobID:    job.ID,
		Row:      job.Row,
		Success:  err == nil,
		ExitCode: code,
		Message:  mediaerrors.UserMessage(err),
		Err:      err,
	}
}

// pump reads the merged output in whatever chunks arrive, cutting each at
// its last newline so progress lines are never split.
func (s *Session) pump(job *Job, r io.Reader, listener Listener) {
	duration := job.duration()
	if duration <= 0 {
		duration = s.durationFallback
	}

	buf := make([]byte, readBufferSize)
	var pending []byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			if i := bytes.LastIndexByte(pending, '\n'); i >= 0 {
				s.dispatch(job, string(pending[:i+1]), duration, listener)
				pending = append(pending[:0], pending[i+1:]...)
			} else if len(pending) > maxPending {
				s.dispatch(job, string(pending), duration, listener)
				pending = pending[:0]
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				s.logger.Debug("engine output read ended", "job_id", job.ID, "error", err)
			}
			break
		}
	}

	if len(pending) > 0 {
		s.dispatch(job, string(pending), duration, listener)
	}
}

func (s *Session) dispatch(job *Job, chunk string, duration float64, listener Listener) {
	markers, text := ParseChunk(chunk)
	for _, usec := range markers {
		pct := Percent(usec, duration)
		job.setProgress(pct)
		listener.Progress(job.Row, pct)
	}
	if text != "" {
		listener.Log(text, SeverityInfo)
	}
}
