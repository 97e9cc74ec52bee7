package ffmpeg

import (
	"fmt"
	"sync"

	"github.com/mantonx/mediaconv/internal/media"
	"github.com/mantonx/mediaconv/internal/utils"
)

// JobState is the lifecycle position of a conversion job
type JobState int

const (
	JobNotStarted JobState = iota
	JobRunning
	JobSucceeded
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobNotStarted:
		return "not_started"
	case JobRunning:
		return "running"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	default:
		return fmt.Sprintf("JobState(%d)", int(s))
	}
}

// Job is one file's conversion. Input is shared and never modified; the
// mutable fields belong to the session running the job.
type Job struct {
	ID         string
	Row        int
	Input      *media.File
	OutputPath string
	Args       []string

	mu       sync.RWMutex
	state    JobState
	exitCode int
	progress float64
}

// NewJob creates a job for input. args are the encoding options placed
// between the input and output paths.
func NewJob(row int, input *media.File, outputPath string, args []string) *Job {
	return &Job{
		ID:         utils.GenerateJobID(),
		Row:        row,
		Input:      input,
		OutputPath: outputPath,
		Args:       append([]string(nil), args...),
	}
}

// State returns the job state
func (j *Job) State() JobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// ExitCode returns the engine exit code of a failed job
func (j *Job) ExitCode() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.exitCode
}

// Progress returns the last reported percentage
func (j *Job) Progress() float64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.progress
}

func (j *Job) setRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = JobRunning
	j.progress = 0
}

func (j *Job) setProgress(pct float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress = pct
}

func (j *Job) finish(code int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.exitCode = code
	if code == 0 {
		j.state = JobSucceeded
		return
	}
	j.state = JobFailed
}

func (j *Job) inputPath() string {
	if j.Input == nil {
		return ""
	}
	return j.Input.SourcePath
}

func (j *Job) duration() float64 {
	if j.Input == nil {
		return 0
	}
	return j.Input.Duration
}

// Outcome is the terminal result of a job. Launch failures carry
// LaunchFailedExitCode so callers only need to tell success from failure.
type Outcome struct {
	JobID    string
	Row      int
	Success  bool
	ExitCode int
	Message  string
	Err      error
}
