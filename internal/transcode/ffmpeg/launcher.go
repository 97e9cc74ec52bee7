package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// KillGrace is how long a terminated process gets to exit before it is
// killed outright.
var KillGrace = 5 * time.Second

// Process is a running engine instance
type Process interface {
	// PID returns the operating system process id
	PID() int

	// Output returns the merged stdout and stderr stream. It reaches EOF
	// once the process has exited.
	Output() io.Reader

	// Wait blocks until the process exits and returns its exit status
	Wait() (int, error)

	// Terminate asks the process to stop
	Terminate() error
}

// Launcher starts engine processes
type Launcher interface {
	Start(ctx context.Context, binary string, args []string) (Process, error)
}

// ExecLauncher starts processes with os/exec
type ExecLauncher struct{}

// Start spawns binary with args. Both output streams share one pipe so the
// reader sees them interleaved in emission order.
func (ExecLauncher) Start(ctx context.Context, binary string, args []string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}

	cmd := exec.Command(binary, args...)
	cmd.Stdout = writer
	cmd.Stderr = writer
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		reader.Close()
		writer.Close()
		return nil, err
	}

	// The child holds its own copy of the write end
	writer.Close()

	return &execProcess{cmd: cmd, output: reader, done: make(chan struct{})}, nil
}

type execProcess struct {
	cmd      *exec.Cmd
	output   *os.File
	done     chan struct{}
	waitOnce sync.Once
}

func (p *execProcess) PID() int { return p.cmd.Process.Pid }

func (p *execProcess) Output() io.Reader { return p.output }

func (p *execProcess) Wait() (int, error) {
	defer p.output.Close()

	err := p.cmd.Wait()
	p.waitOnce.Do(func() { close(p.done) })
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (p *execProcess) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Signal(syscall.SIGTERM)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	if err != nil {
		return err
	}

	// Escalate to SIGKILL if the engine ignores the request
	go func() {
		select {
		case <-p.done:
		case <-time.After(KillGrace):
			p.cmd.Process.Kill()
		}
	}()
	return nil
}
