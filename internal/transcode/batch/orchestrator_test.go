package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
	"github.com/mantonx/mediaconv/internal/media"
	"github.com/mantonx/mediaconv/internal/transcode/args"
	"github.com/mantonx/mediaconv/internal/transcode/ffmpeg"
	"github.com/mantonx/mediaconv/internal/transcode/locator"
)

type stubProcess struct {
	pid        int
	output     string
	code       int
	terminated int32
}

func (p *stubProcess) PID() int { return p.pid }

func (p *stubProcess) Output() io.Reader { return strings.NewReader(p.output) }

func (p *stubProcess) Wait() (int, error) {
	if atomic.LoadInt32(&p.terminated) > 0 {
		return 255, nil
	}
	return p.code, nil
}

func (p *stubProcess) Terminate() error {
	atomic.AddInt32(&p.terminated, 1)
	return nil
}

// stubLauncher fails any input listed in failures with exit code 1
type stubLauncher struct {
	mu       sync.Mutex
	failures map[string]bool
	inputs   []string
	procs    []*stubProcess
}

func (l *stubLauncher) Start(ctx context.Context, binary string, argv []string) (ffmpeg.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	input := argv[5]
	l.inputs = append(l.inputs, input)

	p := &stubProcess{pid: 1000 + len(l.procs), output: "out_time_ms=500000\n"}
	if l.failures[input] {
		p.code = 1
		p.output = "Conversion failed!\n"
	}
	l.procs = append(l.procs, p)
	return p, nil
}

func (l *stubLauncher) started() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.inputs...)
}

type cancellingListener struct {
	orch *Orchestrator
	once sync.Once
}

func (c *cancellingListener) Progress(int, float64) {
	c.once.Do(func() { c.orch.Cancel() })
}

func (c *cancellingListener) Log(string, ffmpeg.Severity) {}

var wavOptions = args.Options{Kind: args.TargetAudio, AudioFormat: args.AudioWAV, BitDepth: 16, SampleRate: 44100}

func files(n int) []*media.File {
	list := make([]*media.File, n)
	for i := range list {
		list[i] = media.NewFile(fmt.Sprintf("/in/clip%d.mov", i), nil, 1)
	}
	return list
}

func newOrchestrator(t *testing.T, launcher ffmpeg.Launcher, concurrency int) *Orchestrator {
	t.Helper()
	session, err := ffmpeg.NewSession(hclog.NewNullLogger(), "/usr/bin/ffmpeg", ffmpeg.WithLauncher(launcher))
	require.NoError(t, err)
	return New(hclog.NewNullLogger(), session, locator.EngineCapabilities{}, concurrency)
}

func TestRun_PartialFailureContinues(t *testing.T) {
	launcher := &stubLauncher{failures: map[string]bool{"/in/clip1.mov": true}}
	orch := newOrchestrator(t, launcher, 1)

	report, err := orch.Run(context.Background(), files(3), wavOptions, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"/in/clip0.mov", "/in/clip1.mov", "/in/clip2.mov"}, launcher.started())
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Cancelled)
	assert.False(t, report.OK())
	assert.NotEmpty(t, report.BatchID)

	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].Outcome.Success)
	assert.Equal(t, ffmpeg.JobFailed, report.Results[1].State)
	assert.Equal(t, 1, report.Results[1].Outcome.ExitCode)
	assert.True(t, report.Results[2].Outcome.Success)
	assert.Equal(t, "/in/clip2.wav", report.Results[2].Output)
}

func TestRun_CancelStopsScheduling(t *testing.T) {
	launcher := &stubLauncher{}
	orch := newOrchestrator(t, launcher, 1)
	listener := &cancellingListener{orch: orch}

	report, err := orch.Run(context.Background(), files(3), wavOptions, listener)
	require.NoError(t, err)

	assert.Equal(t, []string{"/in/clip0.mov"}, launcher.started())
	assert.Equal(t, 3, report.Cancelled)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&launcher.procs[0].terminated))

	for _, res := range report.Results {
		assert.True(t, errors.Is(res.Outcome.Err, mediaerrors.ErrCancelled), res.Input)
	}

	orch.Reset()
	report, err = orch.Run(context.Background(), files(1), wavOptions, nil)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestRun_ContextCancelledBeforeStart(t *testing.T) {
	launcher := &stubLauncher{}
	orch := newOrchestrator(t, launcher, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := orch.Run(ctx, files(2), wavOptions, nil)
	require.NoError(t, err)
	assert.Empty(t, launcher.started())
	assert.Equal(t, 2, report.Cancelled)
}

func TestRun_Pooled(t *testing.T) {
	launcher := &stubLauncher{failures: map[string]bool{"/in/clip3.mov": true}}
	orch := newOrchestrator(t, launcher, 3)
	assert.Equal(t, 3, orch.Concurrency())

	report, err := orch.Run(context.Background(), files(6), wavOptions, nil)
	require.NoError(t, err)

	assert.Len(t, launcher.started(), 6)
	assert.Equal(t, 5, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	for i, res := range report.Results {
		assert.Equal(t, i, res.Row)
	}
	assert.False(t, report.Results[3].Outcome.Success)
}

func TestRun_EngineMissing(t *testing.T) {
	orch := New(hclog.NewNullLogger(), nil, locator.EngineCapabilities{}, 1)

	_, err := orch.Run(context.Background(), files(1), wavOptions, nil)
	require.Error(t, err)
	assert.True(t, mediaerrors.IsFatal(err))
	assert.Equal(t, 0, orch.Cancel())
}

func TestRun_InvalidOptions(t *testing.T) {
	launcher := &stubLauncher{}
	orch := newOrchestrator(t, launcher, 1)

	bad := args.Options{Kind: args.TargetAudio, AudioFormat: args.AudioWAV, BitDepth: 12, SampleRate: 44100}
	_, err := orch.Run(context.Background(), files(2), bad, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mediaerrors.ErrInvalidOptions))
	assert.Empty(t, launcher.started())
}

func TestRunAsync(t *testing.T) {
	orch := newOrchestrator(t, &stubLauncher{}, 1)

	done := make(chan *Report, 1)
	orch.RunAsync(context.Background(), files(2), wavOptions, nil, func(r *Report, err error) {
		assert.NoError(t, err)
		done <- r
	})

	report := <-done
	assert.Equal(t, 2, report.Succeeded)
}

func TestDefaultConcurrency(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultConcurrency(context.Background()), 1)

	orch := New(nil, nil, locator.EngineCapabilities{}, AutoConcurrency)
	assert.GreaterOrEqual(t, orch.Concurrency(), 1)
}
