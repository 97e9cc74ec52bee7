package locator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
)

const encoderList = `Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 V....D prores_ks            Apple ProRes (iCodec Pro) (codec prores)
 A....D aac                  AAC (Advanced Audio Coding)
 A....D libfdk_aac           Fraunhofer FDK AAC (codec aac)
`

// MockCommandRunner replies per command name and counts invocations
type MockCommandRunner struct {
	mu      sync.Mutex
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func (m *MockCommandRunner) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, cmd+" "+strings.Join(args, " "))
	return m.outputs[cmd], m.errs[cmd]
}

func executable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestLocate_ResourceDirFirst(t *testing.T) {
	dir := t.TempDir()
	bundled := executable(t, dir, FFmpeg)
	runner := &MockCommandRunner{outputs: map[string][]byte{"which": []byte("/usr/bin/ffmpeg\n")}}
	l := NewWithExecutor(hclog.NewNullLogger(), dir, runner)

	path, err := l.Locate(context.Background(), FFmpeg)

	require.NoError(t, err)
	assert.Equal(t, bundled, path)
	assert.Empty(t, runner.calls)
}

func TestLocate_PathLookup(t *testing.T) {
	runner := &MockCommandRunner{outputs: map[string][]byte{"which": []byte("/usr/local/bin/ffprobe\n/other\n")}}
	l := NewWithExecutor(hclog.NewNullLogger(), t.TempDir(), runner)

	path, err := l.Locate(context.Background(), FFprobe)

	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/ffprobe", path)
	assert.Equal(t, []string{"which ffprobe"}, runner.calls)
}

func TestLocate_NotFound(t *testing.T) {
	runner := &MockCommandRunner{errs: map[string]error{"which": errors.New("exit status 1")}}
	l := NewWithExecutor(hclog.NewNullLogger(), "", runner)

	_, err := l.Locate(context.Background(), FFmpeg)

	require.Error(t, err)
	assert.ErrorIs(t, err, mediaerrors.ErrBinaryNotFound)
	assert.True(t, mediaerrors.IsFatal(err))
	assert.Equal(t, "required tool ffmpeg is missing", mediaerrors.UserMessage(err))

	empty := &MockCommandRunner{outputs: map[string][]byte{"which": []byte("\n")}}
	_, err = NewWithExecutor(nil, "", empty).Locate(context.Background(), FFmpeg)
	assert.ErrorIs(t, err, mediaerrors.ErrBinaryNotFound)
}

func TestLocate_Override(t *testing.T) {
	dir := t.TempDir()
	custom := executable(t, dir, "ffmpeg-6")
	runner := &MockCommandRunner{outputs: map[string][]byte{"which": []byte("/usr/bin/ffmpeg\n")}}
	l := NewWithExecutor(hclog.NewNullLogger(), "", runner)

	l.SetOverride(FFmpeg, custom)
	path, err := l.Locate(context.Background(), FFmpeg)
	require.NoError(t, err)
	assert.Equal(t, custom, path)

	l.SetOverride(FFmpeg, filepath.Join(dir, "missing"))
	path, err = l.Locate(context.Background(), FFmpeg)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/ffmpeg", path, "a broken override falls through to PATH")
}

func TestLocate_IgnoresNonExecutableBundle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FFmpeg), []byte("x"), 0644))
	runner := &MockCommandRunner{outputs: map[string][]byte{"which": []byte("/usr/bin/ffmpeg")}}

	path, err := NewWithExecutor(nil, dir, runner).Locate(context.Background(), FFmpeg)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/ffmpeg", path)
}

func TestCapabilities_DetectedAndCached(t *testing.T) {
	runner := &MockCommandRunner{outputs: map[string][]byte{"/usr/bin/ffmpeg": []byte(encoderList)}}
	l := NewWithExecutor(hclog.NewNullLogger(), "", runner)

	caps := l.Capabilities(context.Background(), "/usr/bin/ffmpeg")
	again := l.Capabilities(context.Background(), "/usr/bin/ffmpeg")

	assert.True(t, caps.FDKAAC)
	assert.True(t, caps.LibX264)
	assert.Equal(t, "libfdk_aac", caps.AACEncoder())
	assert.Equal(t, "libx264", caps.H264Encoder())
	assert.Equal(t, caps, again)
	assert.Equal(t, []string{"/usr/bin/ffmpeg -hide_banner -encoders"}, runner.calls, "probed exactly once")
}

func TestCapabilities_Baseline(t *testing.T) {
	plain := " A....D aac                  AAC (Advanced Audio Coding)\n V....D h264_v4l2m2m  V4L2 mem2mem H.264 encoder wrapper\n"
	caps := CapabilitiesFromEncoderList([]byte(plain))
	assert.Equal(t, EngineCapabilities{}, caps)
	assert.Equal(t, "aac", caps.AACEncoder())
	assert.Equal(t, "h264", caps.H264Encoder())

	runner := &MockCommandRunner{errs: map[string]error{"/bin/ffmpeg": errors.New("exec format error")}}
	l := NewWithExecutor(nil, "", runner)
	assert.Equal(t, EngineCapabilities{}, l.Capabilities(context.Background(), "/bin/ffmpeg"))
}

func TestSupportsEncoder(t *testing.T) {
	runner := &MockCommandRunner{outputs: map[string][]byte{"/usr/bin/ffmpeg": []byte(encoderList)}}
	l := NewWithExecutor(nil, "", runner)

	assert.True(t, l.SupportsEncoder(context.Background(), "/usr/bin/ffmpeg", FDKAACPattern))
	assert.False(t, l.SupportsEncoder(context.Background(), "/missing", LibX264Pattern))
}
