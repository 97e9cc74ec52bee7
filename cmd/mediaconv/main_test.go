package main

import (
	"bytes"
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
	"github.com/mantonx/mediaconv/internal/media"
	"github.com/mantonx/mediaconv/internal/transcode/args"
	"github.com/mantonx/mediaconv/internal/transcode/batch"
	"github.com/mantonx/mediaconv/internal/transcode/ffmpeg"
)

func parseConversion(t *testing.T, argv ...string) conversionFlags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var conv conversionFlags
	conv.register(fs)
	require.NoError(t, fs.Parse(argv))
	return conv
}

func TestConversionFlags_Audio(t *testing.T) {
	conv := parseConversion(t, "-format", "m4a", "-bitrate", "256", "-rate", "44100")

	opts, err := conv.options("/srv/out")
	require.NoError(t, err)
	assert.Equal(t, args.TargetAudio, opts.Kind)
	assert.Equal(t, args.AudioAAC, opts.AudioFormat)
	assert.Equal(t, 256, opts.Bitrate)
	assert.Equal(t, 44100, opts.SampleRate)
	assert.Equal(t, "/srv/out", opts.DestinationDir, "configured destination applies when -dest is unset")
}

func TestConversionFlags_Video(t *testing.T) {
	conv := parseConversion(t,
		"-target", "video", "-codec", "dnxhd", "-profile", "dnxhr_hqx",
		"-container", "mxf", "-resolution", "uhd4K", "-fps", "25", "-pad", "-dest", "/tmp/x")

	opts, err := conv.options("/srv/out")
	require.NoError(t, err)
	assert.Equal(t, args.TargetVideo, opts.Kind)
	assert.Equal(t, args.CodecDNxHD, opts.VideoCodec)
	assert.Equal(t, args.UHD4K, opts.Resolution)
	assert.Equal(t, args.FrameRate(25), opts.FrameRate)
	assert.True(t, opts.Pad)
	assert.Equal(t, "/tmp/x", opts.DestinationDir)
}

func TestConversionFlags_Errors(t *testing.T) {
	tests := [][]string{
		{"-target", "image"},
		{"-format", "flac"},
		{"-target", "video", "-codec", "vp9"},
		{"-target", "video", "-resolution", "huge"},
		{"-target", "video", "-fps", "fast"},
	}

	for _, argv := range tests {
		conv := parseConversion(t, argv...)
		_, err := conv.options("")
		assert.Error(t, err, argv)
	}
}

func TestTerminalListener(t *testing.T) {
	var out, errOut bytes.Buffer
	files := []*media.File{media.NewFile("/in/a.mov", nil, 10)}
	l := newTerminalListener(&out, &errOut, files, false)

	l.Progress(0, 3)
	l.Progress(0, 7.5)
	l.Progress(0, 12.25)
	l.Log("frame=1\n", ffmpeg.SeverityInfo)
	l.Log("conversion exited with code 1", ffmpeg.SeverityError)

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2, "progress is printed once per step")
	assert.Contains(t, out.String(), "a.mov")
	assert.Contains(t, out.String(), "12.25%")
	assert.Equal(t, "conversion exited with code 1\n", errOut.String())
}

func TestPrintReport(t *testing.T) {
	start := time.Now()
	report := &batch.Report{
		BatchID:    "b-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Results: []batch.FileResult{
			{Input: "/in/a.mov", Output: "/in/a.wav", Outcome: ffmpeg.Outcome{Success: true}},
			{Input: "/in/b.mov", Outcome: ffmpeg.Outcome{ExitCode: 1, Message: "conversion exited with code 1", Err: mediaerrors.ProcessFailed("/in/b.mov", 1)}},
			{Input: "/in/c.mov", Outcome: ffmpeg.Outcome{Message: "conversion cancelled", Err: mediaerrors.Cancelled("/in/c.mov")}},
		},
		Succeeded: 1,
		Failed:    1,
		Cancelled: 1,
	}

	var buf bytes.Buffer
	printReport(&buf, report)

	assert.Equal(t, "ok      /in/a.mov -> /in/a.wav\n"+
		"failed  /in/b.mov: conversion exited with code 1\n"+
		"skipped /in/c.mov: conversion cancelled\n"+
		"batch b-1: 1 succeeded, 1 failed, 1 cancelled in 1.5s\n", buf.String())
}

func TestPrintOptions(t *testing.T) {
	var buf bytes.Buffer
	printOptions(&buf)

	assert.Contains(t, buf.String(), "ProRes")
	assert.Contains(t, buf.String(), "HQ 4:4:4 (dnxhr_444)")
	assert.Contains(t, buf.String(), "cinema5K  5120x2700")
	assert.Contains(t, buf.String(), "Auto, 23.976, 24")
}

func TestRun_Usage(t *testing.T) {
	assert.Equal(t, exitUsage, run(nil))
	assert.Equal(t, exitUsage, run([]string{"explode"}))
	assert.Equal(t, exitOK, run([]string{"options"}))
}
