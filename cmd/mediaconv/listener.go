package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mantonx/mediaconv/internal/media"
	"github.com/mantonx/mediaconv/internal/transcode/ffmpeg"
)

// progressStep is the percentage granularity printed per file
const progressStep = 10

// terminalListener prints coarse per-file progress and engine errors.
// Engine chatter is only shown when verbose.
type terminalListener struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	names   map[int]string
	last    map[int]int
	verbose bool
}

func newTerminalListener(out, errOut io.Writer, files []*media.File, verbose bool) *terminalListener {
	names := make(map[int]string, len(files))
	for row, f := range files {
		if f != nil {
			names[row] = f.Name()
		}
	}
	return &terminalListener{
		out:     out,
		errOut:  errOut,
		names:   names,
		last:    make(map[int]int),
		verbose: verbose,
	}
}

func (l *terminalListener) Progress(row int, percent float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	step := int(percent) / progressStep * progressStep
	prev, seen := l.last[row]
	if seen && step <= prev {
		return
	}
	l.last[row] = step
	fmt.Fprintf(l.out, "%-40s %6.2f%%\n", l.names[row], percent)
}

func (l *terminalListener) Log(text string, severity ffmpeg.Severity) {
	if severity == ffmpeg.SeverityInfo && !l.verbose {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	fmt.Fprint(l.errOut, text)
}
