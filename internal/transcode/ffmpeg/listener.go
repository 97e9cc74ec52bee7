package ffmpeg

import "github.com/hashicorp/go-hclog"

// Severity grades a log message delivered to a Listener
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Listener receives conversion feedback. Calls arrive on the session's
// goroutines and may continue briefly after CancelAll.
type Listener interface {
	Progress(row int, percent float64)
	Log(text string, severity Severity)
}

// NopListener discards everything
type NopListener struct{}

func (NopListener) Progress(int, float64) {}

func (NopListener) Log(string, Severity) {}

// LogListener forwards engine output to an hclog logger and progress at
// debug level.
type LogListener struct {
	Logger hclog.Logger
}

func (l LogListener) Progress(row int, percent float64) {
	l.Logger.Debug("conversion progress", "row", row, "percent", percent)
}

func (l LogListener) Log(text string, severity Severity) {
	switch severity {
	case SeverityError:
		l.Logger.Error("engine output", "text", text)
	case SeverityWarning:
		l.Logger.Warn("engine output", "text", text)
	default:
		l.Logger.Trace("engine output", "text", text)
	}
}
