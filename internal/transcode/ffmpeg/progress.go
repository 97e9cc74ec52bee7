package ffmpeg

import (
	"math"
	"strconv"
	"strings"
)

// ProgressKey is the -progress field carrying the output timestamp. Despite
// its name the value is in microseconds.
const ProgressKey = "out_time_ms"

// DefaultDurationFallback replaces a zero or unknown duration so percent
// computation stays finite.
const DefaultDurationFallback = 0.01

// ParseChunk splits a block of engine output into progress timestamps (in
// microseconds, in emission order) and the remaining text. The remaining
// text keeps its original line breaks and is empty when the chunk held
// nothing but progress markers.
func ParseChunk(chunk string) (markers []int64, text string) {
	var rest strings.Builder

	for len(chunk) > 0 {
		line := chunk
		next := ""
		if i := strings.IndexByte(chunk, '\n'); i >= 0 {
			line, next = chunk[:i+1], chunk[i+1:]
		}
		chunk = next

		if value, ok := progressValue(line); ok {
			if usec, err := strconv.ParseInt(value, 10, 64); err == nil {
				markers = append(markers, usec)
			}
			continue
		}
		rest.WriteString(line)
	}

	return markers, rest.String()
}

func progressValue(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	key, value, found := strings.Cut(trimmed, "=")
	if !found || key != ProgressKey {
		return "", false
	}
	return value, true
}

// Percent converts a progress timestamp to a completion percentage rounded
// to two decimals and clamped to [0, 100]. A non-positive duration is
// replaced by DefaultDurationFallback.
func Percent(usec int64, duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		duration = DefaultDurationFallback
	}

	seconds := float64(usec) / 1_000_000
	pct := math.Min(seconds/duration*100, 100)
	if pct < 0 {
		pct = 0
	}
	return math.Round(pct*100) / 100
}
