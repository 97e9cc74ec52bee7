// Package media holds the accepted-file model shared by probing and conversion.
package media

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/mantonx/mediaconv/internal/media/catalog"
	"github.com/mantonx/mediaconv/internal/media/streams"
)

// Tags is the optional embedded metadata of an audio file
type Tags struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`
}

// File is a probed media file. It is not modified after the probe returns it.
type File struct {
	SourcePath string
	Streams    []streams.Description
	Duration   float64
	Tags       *Tags
}

// NewFile builds a File keeping only the first video and first audio
// description; timecode tracks are kept as reported.
func NewFile(path string, descs []streams.Description, duration float64) *File {
	f := &File{SourcePath: path, Duration: math.Max(duration, 0)}

	var haveVideo, haveAudio bool
	for _, d := range descs {
		switch d.(type) {
		case *streams.Video:
			if haveVideo {
				continue
			}
			haveVideo = true
		case *streams.Audio:
			if haveAudio {
				continue
			}
			haveAudio = true
		}
		f.Streams = append(f.Streams, d)
	}

	return f
}

// Video returns the video track, or nil
func (f *File) Video() *streams.Video {
	for _, d := range f.Streams {
		if v, ok := d.(*streams.Video); ok {
			return v
		}
	}
	return nil
}

// Audio returns the audio track, or nil
func (f *File) Audio() *streams.Audio {
	for _, d := range f.Streams {
		if a, ok := d.(*streams.Audio); ok {
			return a
		}
	}
	return nil
}

// Kind is KindVideo when the file has a video track, KindAudio when it has
// only audio
func (f *File) Kind() catalog.Kind {
	switch {
	case f.Video() != nil:
		return catalog.KindVideo
	case f.Audio() != nil:
		return catalog.KindAudio
	default:
		return catalog.KindUnknown
	}
}

// Name returns the file's base name
func (f *File) Name() string {
	return filepath.Base(f.SourcePath)
}

// Summary lists the track descriptions followed by the duration
func (f *File) Summary() string {
	var b strings.Builder
	for _, d := range f.Streams {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Duration: %s", FormatDuration(f.Duration))
	if f.Tags != nil && (f.Tags.Artist != "" || f.Tags.Title != "") {
		fmt.Fprintf(&b, "\nTags: %s - %s", f.Tags.Artist, f.Tags.Title)
	}
	return b.String()
}

// FormatDuration renders seconds as HH:MM:SS; invalid values give 00:00:00
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "00:00:00"
	}
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
