// Package catalog classifies files by extension into audio and video media.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the media class an extension belongs to
type Kind int

const (
	// KindUnknown is returned for extensions that are not recognized
	KindUnknown Kind = iota
	// KindVideo marks video containers
	KindVideo
	// KindAudio marks audio-only containers
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

var videoExtensions = []string{
	"mp4", "m4v", "mkv", "webm", "mov", "avi", "wmv", "flv", "f4v", "swf",
	"mpg", "mpeg", "m2v", "3gp", "3g2", "mxf", "roq", "nsv", "vob", "ogv",
	"drc", "gifv", "mng", "qt", "yuv", "rm", "rmvb", "asf", "amv", "m4p",
	"mpv", "mp2", "mpe", "mpv2", "m2ts", "mts", "ts", "divx", "dv", "gxf",
	"mj2", "mjpeg", "mjpg", "nut", "rv", "wtv", "dvr-ms", "rec", "mod", "tod",
	"vro",
}

var audioExtensions = []string{
	"mp3", "aac", "wav", "flac", "ogg", "oga", "opus", "wma", "m4a", "ac3",
	"eac3", "dts", "ape", "wv", "tta", "tak", "aiff", "aif", "aifc", "au",
	"snd", "amr", "awb", "mp2", "mpa", "m4b", "m4r", "3ga", "ra", "ram",
	"spx", "voc", "w64", "xa", "caf", "gsm", "mlp", "mka", "shn", "vqf",
	"aa", "aa3", "aax", "act", "alac", "mogg",
}

// kinds maps every recognized extension to its class. Extensions listed as
// both (mp2) resolve to video, which is checked first.
var kinds = func() map[string]Kind {
	m := make(map[string]Kind, len(videoExtensions)+len(audioExtensions))
	for _, ext := range audioExtensions {
		m[ext] = KindAudio
	}
	for _, ext := range videoExtensions {
		m[ext] = KindVideo
	}
	return m
}()

// Extension returns the lowercase extension of path without the dot
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// KindOf classifies an extension, with or without a leading dot
func KindOf(ext string) Kind {
	return kinds[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// IsSupported reports whether ext is a recognized media extension
func IsSupported(ext string) bool {
	return KindOf(ext) != KindUnknown
}

// IsVideo reports whether ext is a recognized video extension
func IsVideo(ext string) bool {
	return KindOf(ext) == KindVideo
}

// IsAudio reports whether ext is a recognized audio extension. Extensions
// shared with video containers count as audio too.
func IsAudio(ext string) bool {
	e := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range audioExtensions {
		if a == e {
			return true
		}
	}
	return false
}

// IsValidCandidate reports whether path names an existing regular file with
// a recognized media extension. Directories never qualify.
func IsValidCandidate(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	ext := Extension(path)
	if ext == "" {
		return false
	}
	return IsSupported(ext)
}

// Extensions returns every recognized extension, sorted
func Extensions() []string {
	out := make([]string, 0, len(kinds))
	for ext := range kinds {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
