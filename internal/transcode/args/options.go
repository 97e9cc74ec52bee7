package args

import (
	"fmt"
	"strconv"
	"strings"
)

// TargetKind selects audio or video output
type TargetKind int

const (
	TargetAudio TargetKind = iota
	TargetVideo
)

func (k TargetKind) String() string {
	if k == TargetVideo {
		return "video"
	}
	return "audio"
}

// AudioFormat is an audio output type
type AudioFormat string

const (
	AudioWAV AudioFormat = "WAV"
	AudioMP3 AudioFormat = "MP3"
	AudioAAC AudioFormat = "AAC"
)

// AudioFormats lists the audio output types in display order
var AudioFormats = []AudioFormat{AudioWAV, AudioMP3, AudioAAC}

// Extension returns the file extension written for the format
func (f AudioFormat) Extension() string {
	switch f {
	case AudioWAV:
		return "wav"
	case AudioMP3:
		return "mp3"
	case AudioAAC:
		return "m4a"
	}
	return ""
}

// Audio option choices
var (
	AudioBitDepths   = []int{32, 24, 16}
	AudioBitrates    = []int{320, 256, 192, 128}
	AudioSampleRates = []int{96000, 48000, 44100}
)

// VideoCodec is a video output codec family
type VideoCodec string

const (
	CodecProRes VideoCodec = "ProRes"
	CodecDNxHD  VideoCodec = "DNxHD"
	CodecH264   VideoCodec = "H264"
)

// VideoCodecs lists the video codecs in display order
var VideoCodecs = []VideoCodec{CodecProRes, CodecDNxHD, CodecH264}

// Profile pairs a display title with the engine's profile value
type Profile struct {
	Title string
	Value string
}

// Profiles returns the profiles a codec accepts
func (c VideoCodec) Profiles() []Profile {
	switch c {
	case CodecProRes:
		return []Profile{{"HQ", "3"}, {"LT", "1"}, {"Standard", "2"}, {"4444", "4"}}
	case CodecDNxHD:
		return []Profile{{"HQ", "dnxhr_hq"}, {"Standard", "dnxhr_sq"}, {"HQ 10 bits", "dnxhr_hqx"}, {"HQ 4:4:4", "dnxhr_444"}}
	case CodecH264:
		return []Profile{{"High", "high"}, {"Main", "main"}, {"Baseline", "baseline"}}
	}
	return nil
}

// Containers returns the container extensions a codec can be written to
func (c VideoCodec) Containers() []string {
	switch c {
	case CodecProRes:
		return []string{"mov", "mxf", "mkv"}
	case CodecDNxHD:
		return []string{"mxf", "mov"}
	case CodecH264:
		return []string{"mp4", "mov", "mkv"}
	}
	return nil
}

// ResolveProfile accepts a profile by value or by title, case-insensitively
func (c VideoCodec) ResolveProfile(s string) (Profile, bool) {
	for _, p := range c.Profiles() {
		if p.Value == s || strings.EqualFold(p.Title, s) {
			return p, true
		}
	}
	return Profile{}, false
}

func (c VideoCodec) supportsContainer(ext string) bool {
	for _, x := range c.Containers() {
		if x == strings.ToLower(ext) {
			return true
		}
	}
	return false
}

// Resolution is a named output frame size
type Resolution struct {
	Name   string
	Width  int
	Height int
}

// Named resolution presets
var (
	SD480    = Resolution{"sd480", 720, 480}
	SD576    = Resolution{"sd576", 720, 576}
	HD720    = Resolution{"hd720", 1280, 720}
	HD1080   = Resolution{"hd1080", 1920, 1080}
	Cinema2K = Resolution{"cinema2K", 2048, 1080}
	Cinema4K = Resolution{"cinema4K", 4096, 2160}
	Cinema5K = Resolution{"cinema5K", 5120, 2700}
	UHD4K    = Resolution{"uhd4K", 3840, 2160}
	UHD8K    = Resolution{"uhd8K", 7680, 4320}
)

// Resolutions lists every preset in display order
var Resolutions = []Resolution{SD480, SD576, HD720, HD1080, Cinema2K, Cinema4K, Cinema5K, UHD4K, UHD8K}

// String returns "WxH"
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// filterSize returns the "W:H" form used inside filter expressions
func (r Resolution) filterSize() string {
	return fmt.Sprintf("%d:%d", r.Width, r.Height)
}

// ResolutionByName finds a preset by name (case-insensitive) or by "WxH"
func ResolutionByName(name string) (Resolution, bool) {
	for _, r := range Resolutions {
		if strings.EqualFold(r.Name, name) || r.String() == name {
			return r, true
		}
	}
	return Resolution{}, false
}

// FrameRate is an output frame rate in frames per second; FrameRateAuto
// keeps the source rate.
type FrameRate float64

// FrameRateAuto leaves the frame rate untouched
const FrameRateAuto FrameRate = 0

// FrameRates lists the selectable frame rates after Auto
var FrameRates = []FrameRate{23.976, 24, 25, 29.97, 30, 48, 50, 59.94, 60, 90, 100, 119.88, 120}

// String returns "Auto" or the decimal rate
func (f FrameRate) String() string {
	if f == FrameRateAuto {
		return "Auto"
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

// ParseFrameRate accepts "auto" or a decimal rate
func ParseFrameRate(s string) (FrameRate, error) {
	if strings.EqualFold(strings.TrimSpace(s), "auto") || s == "" {
		return FrameRateAuto, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	return FrameRate(f), nil
}

// ParseAudioFormat accepts a format name or its extension
func ParseAudioFormat(s string) (AudioFormat, bool) {
	for _, f := range AudioFormats {
		if strings.EqualFold(string(f), s) || strings.EqualFold(f.Extension(), s) {
			return f, true
		}
	}
	return "", false
}

// ParseVideoCodec accepts a codec family name, case-insensitively
func ParseVideoCodec(s string) (VideoCodec, bool) {
	for _, c := range VideoCodecs {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Options is one conversion request. It is built per invocation and not
// changed while jobs run.
type Options struct {
	Kind TargetKind

	// Audio targets
	AudioFormat AudioFormat
	BitDepth    int // WAV sample bits
	Bitrate     int // MP3/AAC kbit/s
	SampleRate  int

	// Video targets
	VideoCodec VideoCodec
	Profile    string // profile value or title
	Container  string
	Resolution Resolution
	FrameRate  FrameRate
	Pad        bool

	// DestinationDir redirects output; empty writes next to the input
	DestinationDir string
}

// Extension returns the output file extension for the options
func (o Options) Extension() string {
	if o.Kind == TargetVideo {
		return strings.ToLower(o.Container)
	}
	return o.AudioFormat.Extension()
}
