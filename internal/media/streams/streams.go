// Package streams models the audio, video and timecode tracks of a media
// file independently of the tool that described them.
package streams

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Description
type Kind int

const (
	KindVideo Kind = iota + 1
	KindAudio
	KindTimecode
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindTimecode:
		return "timecode"
	default:
		return "unknown"
	}
}

// Description is one track's format. The concrete type is always one of
// *Video, *Audio or *Timecode; consumers switch on it.
type Description interface {
	Kind() Kind
	Tag() FourCC
	String() string
	description()
}

// FieldOrder distinguishes progressive from interlaced scan
type FieldOrder int

const (
	Progressive FieldOrder = iota
	Interlaced
)

// FieldCount is 1 for progressive and 2 for interlaced frames
func (o FieldOrder) FieldCount() int {
	if o == Progressive {
		return 1
	}
	return 2
}

// FieldOrderFromProbe maps a probe field_order value. Only "progressive"
// is progressive; every other value, including absent, counts as two fields.
func FieldOrderFromProbe(value string) FieldOrder {
	if value == "progressive" {
		return Progressive
	}
	return Interlaced
}

// FormatFlags describes PCM sample encoding
type FormatFlags int

const (
	FlagsNone FormatFlags = iota
	FlagSignedInteger
	FlagFloat
)

// Video describes a video track. ColorPrimaries is empty and BitDepth is
// zero when the source did not report them.
type Video struct {
	Codec          FourCC
	CodecName      string
	Width          int
	Height         int
	FieldOrder     FieldOrder
	FrameRate      float64
	ColorPrimaries string
	BitDepth       int
}

// Audio describes an audio track. BitsPerChannel, BytesPerFrame and
// FramesPerPacket are zero when not implied by the codec.
type Audio struct {
	Codec           FourCC
	CodecName       string
	SampleRate      float64
	Channels        uint
	BitsPerChannel  uint
	BytesPerFrame   uint
	FramesPerPacket uint
	Flags           FormatFlags
}

// Timecode describes a timecode track
type Timecode struct {
	Codec     FourCC
	FrameRate float64
}

func (*Video) Kind() Kind { return KindVideo }
func (*Audio) Kind() Kind { return KindAudio }
func (*Timecode) Kind() Kind { return KindTimecode }

func (v *Video) Tag() FourCC { return v.Codec }
func (a *Audio) Tag() FourCC { return a.Codec }
func (t *Timecode) Tag() FourCC { return t.Codec }

func (*Video) description() {}
func (*Audio) description() {}
func (*Timecode) description() {}

// NewAudio builds an Audio description from a probe codec name, deriving
// PCM layout for the known sample formats.
func NewAudio(codecName string, sampleRate float64, channels uint) (*Audio, bool) {
	tag, ok := FourCCFromName(codecName)
	if !ok {
		return nil, false
	}

	a := &Audio{
		Codec:      tag,
		CodecName:  codecName,
		SampleRate: sampleRate,
		Channels:   channels,
	}

	switch codecName {
	case "pcm_s16le", "pcm_s16be":
		a.setPCM(16, FlagSignedInteger)
	case "pcm_s24le", "pcm_s24be":
		a.setPCM(24, FlagSignedInteger)
	case "pcm_f32le", "pcm_f32be":
		a.setPCM(32, FlagFloat)
	case "aac":
		a.Codec = CodecAAC
		a.FramesPerPacket = 1024
	}

	return a, true
}

func (a *Audio) setPCM(bits uint, flags FormatFlags) {
	a.Codec = CodecLinearPCM
	a.Flags = flags
	a.BitsPerChannel = bits
	a.BytesPerFrame = bits / 8 * a.Channels
	a.FramesPerPacket = 1
}

// ParseFrameRate converts a "num/den" rational (or a plain decimal) to
// frames per second. Malformed input and a zero denominator yield 0.
func ParseFrameRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	num, den, found := strings.Cut(value, "/")
	if !found {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// String renders the track the way the info panel shows it, e.g.
// "Video: H.264, 1920x1080p, 29.97fps".
func (v *Video) String() string {
	scan := "p"
	if v.FieldOrder == Interlaced {
		scan = "i"
	}

	s := fmt.Sprintf("Video: %s, %dx%d%s, %sfps", videoCodecDisplayName(v), v.Width, v.Height, scan, formatRate(v.FrameRate))
	if v.ColorPrimaries != "" {
		s += ", " + v.ColorPrimaries
	}
	if v.BitDepth > 0 {
		s += fmt.Sprintf(", %d-bit", v.BitDepth)
	}
	return s
}

// String renders e.g. "Audio: Linear PCM, 24bits, Stereo, 48000Hz"
func (a *Audio) String() string {
	var parts []string
	parts = append(parts, audioCodecDisplayName(a))
	if a.BitsPerChannel > 0 {
		parts = append(parts, fmt.Sprintf("%dbits", a.BitsPerChannel))
	}
	parts = append(parts, channelLayout(a.Channels))
	parts = append(parts, fmt.Sprintf("%.0fHz", a.SampleRate))
	return "Audio: " + strings.Join(parts, ", ")
}

func (t *Timecode) String() string {
	return fmt.Sprintf("Timecode: %s, %sfps", strings.TrimSpace(t.Codec.String()), formatRate(t.FrameRate))
}

func videoCodecDisplayName(v *Video) string {
	switch v.Codec {
	case CodecH264:
		return "H.264"
	case CodecHEVC:
		return "HEVC"
	case CodecVP9:
		return "VP9"
	case CodecMPEG4Video:
		return "MPEG-4 Video"
	case CodecMPEG2Video:
		return "MPEG-2 Video"
	case CodecMPEG1Video:
		return "MPEG-1 Video"
	case CodecJPEG:
		return "Motion JPEG"
	case CodecAppleProRes422:
		return "Apple ProRes"
	}
	if v.CodecName != "" {
		return v.CodecName
	}
	return strings.TrimSpace(v.Codec.String())
}

func audioCodecDisplayName(a *Audio) string {
	switch a.Codec {
	case CodecLinearPCM:
		return "Linear PCM"
	case CodecAAC:
		return "AAC"
	}
	switch a.CodecName {
	case "mp3":
		return "MPEG Layer 3"
	case "mp2":
		return "MPEG Layer 2"
	case "ac3":
		return "AC3"
	case "eac3":
		return "E-AC3"
	case "alac":
		return "Apple Lossless"
	case "flac":
		return "FLAC"
	case "vorbis":
		return "Vorbis"
	case "opus":
		return "Opus"
	}
	if a.CodecName != "" {
		return a.CodecName
	}
	return strings.TrimSpace(a.Codec.String())
}

func channelLayout(channels uint) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		return fmt.Sprintf("%d ch", channels)
	}
}

func formatRate(rate float64) string {
	if rate == math.Trunc(rate) {
		return strconv.FormatFloat(rate, 'f', 0, 64)
	}
	return strconv.FormatFloat(rate, 'f', 2, 64)
}
