package streams

import (
	"strings"
)

// FourCC is a four character code packed big-endian into 32 bits
type FourCC uint32

// Canonical codec tags
var (
	CodecH264           = MustFourCC("avc1")
	CodecHEVC           = MustFourCC("hvc1")
	CodecVP9            = MustFourCC("vp09")
	CodecMPEG4Video     = MustFourCC("mp4v")
	CodecMPEG2Video     = MustFourCC("mp2v")
	CodecMPEG1Video     = MustFourCC("mp1v")
	CodecJPEG           = MustFourCC("jpeg")
	CodecAppleProRes422 = MustFourCC("apcn")
	CodecLinearPCM      = MustFourCC("lpcm")
	CodecAAC            = MustFourCC("aac ")
	CodecTimecode       = MustFourCC("tmcd")
)

// videoCodecNames maps probe codec names onto canonical tags
var videoCodecNames = map[string]FourCC{
	"h264":        CodecH264,
	"avc1":        CodecH264,
	"h264_mp4":    CodecH264,
	"h264_nal":    CodecH264,
	"x264":        CodecH264,
	"hevc":        CodecHEVC,
	"h265":        CodecHEVC,
	"vp9":         CodecVP9,
	"mpeg4":       CodecMPEG4Video,
	"mpeg4_part2": CodecMPEG4Video,
	"mpeg2video":  CodecMPEG2Video,
	"mpeg1video":  CodecMPEG1Video,
	"mjpeg":       CodecJPEG,
	"jpeg":        CodecJPEG,
	"prores":      CodecAppleProRes422,
}

// MustFourCC packs a code of exactly four bytes. It panics on any other
// length and is meant for package-level constants.
func MustFourCC(code string) FourCC {
	if len(code) != 4 {
		panic("fourcc must be four bytes: " + code)
	}
	return pack(code)
}

// FourCCFromName derives a tag from the first four characters of name,
// padded with spaces. It returns false for an empty name.
func FourCCFromName(name string) (FourCC, bool) {
	if name == "" {
		return 0, false
	}
	if len(name) > 4 {
		name = name[:4]
	}
	return pack(name + strings.Repeat(" ", 4-len(name))), true
}

// VideoCodecTag maps a probe codec name to its canonical tag, falling back
// to a packed tag from the name itself.
func VideoCodecTag(name string) (FourCC, bool) {
	if tag, ok := videoCodecNames[strings.ToLower(name)]; ok {
		return tag, true
	}
	return FourCCFromName(name)
}

func pack(code string) FourCC {
	var v uint32
	for i := 0; i < 4; i++ {
		v = v<<8 | uint32(code[i])
	}
	return FourCC(v)
}

// String returns the four characters of the code
func (f FourCC) String() string {
	b := []byte{byte(f >> 24), byte(f >> 16), byte(f >> 8), byte(f)}
	return string(b)
}
