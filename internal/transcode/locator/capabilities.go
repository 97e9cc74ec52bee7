package locator

import (
	"regexp"
)

// Encoder list patterns for the optional higher-quality encoders
var (
	FDKAACPattern  = regexp.MustCompile(`libfdk_aac\s+Fraunhofer FDK AAC`)
	LibX264Pattern = regexp.MustCompile(`libx264\s+libx264 H\.264 / AVC / MPEG-4 AVC / MPEG-4`)
)

// EngineCapabilities records which optional encoders the engine provides
type EngineCapabilities struct {
	FDKAAC  bool
	LibX264 bool
}

// CapabilitiesFromEncoderList parses `ffmpeg -encoders` output
func CapabilitiesFromEncoderList(out []byte) EngineCapabilities {
	return EngineCapabilities{
		FDKAAC:  FDKAACPattern.Match(out),
		LibX264: LibX264Pattern.Match(out),
	}
}

// AACEncoder returns the AAC encoder identifier to request
func (c EngineCapabilities) AACEncoder() string {
	if c.FDKAAC {
		return "libfdk_aac"
	}
	return "aac"
}

// H264Encoder returns the H.264 encoder identifier to request
func (c EngineCapabilities) H264Encoder() string {
	if c.LibX264 {
		return "libx264"
	}
	return "h264"
}
