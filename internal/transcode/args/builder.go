// Package args turns conversion options into engine arguments. Everything
// here is pure so the policies can be tested without spawning processes.
package args

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
	"github.com/mantonx/mediaconv/internal/transcode/locator"
)

// Build returns the user-option arguments that go between the input and
// the output path. Identical inputs always produce identical vectors.
func Build(opts Options, caps locator.EngineCapabilities) ([]string, error) {
	if opts.Kind == TargetVideo {
		return buildVideo(opts, caps)
	}
	return buildAudio(opts, caps)
}

func buildAudio(opts Options, caps locator.EngineCapabilities) ([]string, error) {
	if opts.SampleRate <= 0 {
		return nil, mediaerrors.InvalidOptions("sample rate must be positive")
	}
	rate := strconv.Itoa(opts.SampleRate)

	switch opts.AudioFormat {
	case AudioWAV:
		bits := opts.BitDepth
		if bits != 16 && bits != 24 && bits != 32 {
			return nil, mediaerrors.InvalidOptions(fmt.Sprintf("unsupported WAV bit depth %d", bits))
		}
		b := strconv.Itoa(bits)
		// 24-bit PCM is carried in a 32-bit sample container.
		sampleFmt := "s" + b
		if bits == 24 {
			sampleFmt = "s32"
		}
		return []string{"-y", "-sample_fmt", sampleFmt, "-c:a", "pcm_s" + b + "le", "-ar", rate}, nil

	case AudioAAC:
		if opts.Bitrate <= 0 {
			return nil, mediaerrors.InvalidOptions("AAC bitrate must be positive")
		}
		kbps := strconv.Itoa(opts.Bitrate) + "k"
		bufsize := strconv.Itoa(opts.Bitrate*2) + "k"
		return []string{
			"-y", "-vn",
			"-c:a", caps.AACEncoder(),
			"-b:a", kbps,
			"-maxrate", kbps,
			"-bufsize", bufsize,
			"-ar", rate,
		}, nil

	case AudioMP3:
		if opts.Bitrate <= 0 {
			return nil, mediaerrors.InvalidOptions("MP3 bitrate must be positive")
		}
		return []string{"-y", "-codec:a", "libmp3lame", "-b:a", strconv.Itoa(opts.Bitrate) + "k", "-ar", rate}, nil
	}

	return nil, mediaerrors.InvalidOptions(fmt.Sprintf("unknown audio format %q", opts.AudioFormat))
}

func buildVideo(opts Options, caps locator.EngineCapabilities) ([]string, error) {
	profile, ok := opts.VideoCodec.ResolveProfile(opts.Profile)
	if !ok {
		if opts.VideoCodec.Profiles() == nil {
			return nil, mediaerrors.InvalidOptions(fmt.Sprintf("unknown video codec %q", opts.VideoCodec))
		}
		return nil, mediaerrors.InvalidOptions(fmt.Sprintf("profile %q is not valid for %s", opts.Profile, opts.VideoCodec))
	}
	if !opts.VideoCodec.supportsContainer(opts.Container) {
		return nil, mediaerrors.InvalidOptions(fmt.Sprintf("container %q is not valid for %s", opts.Container, opts.VideoCodec))
	}
	if opts.Resolution.Width <= 0 || opts.Resolution.Height <= 0 {
		return nil, mediaerrors.InvalidOptions("resolution must be set")
	}
	if opts.FrameRate < 0 {
		return nil, mediaerrors.InvalidOptions("frame rate must not be negative")
	}

	pixFmt := PixelFormat(profile.Value)
	filter := ScaleFilter(opts.Resolution, opts.Pad) + FrameRateFilter(opts.FrameRate)

	switch opts.VideoCodec {
	case CodecProRes:
		return []string{
			"-y",
			"-c:v", "prores_ks",
			"-profile:v", profile.Value,
			"-qscale:v", "9",
			"-vendor", "apl0",
			"-pix_fmt", pixFmt,
			"-vf", filter,
			"-c:a", "pcm_s24le",
		}, nil

	case CodecDNxHD:
		return []string{
			"-y",
			"-c:v", "dnxhd",
			"-profile:v", profile.Value,
			"-pix_fmt", pixFmt,
			"-vf", filter,
			"-c:a", "pcm_s24le",
		}, nil

	default: // CodecH264
		out := []string{"-y"}
		out = append(out, h264EncoderArgs(caps)...)
		return append(out,
			"-vf", "format="+pixFmt+","+filter,
			"-c:a", caps.AACEncoder(),
			"-b:a", "320k",
		), nil
	}
}

func h264EncoderArgs(caps locator.EngineCapabilities) []string {
	if caps.LibX264 {
		return []string{"-c:v", "libx264", "-profile:v", "high422", "-preset", "slow", "-crf", "18"}
	}
	return []string{"-c:v", caps.H264Encoder()}
}

// PixelFormat picks the pixel format for a profile value
func PixelFormat(profile string) string {
	switch profile {
	case "dnxhr_hqx", "0", "1", "2", "3":
		return "yuv422p10le"
	case "dnxhr_444":
		return "yuv444p10le"
	case "4", "5":
		return "yuva444p10le"
	default:
		return "yuv422p"
	}
}

// ScaleFilter fits the frame inside r without upscaling the aspect, and
// centers it on an r-sized canvas when pad is set.
func ScaleFilter(r Resolution, pad bool) string {
	size := r.filterSize()
	f := "scale=" + size + ":force_original_aspect_ratio=decrease"
	if pad {
		f += ",pad=" + size + ":(ow-iw)/2:(oh-ih)/2"
	}
	return f
}

// FrameRateFilter returns the ",fps=..." suffix for rate. NTSC rates use
// exact ratios; Auto emits nothing.
func FrameRateFilter(rate FrameRate) string {
	switch rate {
	case FrameRateAuto:
		return ""
	case 29.97:
		return ",fps=30000/1001"
	case 23.976:
		return ",fps=24000/1001"
	case 59.94:
		return ",fps=60000/1001"
	default:
		return ",fps=" + rate.String()
	}
}

// convertedSuffix is appended to the output name when the target would
// overwrite its own input.
const convertedSuffix = "_converted"

// OutputPath swaps the input's extension for the target's, placing the
// result in opts.DestinationDir when set. The result is absolute so it can
// never be read as an engine option, and it never equals the input.
func OutputPath(input string, opts Options) string {
	dir := filepath.Dir(input)
	if opts.DestinationDir != "" {
		dir = opts.DestinationDir
	}
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	ext := "." + opts.Extension()

	out := absPath(filepath.Join(dir, name+ext))
	if out == absPath(input) {
		out = absPath(filepath.Join(dir, name+convertedSuffix+ext))
	}
	return out
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	if !filepath.IsAbs(p) && !strings.HasPrefix(p, "."+string(filepath.Separator)) {
		return "." + string(filepath.Separator) + p
	}
	return p
}
