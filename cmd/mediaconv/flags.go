package main

import (
	"flag"
	"fmt"

	"github.com/mantonx/mediaconv/internal/transcode/args"
)

// conversionFlags collects the target selection shared by convert and watch
type conversionFlags struct {
	target      string
	format      string
	bitDepth    int
	bitrate     int
	sampleRate  int
	codec       string
	profile     string
	container   string
	resolution  string
	frameRate   string
	pad         bool
	dest        string
	concurrency int
}

func (c *conversionFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.target, "target", "audio", "target kind: audio or video")
	fs.StringVar(&c.format, "format", "wav", "audio format: wav, mp3 or aac (m4a)")
	fs.IntVar(&c.bitDepth, "bits", 24, "WAV bit depth: 16, 24 or 32")
	fs.IntVar(&c.bitrate, "bitrate", 320, "MP3/AAC bitrate in kbit/s")
	fs.IntVar(&c.sampleRate, "rate", 48000, "audio sample rate in Hz")
	fs.StringVar(&c.codec, "codec", "ProRes", "video codec: ProRes, DNxHD or H264")
	fs.StringVar(&c.profile, "profile", "HQ", "codec profile title or value")
	fs.StringVar(&c.container, "container", "mov", "video container extension")
	fs.StringVar(&c.resolution, "resolution", "hd1080", "output resolution preset or WxH")
	fs.StringVar(&c.frameRate, "fps", "auto", "output frame rate, or auto to keep the source rate")
	fs.BoolVar(&c.pad, "pad", false, "letterbox to the exact output size")
	fs.StringVar(&c.dest, "dest", "", "destination directory (default: next to each input)")
	fs.IntVar(&c.concurrency, "concurrency", 0, "simultaneous conversions, -1 for one per core (default: configured)")
}

// options turns the flag values into conversion options. Combinations the
// argument builder rejects surface when the batch starts.
func (c *conversionFlags) options(defaultDest string) (args.Options, error) {
	opts := args.Options{
		Pad:            c.pad,
		DestinationDir: c.dest,
	}
	if opts.DestinationDir == "" {
		opts.DestinationDir = defaultDest
	}

	switch c.target {
	case "audio":
		format, ok := args.ParseAudioFormat(c.format)
		if !ok {
			return opts, fmt.Errorf("unknown audio format %q", c.format)
		}
		opts.Kind = args.TargetAudio
		opts.AudioFormat = format
		opts.BitDepth = c.bitDepth
		opts.Bitrate = c.bitrate
		opts.SampleRate = c.sampleRate

	case "video":
		codec, ok := args.ParseVideoCodec(c.codec)
		if !ok {
			return opts, fmt.Errorf("unknown video codec %q", c.codec)
		}
		res, ok := args.ResolutionByName(c.resolution)
		if !ok {
			return opts, fmt.Errorf("unknown resolution %q", c.resolution)
		}
		rate, err := args.ParseFrameRate(c.frameRate)
		if err != nil {
			return opts, err
		}
		opts.Kind = args.TargetVideo
		opts.VideoCodec = codec
		opts.Profile = c.profile
		opts.Container = c.container
		opts.Resolution = res
		opts.FrameRate = rate

	default:
		return opts, fmt.Errorf("unknown target %q, want audio or video", c.target)
	}

	return opts, nil
}
