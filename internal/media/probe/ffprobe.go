package probe

import (
	"encoding/json"
	"strconv"
	"strings"

	mediaerrors "github.com/mantonx/mediaconv/internal/errors"
	"github.com/mantonx/mediaconv/internal/media/streams"
)

// FFProbeOutput represents the JSON output from ffprobe
type FFProbeOutput struct {
	Format  FFProbeFormat   `json:"format"`
	Streams []FFProbeStream `json:"streams"`
}

// FFProbeFormat represents format information from ffprobe
type FFProbeFormat struct {
	Filename       string            `json:"filename"`
	NBStreams      int               `json:"nb_streams"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	Duration       string            `json:"duration"`
	Size           string            `json:"size"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags"`
}

// FFProbeStream represents stream information from ffprobe. Width, Height
// and Channels are pointers so an absent key can be told apart from zero.
type FFProbeStream struct {
	Index            int               `json:"index"`
	CodecType        string            `json:"codec_type"`
	CodecName        string            `json:"codec_name"`
	CodecLongName    string            `json:"codec_long_name"`
	CodecTagString   string            `json:"codec_tag_string"`
	Profile          string            `json:"profile,omitempty"`
	Width            *int              `json:"width,omitempty"`
	Height           *int              `json:"height,omitempty"`
	PixFmt           string            `json:"pix_fmt,omitempty"`
	FieldOrder       string            `json:"field_order,omitempty"`
	ColorPrimaries   string            `json:"color_primaries,omitempty"`
	BitsPerRawSample string            `json:"bits_per_raw_sample,omitempty"`
	FrameRate        string            `json:"r_frame_rate,omitempty"`
	AvgFrameRate     string            `json:"avg_frame_rate,omitempty"`
	Channels         *int              `json:"channels,omitempty"`
	ChannelLayout    string            `json:"channel_layout,omitempty"`
	SampleRate       string            `json:"sample_rate,omitempty"`
	Duration         string            `json:"duration,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
}

// ParseOutput decodes an ffprobe JSON report
func ParseOutput(data []byte) (*FFProbeOutput, error) {
	var out FFProbeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Describe converts every usable stream of the report. Streams that cannot
// be described are skipped and their errors returned alongside.
func (o *FFProbeOutput) Describe() ([]streams.Description, []error) {
	var descs []streams.Description
	var skipped []error

	for _, s := range o.Streams {
		d, err := DescribeStream(s)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		descs = append(descs, d)
	}

	return descs, skipped
}

// DurationSeconds returns the container duration, or 0 when absent or unparseable
func (f FFProbeFormat) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(f.Duration), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// DescribeStream dispatches on the stream's declared kind
func DescribeStream(s FFProbeStream) (streams.Description, error) {
	switch s.CodecType {
	case "video":
		return NewVideoDescription(s)
	case "audio":
		return NewAudioDescription(s)
	case "data":
		if s.CodecTagString == "tmcd" {
			return &streams.Timecode{Codec: streams.CodecTimecode, FrameRate: streams.ParseFrameRate(s.FrameRate)}, nil
		}
	}
	return nil, mediaerrors.UnsupportedCodec(s.CodecType)
}

// NewVideoDescription requires width and height; everything else is optional
func NewVideoDescription(s FFProbeStream) (*streams.Video, error) {
	if s.Width == nil || s.Height == nil {
		return nil, mediaerrors.MissingField("width or height")
	}

	tag, ok := streams.VideoCodecTag(s.CodecName)
	if !ok {
		return nil, mediaerrors.CreationFailed("video stream has no codec name")
	}

	v := &streams.Video{
		Codec:          tag,
		CodecName:      s.CodecName,
		Width:          *s.Width,
		Height:         *s.Height,
		FieldOrder:     streams.FieldOrderFromProbe(s.FieldOrder),
		FrameRate:      streams.ParseFrameRate(s.FrameRate),
		ColorPrimaries: s.ColorPrimaries,
	}

	if depth, err := strconv.Atoi(s.BitsPerRawSample); err == nil && depth > 0 {
		v.BitDepth = depth
	}

	return v, nil
}

// NewAudioDescription requires a parseable sample rate; channels default to 2
func NewAudioDescription(s FFProbeStream) (*streams.Audio, error) {
	rate, err := strconv.ParseFloat(strings.TrimSpace(s.SampleRate), 64)
	if err != nil {
		return nil, mediaerrors.MissingField("sample_rate")
	}

	channels := uint(2)
	if s.Channels != nil && *s.Channels > 0 {
		channels = uint(*s.Channels)
	}

	a, ok := streams.NewAudio(s.CodecName, rate, channels)
	if !ok {
		return nil, mediaerrors.CreationFailed("audio stream has no codec name")
	}
	return a, nil
}
