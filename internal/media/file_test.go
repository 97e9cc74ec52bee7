package media

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/mediaconv/internal/media/catalog"
	"github.com/mantonx/mediaconv/internal/media/streams"
)

func TestNewFile_FirstOfKindWins(t *testing.T) {
	first := &streams.Video{Codec: streams.CodecH264, Width: 1920, Height: 1080}
	second := &streams.Video{Codec: streams.CodecHEVC, Width: 640, Height: 360}
	audioA, _ := streams.NewAudio("aac", 48000, 2)
	audioB, _ := streams.NewAudio("mp3", 44100, 2)
	tc := &streams.Timecode{Codec: streams.CodecTimecode, FrameRate: 24}

	f := NewFile("/media/clip.mov", []streams.Description{first, audioA, second, tc, audioB}, 12.5)

	require.Len(t, f.Streams, 3)
	assert.Same(t, first, f.Video())
	assert.Same(t, audioA, f.Audio())
	assert.Equal(t, 12.5, f.Duration)
	assert.Equal(t, "clip.mov", f.Name())
	assert.Equal(t, catalog.KindVideo, f.Kind())
}

func TestNewFile_NegativeDurationClamped(t *testing.T) {
	f := NewFile("/x.wav", nil, -3)
	assert.Equal(t, 0.0, f.Duration)
	assert.Nil(t, f.Video())
	assert.Nil(t, f.Audio())
	assert.Equal(t, catalog.KindUnknown, f.Kind())

	audio, _ := streams.NewAudio("pcm_s16le", 44100, 2)
	assert.Equal(t, catalog.KindAudio, NewFile("/y.wav", []streams.Description{audio}, 1).Kind())
}

func TestSummary(t *testing.T) {
	a, _ := streams.NewAudio("pcm_s16le", 44100, 2)
	f := NewFile("/x.wav", []streams.Description{a}, 3725)
	f.Tags = &Tags{Artist: "Artist", Title: "Song"}

	assert.Equal(t, "Audio: Linear PCM, 16bits, Stereo, 44100Hz\nDuration: 01:02:05\nTags: Artist - Song", f.Summary())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(math.NaN()))
	assert.Equal(t, "00:00:00", FormatDuration(-1))
	assert.Equal(t, "00:01:30", FormatDuration(90.9))
	assert.Equal(t, "10:00:00", FormatDuration(36000))
}
