package probe

import (
	"os"

	"github.com/dhowden/tag"

	"github.com/mantonx/mediaconv/internal/media"
)

// ReadTags reads embedded title, artist, album, genre and year metadata
func ReadTags(path string) (*media.Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}

	return &media.Tags{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Genre:  m.Genre(),
		Year:   m.Year(),
	}, nil
}
