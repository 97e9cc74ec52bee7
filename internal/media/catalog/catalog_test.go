package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func TestIsValidCandidate_AllSupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range Extensions() {
		path := touch(t, dir, "clip."+ext)
		assert.True(t, IsValidCandidate(path), "extension %q", ext)
	}
}

func TestIsValidCandidate_UppercaseExtension(t *testing.T) {
	path := touch(t, t.TempDir(), "TRACK.FLAC")
	assert.True(t, IsValidCandidate(path))
}

func TestIsValidCandidate_Rejections(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"notes.txt", "image.png", "archive.zip", "README", "trailing."} {
		assert.False(t, IsValidCandidate(touch(t, dir, name)), name)
	}

	assert.False(t, IsValidCandidate(filepath.Join(dir, "missing.mp4")))

	folder := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.Mkdir(folder, 0755))
	assert.False(t, IsValidCandidate(folder), "directories never qualify")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindVideo, KindOf("mov"))
	assert.Equal(t, KindVideo, KindOf(".MKV"))
	assert.Equal(t, KindAudio, KindOf("flac"))
	assert.Equal(t, KindVideo, KindOf("mp2"))
	assert.Equal(t, KindUnknown, KindOf(""))
	assert.Equal(t, KindUnknown, KindOf("pdf"))

	assert.True(t, IsAudio("mp2"))
	assert.True(t, IsVideo("dvr-ms"))
	assert.False(t, IsVideo("wav"))
	assert.Equal(t, "audio", KindAudio.String())
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "mp4", Extension("/a/b/Clip.MP4"))
	assert.Equal(t, "", Extension("/a/b/noext"))
	assert.Equal(t, "gz", Extension("x.tar.gz"))
}
