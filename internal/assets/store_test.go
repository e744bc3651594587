package assets

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "assets"), nil)
	require.NoError(t, err)
	return s
}

func writeSource(t *testing.T, name string, size int, fill byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{fill}, size), 0644))
	return path
}

func TestNewCreatesAreas(t *testing.T) {
	s := newTestStore(t)
	for _, area := range []Area{AreaImages, AreaThumbnails, AreaMedia} {
		assert.DirExists(t, s.Dir(area))
	}
}

func TestStoreAndLoadImage(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.StoreImage([]byte("png-bytes"), "")
	require.NoError(t, err)
	assert.Equal(t, AreaImages, ref.Area)
	assert.Equal(t, ".png", filepath.Ext(ref.Name))

	data, err := s.Load(ref)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	other, err := s.StoreImage([]byte("png-bytes"), "JPG")
	require.NoError(t, err)
	assert.NotEqual(t, ref.Name, other.Name)
	assert.Equal(t, ".jpg", filepath.Ext(other.Name))
}

func TestStoreThumbnail(t *testing.T) {
	s := newTestStore(t)
	ref, err := s.StoreThumbnail([]byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.Equal(t, AreaThumbnails, ref.Area)
	assert.Equal(t, ".jpg", filepath.Ext(ref.Name))
	assert.FileExists(t, s.Path(ref))
}

func TestStoreVideoDedupBySize(t *testing.T) {
	s := newTestStore(t)

	first := writeSource(t, "a.mov", 1024, 'a')
	sameSize := writeSource(t, "b.mp4", 1024, 'b')
	otherSize := writeSource(t, "c.mp4", 2048, 'c')

	ref1, err := s.StoreVideo(first)
	require.NoError(t, err)
	assert.Equal(t, ".mov", filepath.Ext(ref1.Name))

	ref2, err := s.StoreVideo(sameSize)
	require.NoError(t, err)
	assert.Equal(t, ref1, ref2, "equal byte size reuses the stored copy")

	ref3, err := s.StoreVideo(otherSize)
	require.NoError(t, err)
	assert.NotEqual(t, ref1, ref3)

	entries, err := os.ReadDir(s.Dir(AreaMedia))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// The source is copied, not moved
	assert.FileExists(t, first)
}

func TestStoreVideoMissingSource(t *testing.T) {
	s := newTestStore(t)
	_, err := s.StoreVideo(filepath.Join(t.TempDir(), "gone.mp4"))
	assert.Error(t, err)

	entries, err := os.ReadDir(s.Dir(AreaMedia))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(Ref{Area: AreaImages, Name: "nope.png"})
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ref, err := s.StoreImage([]byte("x"), ".png")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ref))
	assert.NoFileExists(t, s.Path(ref))

	// Second delete is a no-op
	assert.NoError(t, s.Delete(ref))
}

func TestRejectsEscapingRefs(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.Delete(Ref{Area: AreaImages, Name: "../history.json"}), ErrUnsupported)
	assert.ErrorIs(t, s.Delete(Ref{Area: "other", Name: "a.png"}), ErrUnsupported)
	_, err := s.Load(Ref{Area: AreaMedia})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRefForPath(t *testing.T) {
	s := newTestStore(t)
	src := writeSource(t, "clip.mkv", 10, 'z')
	ref, err := s.StoreVideo(src)
	require.NoError(t, err)

	got, ok := s.RefForPath(s.Path(ref))
	require.True(t, ok)
	assert.Equal(t, ref, got)

	_, ok = s.RefForPath(src)
	assert.False(t, ok)
	_, ok = s.RefForPath("")
	assert.False(t, ok)
}

func TestUsageBytes(t *testing.T) {
	s := newTestStore(t)

	usage, err := s.UsageBytes()
	require.NoError(t, err)
	assert.Zero(t, usage)

	_, err = s.StoreImage(make([]byte, 100), ".png")
	require.NoError(t, err)
	_, err = s.StoreThumbnail(make([]byte, 20))
	require.NoError(t, err)
	_, err = s.StoreVideo(writeSource(t, "v.mp4", 300, 'v'))
	require.NoError(t, err)

	// Nested files count too
	nested := filepath.Join(s.Dir(AreaMedia), "sub")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "x"), make([]byte, 5), 0644))

	usage, err = s.UsageBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(425), usage)
}
