package clipboard

import (
	"path/filepath"
	"testing"

	"github.com/berrythewa/mediaclip/internal/assets"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMarker struct{ marks int }

func (m *countingMarker) MarkSelfChange() { m.marks++ }

func TestPublishByKind(t *testing.T) {
	as, err := assets.New(t.TempDir(), nil)
	require.NoError(t, err)
	clip := NewMemory()
	marker := &countingMarker{}
	pub := &Publisher{Clipboard: clip, Marker: marker, Assets: as}

	require.NoError(t, pub.Publish(types.NewTextEntry(types.KindRichText, "styled")))
	assert.Equal(t, Contents{Text: "styled"}, clip.Snapshot())

	ref, err := as.StoreImage([]byte("image-bytes"), ".png")
	require.NoError(t, err)
	require.NoError(t, pub.Publish(types.NewImageEntry(ref.Name, "")))
	assert.Equal(t, []byte("image-bytes"), clip.Snapshot().Bitmap)

	video := filepath.Join(as.Dir(assets.AreaMedia), "clip.mp4")
	require.NoError(t, pub.Publish(types.NewVideoEntry(video, "")))
	assert.Equal(t, []string{video}, clip.Snapshot().FileRefs)

	assert.Equal(t, 3, marker.marks)
}

func TestPublishMissingImage(t *testing.T) {
	as, err := assets.New(t.TempDir(), nil)
	require.NoError(t, err)
	clip := NewMemory()
	clip.Set(Contents{Text: "old"})
	pub := &Publisher{Clipboard: clip, Marker: &countingMarker{}, Assets: as}

	err = pub.Publish(types.NewImageEntry("missing.png", ""))
	assert.Error(t, err)
	assert.True(t, clip.Snapshot().Text == "", "clipboard is cleared before the payload is loaded")
}
