package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{800, 600, 200, 200, 150},
		{600, 800, 200, 150, 200},
		{200, 200, 200, 200, 200},
		{100, 50, 200, 100, 50},
		{4000, 10, 200, 200, 1},
		{0, 10, 200, 0, 0},
	}
	for _, tt := range tests {
		w, h := Fit(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w, "width for %dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "height for %dx%d", tt.w, tt.h)
	}
}

func TestFromImageBytesScalesDown(t *testing.T) {
	g := New(200, 70, nil)
	thumb, err := g.FromImageBytes(encodePNG(t, solid(640, 480)))
	require.NoError(t, err)

	w, h := decodedSize(t, thumb)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)
}

func TestFromImageBytesNeverUpscales(t *testing.T) {
	g := New(200, 70, nil)
	thumb, err := g.FromImageBytes(encodePNG(t, solid(40, 30)))
	require.NoError(t, err)

	w, h := decodedSize(t, thumb)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestFromImageBytesBMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, solid(300, 600)))

	thumb, err := New(200, 70, nil).FromImageBytes(buf.Bytes())
	require.NoError(t, err)
	w, h := decodedSize(t, thumb)
	assert.LessOrEqual(t, w, 200)
	assert.Equal(t, 200, h)
}

func TestFromImageBytesCorrupt(t *testing.T) {
	g := New(0, 0, nil)
	_, err := g.FromImageBytes([]byte("not an image"))
	assert.Error(t, err)
	_, err = g.FromImageBytes(nil)
	assert.Error(t, err)
}

type fakeGrabber struct {
	frame   image.Image
	err     error
	gotEdge int
}

func (f *fakeGrabber) GrabFrame(_ context.Context, _ string, maxEdge int) (image.Image, error) {
	f.gotEdge = maxEdge
	return f.frame, f.err
}

func TestFromVideoFile(t *testing.T) {
	grabber := &fakeGrabber{frame: solid(400, 225)}
	g := New(200, 70, grabber)

	thumb, err := g.FromVideoFile(context.Background(), "/videos/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, 400, grabber.gotEdge, "frames are requested at twice the bound")

	w, h := decodedSize(t, thumb)
	assert.Equal(t, 200, w)
	assert.LessOrEqual(t, h, 200)
}

func TestFromVideoFileFailures(t *testing.T) {
	g := New(200, 70, &fakeGrabber{err: errors.New("unsupported codec")})
	_, err := g.FromVideoFile(context.Background(), "/videos/clip.mkv")
	assert.ErrorContains(t, err, "unsupported codec")

	_, err = New(200, 70, nil).FromVideoFile(context.Background(), "/videos/clip.mkv")
	assert.Error(t, err)
}

func TestFFmpegGrabberMissingBinary(t *testing.T) {
	grabber := FFmpegGrabber{Path: "mediaclip-no-such-ffmpeg"}
	_, err := grabber.GrabFrame(context.Background(), "/videos/clip.mp4", 400)
	assert.ErrorContains(t, err, "ffmpeg not available")
}
