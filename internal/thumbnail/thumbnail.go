// Package thumbnail derives small JPEG previews from images and video files.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	// Decoders for clipboard image formats
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxEdge = 200
	DefaultQuality = 70
)

// FrameGrabber extracts the first frame of a video, bounded to maxEdge
type FrameGrabber interface {
	GrabFrame(ctx context.Context, path string, maxEdge int) (image.Image, error)
}

// Generator produces thumbnails whose longer edge never exceeds MaxEdge
type Generator struct {
	MaxEdge int
	Quality int
	Frames  FrameGrabber
}

// New returns a generator with the given bounds. Zero values fall back to the defaults.
func New(maxEdge, quality int, frames FrameGrabber) *Generator {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Generator{MaxEdge: maxEdge, Quality: quality, Frames: frames}
}

// Fit returns the size of a w×h image scaled down to fit max on its longer
// edge, preserving aspect ratio. Images already within bounds keep their size.
func Fit(w, h, max int) (int, int) {
	if w <= 0 || h <= 0 || max <= 0 {
		return 0, 0
	}
	scale := math.Min(float64(max)/float64(w), float64(max)/float64(h))
	if scale >= 1 {
		return w, h
	}
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	if nw > max {
		nw = max
	}
	if nh > max {
		nh = max
	}
	return nw, nh
}

// FromImageBytes decodes an encoded image and returns its thumbnail
func (g *Generator) FromImageBytes(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	thumb, err := g.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to thumbnail %s image: %w", format, err)
	}
	return thumb, nil
}

// FromVideoFile grabs the frame at time zero and returns its thumbnail. The
// frame is captured at up to twice MaxEdge and then goes through the image path.
func (g *Generator) FromVideoFile(ctx context.Context, path string) ([]byte, error) {
	if g.Frames == nil {
		return nil, errors.New("no frame grabber configured")
	}
	frame, err := g.Frames.GrabFrame(ctx, path, 2*g.maxEdge())
	if err != nil {
		return nil, fmt.Errorf("failed to grab frame: %w", err)
	}
	return g.FromImage(frame)
}

// FromImage scales img down, flattens it onto white and encodes it as JPEG
func (g *Generator) FromImage(img image.Image) ([]byte, error) {
	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), g.maxEdge())
	if w == 0 || h == 0 {
		return nil, errors.New("image has no pixels")
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: g.quality()}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) maxEdge() int {
	if g.MaxEdge <= 0 {
		return DefaultMaxEdge
	}
	return g.MaxEdge
}

func (g *Generator) quality() int {
	if g.Quality <= 0 || g.Quality > 100 {
		return DefaultQuality
	}
	return g.Quality
}
