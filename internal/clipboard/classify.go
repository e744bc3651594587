package clipboard

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/berrythewa/mediaclip/internal/config"
	"github.com/berrythewa/mediaclip/internal/types"
)

// Detection is the highest-priority capturable format found on the clipboard
type Detection struct {
	Kind     types.ContentKind
	FilePath string // video or image file reference
	Bitmap   []byte // raw image data
	Text     string // plain or extracted rich text
}

// Classify scans contents in priority order and returns the first format that
// the capture settings allow: video file, image file, bitmap, rich text,
// plain text. ok is false when nothing qualifies.
func Classify(c *Contents, capture config.CaptureConfig) (Detection, bool) {
	if c == nil {
		return Detection{}, false
	}

	if len(c.FileRefs) > 0 {
		path := c.FileRefs[0]
		ext := extension(path)
		if capture.Filenames && hasExtension(capture.VideoExtensions, ext) {
			return Detection{Kind: types.KindVideo, FilePath: path}, true
		}
		if capture.Images && hasExtension(capture.ImageExtensions, ext) {
			return Detection{Kind: types.KindImage, FilePath: path}, true
		}
	}

	if capture.Images && capture.SaveScreenshots && len(c.Bitmap) > 0 {
		return Detection{Kind: types.KindImage, Bitmap: c.Bitmap}, true
	}

	if capture.RichText && len(c.RichText) > 0 {
		if text := ExtractRichText(c.RichFormat, c.RichText); !isBlank(text) {
			return Detection{Kind: types.KindRichText, Text: text}, true
		}
	}

	if capture.PlainText && !isBlank(c.Text) {
		return Detection{Kind: types.KindPlainText, Text: c.Text}, true
	}

	return Detection{}, false
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func hasExtension(list []string, ext string) bool {
	if ext == "" {
		return false
	}
	for _, e := range list {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// imageExtension guesses a file extension for raw image data
func imageExtension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return ".png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return ".jpg"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return ".gif"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return ".tiff"
	case bytes.HasPrefix(data, []byte("BM")):
		return ".bmp"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ".webp"
	}
	return ".png"
}
