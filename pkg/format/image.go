package format

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/berrythewa/mediaclip/internal/types"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FormatImage describes the stored image and its thumbnail
func FormatImage(item types.HistoryItem, opts Options) string {
	lines := []string{"File: " + item.ImagePath}
	if info := describeImage(item.ImagePath); info != "" {
		lines = append(lines, info)
	}
	if item.ThumbnailPath != "" {
		lines = append(lines, "Thumbnail: "+item.ThumbnailPath)
	}
	return strings.Join(lines, "\n")
}

// FormatImagePreview creates a short preview of an image entry
func FormatImagePreview(item types.HistoryItem, maxLen int) string {
	return TruncateText(fmt.Sprintf("[Image %s]", item.ImageFileName), maxLen)
}

// FormatVideo describes the copied media file and its thumbnail
func FormatVideo(item types.HistoryItem, opts Options) string {
	lines := []string{"File: " + item.MediaFilePath}
	if st, err := os.Stat(item.MediaFilePath); err == nil {
		lines = append(lines, "Size: "+FormatSize(st.Size()))
	} else {
		lines = append(lines, ColorizeIf("(file missing)", Red, opts.UseColors))
	}
	if item.ThumbnailPath != "" {
		lines = append(lines, "Thumbnail: "+item.ThumbnailPath)
	}
	return strings.Join(lines, "\n")
}

// FormatVideoPreview creates a short preview of a video entry
func FormatVideoPreview(item types.HistoryItem, maxLen int) string {
	return TruncateText(fmt.Sprintf("[Video %s]", filepath.Base(item.MediaFilePath)), maxLen)
}

// describeImage returns dimensions, format and size of the image at path
func describeImage(path string) string {
	if path == "" {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var parts []string
	if cfg, kind, err := image.DecodeConfig(f); err == nil {
		parts = append(parts, fmt.Sprintf("%dx%d %s", cfg.Width, cfg.Height, kind))
	}
	if st, err := f.Stat(); err == nil {
		parts = append(parts, FormatSize(st.Size()))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Image: " + strings.Join(parts, ", ")
}
