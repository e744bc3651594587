package clipboard

import (
	"testing"

	"github.com/berrythewa/mediaclip/internal/config"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPriority(t *testing.T) {
	all := config.DefaultConfig().Capture

	noFiles := all
	noFiles.Filenames = false

	noImages := all
	noImages.Images = false

	noRich := all
	noRich.RichText = false

	nothing := config.CaptureConfig{}

	full := &Contents{
		FileRefs:   []string{"/home/me/movie.MKV"},
		Bitmap:     []byte{0x89, 'P', 'N', 'G'},
		RichText:   []byte(`{\rtf1 rich}`),
		RichFormat: FormatRTF,
		Text:       "plain",
	}

	tests := []struct {
		name     string
		contents *Contents
		capture  config.CaptureConfig
		want     types.ContentKind
		wantOK   bool
	}{
		{"video file first", full, all, types.KindVideo, true},
		{"video disabled falls to bitmap", full, noFiles, types.KindImage, true},
		{"images disabled skips bitmap", &Contents{Bitmap: []byte{1}, Text: "plain"}, noImages, types.KindPlainText, true},
		{"image file", &Contents{FileRefs: []string{"/tmp/a.webp"}, Text: "/tmp/a.webp"}, all, types.KindImage, true},
		{"other file falls to text", &Contents{FileRefs: []string{"/tmp/a.pdf"}, Text: "/tmp/a.pdf"}, all, types.KindPlainText, true},
		{"rich before plain", &Contents{RichText: []byte("<p>hi</p>"), RichFormat: FormatHTML, Text: "hi"}, all, types.KindRichText, true},
		{"rich disabled", &Contents{RichText: []byte("<p>hi</p>"), RichFormat: FormatHTML, Text: "hi"}, noRich, types.KindPlainText, true},
		{"blank rich falls to plain", &Contents{RichText: []byte("<p> </p>"), RichFormat: FormatHTML, Text: "x"}, all, types.KindPlainText, true},
		{"everything disabled", full, nothing, "", false},
		{"empty", &Contents{}, all, "", false},
		{"nil", nil, all, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.contents, tt.capture)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestClassifyKeepsOriginalText(t *testing.T) {
	got, ok := Classify(&Contents{Text: "  padded\n"}, config.DefaultConfig().Capture)
	assert.True(t, ok)
	assert.Equal(t, "  padded\n", got.Text)
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, ".png", imageExtension([]byte{0x89, 'P', 'N', 'G', 0x0d}))
	assert.Equal(t, ".jpg", imageExtension([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, ".tiff", imageExtension([]byte("II*\x00rest")))
	assert.Equal(t, ".webp", imageExtension([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	assert.Equal(t, ".png", imageExtension([]byte("??")))
}
