// Package platform connects the clipboard core to the operating system:
// the system clipboard, the frontmost application and the single-instance
// lock.
package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/berrythewa/mediaclip/internal/clipboard"
	"github.com/berrythewa/mediaclip/pkg/utils"
	"go.uber.org/zap"
	sysclip "golang.design/x/clipboard"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnavailable is returned when no display clipboard can be reached
var ErrUnavailable = errors.New("system clipboard unavailable")

// Backend is the system clipboard. Text and bitmaps go through
// golang.design/x/clipboard; file references and rich text use the
// platform's extra targets where they exist.
type Backend struct {
	logger *zap.Logger

	initOnce sync.Once
	initErr  error

	changes changeCounter
}

var _ clipboard.Clipboard = (*Backend)(nil)

// NewBackend creates a backend. The display connection is opened lazily on
// first use so that CLI commands that never touch the clipboard do not need it.
func NewBackend(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{logger: logger}
}

func (b *Backend) init() error {
	b.initOnce.Do(func() {
		if err := sysclip.Init(); err != nil {
			b.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			b.logger.Warn("Clipboard unavailable", zap.Error(err))
		}
	})
	return b.initErr
}

// ChangeCount returns a counter that advances whenever the clipboard
// contents hash differently from the previous call, and on every write
// made through the backend.
func (b *Backend) ChangeCount() (int64, error) {
	contents, err := b.Read(context.Background())
	if err != nil {
		return 0, err
	}
	return b.changes.observe(contents), nil
}

// changeCounter derives a change counter from content hashes for clipboards
// that do not expose one
type changeCounter struct {
	mu       sync.Mutex
	lastHash string
	count    int64
}

// observe advances the counter when contents differ from the last observation
func (c *changeCounter) observe(contents *clipboard.Contents) int64 {
	var buf bytes.Buffer
	buf.WriteString(contents.Text)
	buf.WriteByte(0)
	buf.Write(contents.Bitmap)
	buf.WriteByte(0)
	buf.Write(contents.RichText)
	for _, ref := range contents.FileRefs {
		buf.WriteByte(0)
		buf.WriteString(ref)
	}
	hash := utils.HashContent(buf.Bytes())

	c.mu.Lock()
	defer c.mu.Unlock()
	if hash != c.lastHash {
		c.lastHash = hash
		c.count++
	}
	return c.count
}

// wrote counts a write as a change even when it leaves identical contents
func (c *changeCounter) wrote() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	c.lastHash = ""
}

// Read returns every supported format currently on the clipboard
func (b *Backend) Read(ctx context.Context) (*clipboard.Contents, error) {
	if err := b.init(); err != nil {
		return nil, err
	}

	contents := &clipboard.Contents{
		Text:   string(sysclip.Read(sysclip.FmtText)),
		Bitmap: sysclip.Read(sysclip.FmtImage),
	}

	extra, err := readExtraTargets(ctx)
	if err != nil {
		b.logger.Debug("Failed to read extra clipboard targets", zap.Error(err))
		return contents, nil
	}
	contents.FileRefs = extra.fileRefs
	contents.RichText = extra.rich
	contents.RichFormat = extra.richFormat
	return contents, nil
}

// Clear empties the clipboard
func (b *Backend) Clear() error {
	if err := b.init(); err != nil {
		return err
	}
	sysclip.Write(sysclip.FmtText, []byte{})
	b.changes.wrote()
	return nil
}

// WriteText places plain text on the clipboard
func (b *Backend) WriteText(text string) error {
	if err := b.init(); err != nil {
		return err
	}
	sysclip.Write(sysclip.FmtText, []byte(text))
	b.changes.wrote()
	return nil
}

// WriteImage places an image on the clipboard. The display clipboard only
// carries PNG, so other encodings are converted first.
func (b *Backend) WriteImage(data []byte) error {
	if err := b.init(); err != nil {
		return err
	}
	pngData, err := toPNG(data)
	if err != nil {
		return err
	}
	sysclip.Write(sysclip.FmtImage, pngData)
	b.changes.wrote()
	return nil
}

// WriteFileRef places a reference to the file at path on the clipboard.
// Platforms without a file target get the path as text.
func (b *Backend) WriteFileRef(path string) error {
	if err := b.init(); err != nil {
		return err
	}
	if err := writeFileRefTarget(path); err != nil {
		b.logger.Debug("File reference target unavailable, writing path as text",
			zap.String("path", path), zap.Error(err))
		sysclip.Write(sysclip.FmtText, []byte(path))
	}
	b.changes.wrote()
	return nil
}

func toPNG(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// extraTargets holds the formats not covered by the portable clipboard API
type extraTargets struct {
	fileRefs   []string
	rich       []byte
	richFormat clipboard.RichFormat
}
