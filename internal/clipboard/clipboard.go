// Package clipboard captures clipboard changes into history entries and
// publishes stored entries back onto the clipboard.
package clipboard

import "context"

// RichFormat identifies the encoding of rich text content
type RichFormat string

const (
	FormatRTF  RichFormat = "rtf"
	FormatHTML RichFormat = "html"
)

// Contents is a snapshot of the formats currently on the clipboard. Any
// field may be empty.
type Contents struct {
	FileRefs   []string // absolute paths, in clipboard order
	Bitmap     []byte   // encoded image data
	RichText   []byte
	RichFormat RichFormat
	Text       string
}

// Empty reports whether no format is present
func (c *Contents) Empty() bool {
	return c == nil || (len(c.FileRefs) == 0 && len(c.Bitmap) == 0 && len(c.RichText) == 0 && c.Text == "")
}

// Clipboard is the system clipboard capability used by the monitor and publisher
type Clipboard interface {
	// ChangeCount returns a value that differs whenever the contents change
	ChangeCount() (int64, error)
	Read(ctx context.Context) (*Contents, error)
	Clear() error
	WriteText(text string) error
	WriteImage(data []byte) error
	WriteFileRef(path string) error
}

// ForegroundApp resolves the identifier of the frontmost application
type ForegroundApp interface {
	Frontmost() (string, error)
}

// ForegroundFunc adapts a function to ForegroundApp
type ForegroundFunc func() (string, error)

func (f ForegroundFunc) Frontmost() (string, error) { return f() }

// NoForeground never reports a frontmost application
var NoForeground ForegroundApp = ForegroundFunc(func() (string, error) { return "", nil })
