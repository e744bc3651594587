package format

import (
	"os"

	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/mattn/go-isatty"
)

// Options controls formatting behavior
type Options struct {
	UseColors    bool
	UseIcons     bool
	MaxWidth     int  // Max content width (0 = no limit)
	MaxLines     int  // Max content lines (0 = no limit)
	ShowMetadata bool // Show usage, paths and timestamps
	Compact      bool // Use compact single-line format
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		UseColors:    true,
		UseIcons:     true,
		MaxWidth:     80,
		MaxLines:     10,
		ShowMetadata: true,
	}
}

// CompactOptions returns options for compact single-line display
func CompactOptions() Options {
	opts := DefaultOptions()
	opts.Compact = true
	opts.ShowMetadata = false
	opts.MaxLines = 1
	return opts
}

// ForTerminal disables colors when f is not a terminal or NO_COLOR is set
func (o Options) ForTerminal(f *os.File) Options {
	if !IsTerminal(f) || os.Getenv("NO_COLOR") != "" {
		o.UseColors = false
	}
	return o
}

// IsTerminal reports whether f is an interactive terminal
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// KindIcons maps content kinds to Unicode icons
var KindIcons = map[types.ContentKind]string{
	types.KindPlainText: "📝",
	types.KindRichText:  "📄",
	types.KindImage:     "🖼️",
	types.KindVideo:     "🎬",
}

// KindColors maps content kinds to colors
var KindColors = map[types.ContentKind]string{
	types.KindPlainText: Cyan,
	types.KindRichText:  Green,
	types.KindImage:     Magenta,
	types.KindVideo:     Yellow,
}
