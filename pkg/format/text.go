package format

import "github.com/berrythewa/mediaclip/internal/types"

// FormatText renders the text of a text entry within the line and width limits
func FormatText(item types.HistoryItem, opts Options) string {
	if item.TextContent == "" {
		return ""
	}
	return TruncateLines(item.TextContent, opts.MaxLines, opts.MaxWidth)
}

// FormatTextPreview flattens the text of an entry to one line of at most maxLen runes
func FormatTextPreview(item types.HistoryItem, maxLen int) string {
	if item.TextContent == "" {
		return "(empty)"
	}
	return TruncateText(SingleLine(item.TextContent), maxLen)
}
