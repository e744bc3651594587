package format

import (
	"fmt"
	"strings"

	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/berrythewa/mediaclip/pkg/utils"
	"github.com/google/uuid"
)

// Formatter is the main formatting orchestrator that delegates to specialized formatters
type Formatter struct {
	options Options
}

// New creates a new formatter with the given options
func New(opts Options) *Formatter {
	return &Formatter{options: opts}
}

// NewDefault creates a new formatter with default options
func NewDefault() *Formatter {
	return New(DefaultOptions())
}

// FormatItem formats a single history entry
func (f *Formatter) FormatItem(item types.HistoryItem) string {
	header := f.formatHeader(item)

	if f.options.Compact {
		return header + " " + DimIf(f.formatPreview(item, 50), f.options.UseColors)
	}

	parts := []string{header}
	if f.options.ShowMetadata {
		parts = append(parts, f.formatMetadata(item))
	}
	if body := f.formatBody(item); body != "" {
		parts = append(parts, CreateBox("Content", body, f.options))
	}
	return strings.Join(parts, "\n")
}

// FormatItemList formats history entries in display order
func (f *Formatter) FormatItemList(items []types.HistoryItem) string {
	if len(items) == 0 {
		return ColorizeIf("No clipboard history", Gray, f.options.UseColors)
	}

	noun := "entries"
	if len(items) == 1 {
		noun = "entry"
	}
	title := fmt.Sprintf("📋 Clipboard History (%d %s)", len(items), noun)
	parts := []string{ColorizeIf(title, BrightBlue, f.options.UseColors), ""}

	for i, item := range items {
		index := DimIf(fmt.Sprintf("[%d]", item.Position), f.options.UseColors)
		if f.options.Compact {
			parts = append(parts, index+" "+f.FormatItem(item))
			continue
		}
		parts = append(parts, index, f.FormatItem(item))
		if i < len(items)-1 {
			parts = append(parts, CreateSeparator(f.options))
		}
	}
	return strings.Join(parts, "\n")
}

// formatHeader renders icon, kind, short id and the pin marker
func (f *Formatter) formatHeader(item types.HistoryItem) string {
	var parts []string
	if f.options.UseIcons {
		if icon, ok := KindIcons[item.Kind]; ok {
			parts = append(parts, icon)
		}
	}
	parts = append(parts, ColorizeIf(item.Kind.DisplayName(), KindColors[item.Kind], f.options.UseColors))
	parts = append(parts, DimIf(item.ShortID(), f.options.UseColors))
	if item.Pinned {
		pin := "pinned"
		if f.options.UseIcons {
			pin = "📌"
		}
		parts = append(parts, ColorizeIf(pin, BrightYellow, f.options.UseColors))
	}
	return strings.Join(parts, " ")
}

func (f *Formatter) formatMetadata(item types.HistoryItem) string {
	parts := []string{"Created: " + FormatRelativeTime(item.CreatedAt)}
	if item.LastUsed != nil {
		parts = append(parts, "Last used: "+FormatRelativeTime(*item.LastUsed))
	}
	if item.UseCount > 0 {
		parts = append(parts, fmt.Sprintf("Used: %d", item.UseCount))
	}
	if item.Kind.IsText() {
		parts = append(parts, fmt.Sprintf("Length: %d", len([]rune(item.TextContent))))
	}
	return DimIf(strings.Join(parts, " • "), f.options.UseColors)
}

// formatBody delegates to the formatter matching the entry kind
func (f *Formatter) formatBody(item types.HistoryItem) string {
	switch item.Kind {
	case types.KindImage:
		return FormatImage(item, f.options)
	case types.KindVideo:
		return FormatVideo(item, f.options)
	default:
		return FormatText(item, f.options)
	}
}

func (f *Formatter) formatPreview(item types.HistoryItem, maxLen int) string {
	switch item.Kind {
	case types.KindImage:
		return FormatImagePreview(item, maxLen)
	case types.KindVideo:
		return FormatVideoPreview(item, maxLen)
	default:
		return FormatTextPreview(item, maxLen)
	}
}

// FormatSnippets lists snippets. When groups are given the snippets are
// sectioned by group, ungrouped ones first.
func (f *Formatter) FormatSnippets(snippets []types.SnippetEntry, groups []types.SnippetGroup) string {
	if len(snippets) == 0 {
		return ColorizeIf("No snippets", Gray, f.options.UseColors)
	}
	if len(groups) == 0 {
		return strings.Join(f.snippetLines(snippets), "\n")
	}

	type section struct {
		title string
		id    *uuid.UUID
	}
	sections := []section{{title: "(ungrouped)"}}
	for i := range groups {
		sections = append(sections, section{groups[i].Name, &groups[i].ID})
	}

	var parts []string
	for _, sec := range sections {
		var members []types.SnippetEntry
		for _, s := range snippets {
			if s.InGroup(sec.id) {
				members = append(members, s)
			}
		}
		if len(members) == 0 {
			continue
		}
		if len(parts) > 0 {
			parts = append(parts, "")
		}
		parts = append(parts, ColorizeIf("📁 "+sec.title, BrightBlue, f.options.UseColors))
		parts = append(parts, f.snippetLines(members)...)
	}
	return strings.Join(parts, "\n")
}

func (f *Formatter) snippetLines(snippets []types.SnippetEntry) []string {
	lines := make([]string, 0, len(snippets))
	for _, s := range snippets {
		line := fmt.Sprintf("  %s %s", DimIf(utils.ShortID(s.ID), f.options.UseColors), BoldIf(s.Title, f.options.UseColors))
		if !f.options.Compact {
			line += "  " + DimIf(TruncateText(SingleLine(s.Content), 50), f.options.UseColors)
		}
		lines = append(lines, line)
	}
	return lines
}

// FormatSnippet shows one snippet in full
func (f *Formatter) FormatSnippet(s types.SnippetEntry) string {
	header := fmt.Sprintf("%s %s", DimIf(utils.ShortID(s.ID), f.options.UseColors), BoldIf(s.Title, f.options.UseColors))
	return header + "\n" + CreateBox("Content", TruncateLines(s.Content, f.options.MaxLines, f.options.MaxWidth), f.options)
}

// FormatGroups lists snippet groups in display order
func (f *Formatter) FormatGroups(groups []types.SnippetGroup) string {
	if len(groups) == 0 {
		return ColorizeIf("No snippet groups", Gray, f.options.UseColors)
	}
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, fmt.Sprintf("%s %s", DimIf(utils.ShortID(g.ID), f.options.UseColors), g.Name))
	}
	return strings.Join(parts, "\n")
}

// FormatItem formats a single history entry with given options
func FormatItem(item types.HistoryItem, opts Options) string {
	return New(opts).FormatItem(item)
}

// FormatItemList formats history entries with given options
func FormatItemList(items []types.HistoryItem, opts Options) string {
	return New(opts).FormatItemList(items)
}
