package format

import (
	"fmt"
	"strings"

	"github.com/berrythewa/mediaclip/internal/storage"
	"github.com/berrythewa/mediaclip/internal/types"
)

// FormatStats formats item store statistics for display
func FormatStats(st storage.Stats, opts Options) string {
	title := ColorizeIf("📊 Clipboard Statistics", BrightBlue, opts.UseColors)
	parts := []string{title, ""}

	parts = append(parts,
		formatStatLine("Entries", fmt.Sprintf("%d (limit %d unpinned)", st.Total, st.MaxHistory), opts),
		formatStatLine("Pinned", fmt.Sprintf("%d", st.Pinned), opts),
		formatStatLine("Snippets", fmt.Sprintf("%d in %d groups", st.Snippets, st.Groups), opts),
		formatStatLine("Asset storage", FormatSize(st.AssetBytes), opts),
	)
	if st.Total > 0 {
		parts = append(parts,
			formatStatLine("Oldest entry", FormatRelativeTime(st.Oldest), opts),
			formatStatLine("Newest entry", FormatRelativeTime(st.Newest), opts),
		)
	}

	if len(st.ByKind) > 0 {
		parts = append(parts, "", ColorizeIf("Entries by type", BrightBlue, opts.UseColors))
		for _, kind := range types.AllKinds {
			count, ok := st.ByKind[kind]
			if !ok {
				continue
			}
			icon := ""
			if opts.UseIcons {
				icon = KindIcons[kind] + " "
			}
			label := ColorizeIf(kind.DisplayName(), KindColors[kind], opts.UseColors)
			parts = append(parts, fmt.Sprintf("  %s%s: %d", icon, label, count))
		}
	}

	return strings.Join(parts, "\n")
}

// formatStatLine formats a statistics line with label and value
func formatStatLine(label, value string, opts Options) string {
	return fmt.Sprintf("  %s %s", ColorizeIf(label+":", BrightCyan, opts.UseColors), value)
}
