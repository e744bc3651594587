package types

import (
	"time"

	"github.com/berrythewa/mediaclip/pkg/utils"
)

// HistoryItem is a history entry as presented to clients, with its display
// position, usage and resolved asset paths
type HistoryItem struct {
	HistoryEntry
	Position      int        `json:"position"`
	LastUsed      *time.Time `json:"lastUsed,omitempty"`
	UseCount      int        `json:"useCount,omitempty"`
	ImagePath     string     `json:"imagePath,omitempty"`
	ThumbnailPath string     `json:"thumbnailPath,omitempty"`
}

// ShortID is the id prefix shown in lists
func (h HistoryItem) ShortID() string {
	return utils.ShortID(h.ID)
}
