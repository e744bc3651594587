package types

import "fmt"

// ContentKind represents the kind of a captured clipboard entry
type ContentKind string

const (
	KindPlainText ContentKind = "plainText"
	KindRichText  ContentKind = "richText"
	KindImage     ContentKind = "image"
	KindVideo     ContentKind = "video"
)

// AllKinds lists every kind in display order
var AllKinds = []ContentKind{KindPlainText, KindRichText, KindImage, KindVideo}

// IsText reports whether the kind carries a text payload
func (k ContentKind) IsText() bool {
	return k == KindPlainText || k == KindRichText
}

// IsMedia reports whether the kind is backed by asset files
func (k ContentKind) IsMedia() bool {
	return k == KindImage || k == KindVideo
}

// Valid reports whether k is one of the known kinds
func (k ContentKind) Valid() bool {
	switch k {
	case KindPlainText, KindRichText, KindImage, KindVideo:
		return true
	}
	return false
}

// DisplayName returns a short human label
func (k ContentKind) DisplayName() string {
	switch k {
	case KindPlainText:
		return "Text"
	case KindRichText:
		return "Rich Text"
	case KindImage:
		return "Image"
	case KindVideo:
		return "Video"
	default:
		return string(k)
	}
}

// KindGroup selects a display section of the history
type KindGroup string

const (
	GroupAll   KindGroup = "all"
	GroupText  KindGroup = "text"
	GroupMedia KindGroup = "media"
)

// ParseKindGroup converts user input into a KindGroup
func ParseKindGroup(s string) (KindGroup, error) {
	switch KindGroup(s) {
	case "", GroupAll:
		return GroupAll, nil
	case GroupText:
		return GroupText, nil
	case GroupMedia:
		return GroupMedia, nil
	}
	return "", fmt.Errorf("unknown kind group %q (want all, text or media)", s)
}

// Matches reports whether kind belongs to the group
func (g KindGroup) Matches(kind ContentKind) bool {
	switch g {
	case GroupText:
		return kind.IsText()
	case GroupMedia:
		return kind.IsMedia()
	default:
		return true
	}
}
