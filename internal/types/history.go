package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one captured clipboard event.
//
// Exactly one payload is present and it matches Kind: TextContent for text
// kinds, ImageFileName for images, MediaFilePath for videos. The thumbnail is
// optional for media and absent for text.
type HistoryEntry struct {
	ID                uuid.UUID   `json:"id"`
	Kind              ContentKind `json:"contentType"`
	CreatedAt         time.Time   `json:"createdAt"`
	TextContent       string      `json:"textContent,omitempty"`
	ImageFileName     string      `json:"imageFileName,omitempty"`
	MediaFilePath     string      `json:"mediaFilePath,omitempty"`
	ThumbnailFileName string      `json:"thumbnailFileName,omitempty"`
	Pinned            bool        `json:"isPinned"`
}

// NewTextEntry creates a plain or rich text entry
func NewTextEntry(kind ContentKind, text string) HistoryEntry {
	return HistoryEntry{
		ID:          uuid.New(),
		Kind:        kind,
		CreatedAt:   now(),
		TextContent: text,
	}
}

// NewImageEntry creates an image entry referencing files in the asset store
func NewImageEntry(imageFileName, thumbnailFileName string) HistoryEntry {
	return HistoryEntry{
		ID:                uuid.New(),
		Kind:              KindImage,
		CreatedAt:         now(),
		ImageFileName:     imageFileName,
		ThumbnailFileName: thumbnailFileName,
	}
}

// NewVideoEntry creates a video entry referencing a copied media file
func NewVideoEntry(mediaFilePath, thumbnailFileName string) HistoryEntry {
	return HistoryEntry{
		ID:                uuid.New(),
		Kind:              KindVideo,
		CreatedAt:         now(),
		MediaFilePath:     mediaFilePath,
		ThumbnailFileName: thumbnailFileName,
	}
}

// now is second-precision UTC so persisted dates stay plain ISO-8601
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

var errPayload = errors.New("payload does not match content type")

// Validate checks the payload invariant
func (e HistoryEntry) Validate() error {
	if e.ID == uuid.Nil {
		return errors.New("missing id")
	}
	hasText := e.TextContent != ""
	hasImage := e.ImageFileName != ""
	hasVideo := e.MediaFilePath != ""

	var ok bool
	switch e.Kind {
	case KindPlainText, KindRichText:
		ok = hasText && !hasImage && !hasVideo && e.ThumbnailFileName == ""
	case KindImage:
		ok = hasImage && !hasText && !hasVideo
	case KindVideo:
		ok = hasVideo && !hasText && !hasImage
	default:
		return fmt.Errorf("unknown content type %q", e.Kind)
	}
	if !ok {
		return fmt.Errorf("%s entry %s: %w", e.Kind, e.ID, errPayload)
	}
	return nil
}

// PreviewText returns the label shown for the entry in lists
func (e HistoryEntry) PreviewText() string {
	switch e.Kind {
	case KindPlainText, KindRichText:
		return e.TextContent
	case KindImage:
		return "Image"
	case KindVideo:
		return "Video"
	}
	return ""
}
