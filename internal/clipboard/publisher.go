package clipboard

import (
	"errors"
	"fmt"

	"github.com/berrythewa/mediaclip/internal/assets"
	"github.com/berrythewa/mediaclip/internal/types"
)

// SelfChangeMarker is notified before every programmatic clipboard write
type SelfChangeMarker interface {
	MarkSelfChange()
}

// Publisher writes stored entries back onto the clipboard
type Publisher struct {
	Clipboard Clipboard
	Marker    SelfChangeMarker
	Assets    *assets.Store
}

// Publish puts the payload of entry on the clipboard in the format matching its kind
func (p *Publisher) Publish(entry types.HistoryEntry) error {
	if err := p.prepare(); err != nil {
		return err
	}

	switch entry.Kind {
	case types.KindPlainText, types.KindRichText:
		if entry.TextContent == "" {
			return errors.New("entry has no text")
		}
		return p.Clipboard.WriteText(entry.TextContent)
	case types.KindImage:
		if entry.ImageFileName == "" || p.Assets == nil {
			return errors.New("entry has no image")
		}
		data, err := p.Assets.Load(assets.Ref{Area: assets.AreaImages, Name: entry.ImageFileName})
		if err != nil {
			return err
		}
		return p.Clipboard.WriteImage(data)
	case types.KindVideo:
		if entry.MediaFilePath == "" {
			return errors.New("entry has no media file")
		}
		return p.Clipboard.WriteFileRef(entry.MediaFilePath)
	}
	return fmt.Errorf("cannot publish content type %q", entry.Kind)
}

// PublishText puts ad hoc text, such as a snippet, on the clipboard
func (p *Publisher) PublishText(text string) error {
	if err := p.prepare(); err != nil {
		return err
	}
	return p.Clipboard.WriteText(text)
}

// prepare clears the clipboard and raises the self-change flag
func (p *Publisher) prepare() error {
	if err := p.Clipboard.Clear(); err != nil {
		return fmt.Errorf("failed to clear clipboard: %w", err)
	}
	if p.Marker != nil {
		p.Marker.MarkSelfChange()
	}
	return nil
}
