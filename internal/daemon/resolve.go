package daemon

import (
	"fmt"
	"strings"

	"github.com/berrythewa/mediaclip/internal/storage"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/google/uuid"
)

// resolveSnippet finds a snippet by full id or unique id prefix
func (d *Daemon) resolveSnippet(ref string) (types.SnippetEntry, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return types.SnippetEntry{}, fmt.Errorf("empty snippet reference: %w", storage.ErrNotFound)
	}

	var matches []types.SnippetEntry
	for _, s := range d.store.AllSnippets() {
		id := s.ID.String()
		if id == ref {
			return s, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return types.SnippetEntry{}, fmt.Errorf("snippet %s: %w", ref, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return types.SnippetEntry{}, fmt.Errorf("%s matches %d snippets: %w", ref, len(matches), storage.ErrAmbiguous)
}

// resolveGroup finds a group by id, unique id prefix or case-insensitive name
func (d *Daemon) resolveGroup(ref string) (types.SnippetGroup, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return types.SnippetGroup{}, fmt.Errorf("empty group reference: %w", storage.ErrNotFound)
	}
	lower := strings.ToLower(ref)

	groups := d.store.Groups()
	for _, g := range groups {
		if g.ID.String() == lower || strings.EqualFold(g.Name, ref) {
			return g, nil
		}
	}

	var matches []types.SnippetGroup
	for _, g := range groups {
		if strings.HasPrefix(g.ID.String(), lower) {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return types.SnippetGroup{}, fmt.Errorf("group %s: %w", ref, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return types.SnippetGroup{}, fmt.Errorf("%s matches %d groups: %w", ref, len(matches), storage.ErrAmbiguous)
}

// resolveGroupID is resolveGroup for optional references; "" means no group
func (d *Daemon) resolveGroupID(ref string) (*uuid.UUID, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, nil
	}
	g, err := d.resolveGroup(ref)
	if err != nil {
		return nil, err
	}
	id := g.ID
	return &id, nil
}
