package types

import "github.com/google/uuid"

// SnippetEntry is a piece of user-authored reusable text
type SnippetEntry struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	GroupID   *uuid.UUID `json:"folderID,omitempty"`
	SortOrder int        `json:"sortOrder"`
}

// SnippetGroup organizes snippets for display
type SnippetGroup struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sortOrder"`
}

// NewSnippet creates a snippet with a fresh id
func NewSnippet(title, content string, groupID *uuid.UUID, sortOrder int) SnippetEntry {
	return SnippetEntry{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		GroupID:   groupID,
		SortOrder: sortOrder,
	}
}

// NewSnippetGroup creates a group with a fresh id
func NewSnippetGroup(name string, sortOrder int) SnippetGroup {
	return SnippetGroup{
		ID:        uuid.New(),
		Name:      name,
		SortOrder: sortOrder,
	}
}

// InGroup reports whether the snippet belongs to groupID (nil means ungrouped)
func (s SnippetEntry) InGroup(groupID *uuid.UUID) bool {
	if groupID == nil || s.GroupID == nil {
		return groupID == nil && s.GroupID == nil
	}
	return *s.GroupID == *groupID
}
