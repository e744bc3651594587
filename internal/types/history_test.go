package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   HistoryEntry
		wantErr bool
	}{
		{"plain text", NewTextEntry(KindPlainText, "hello"), false},
		{"rich text", NewTextEntry(KindRichText, "hello"), false},
		{"image without thumbnail", NewImageEntry("a.png", ""), false},
		{"image with thumbnail", NewImageEntry("a.png", "a.jpg"), false},
		{"video", NewVideoEntry("/data/media/a.mov", "t.jpg"), false},
		{"empty text", NewTextEntry(KindPlainText, ""), true},
		{"text with image", HistoryEntry{ID: uuid.New(), Kind: KindPlainText, TextContent: "x", ImageFileName: "a.png"}, true},
		{"image with text", HistoryEntry{ID: uuid.New(), Kind: KindImage, TextContent: "x", ImageFileName: "a.png"}, true},
		{"video without path", HistoryEntry{ID: uuid.New(), Kind: KindVideo}, true},
		{"unknown kind", HistoryEntry{ID: uuid.New(), Kind: "pdf", TextContent: "x"}, true},
		{"nil id", HistoryEntry{Kind: KindPlainText, TextContent: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHistoryEntryJSONFields(t *testing.T) {
	text := NewTextEntry(KindPlainText, "hello")
	raw, err := json.Marshal(text)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "plainText", fields["contentType"])
	assert.Equal(t, "hello", fields["textContent"])
	assert.Equal(t, false, fields["isPinned"])
	assert.NotContains(t, fields, "imageFileName")
	assert.NotContains(t, fields, "mediaFilePath")
	assert.NotContains(t, fields, "thumbnailFileName")

	video := NewVideoEntry("/m/clip.mp4", "")
	raw, err = json.Marshal(video)
	require.NoError(t, err)
	fields = nil
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "/m/clip.mp4", fields["mediaFilePath"])
	assert.NotContains(t, fields, "textContent")
	assert.NotContains(t, fields, "thumbnailFileName")
}

func TestHistoryEntryDecodesISODates(t *testing.T) {
	raw := `{"id":"6F9619FF-8B86-D011-B42D-00C04FC964FF","contentType":"richText",` +
		`"createdAt":"2024-03-01T09:30:00Z","textContent":"hi","isPinned":true}`

	var e HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, KindRichText, e.Kind)
	assert.True(t, e.Pinned)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), e.CreatedAt)
	assert.NoError(t, e.Validate())
}

func TestKindGroupMatches(t *testing.T) {
	assert.True(t, GroupText.Matches(KindPlainText))
	assert.True(t, GroupText.Matches(KindRichText))
	assert.False(t, GroupText.Matches(KindImage))
	assert.True(t, GroupMedia.Matches(KindVideo))
	assert.False(t, GroupMedia.Matches(KindRichText))
	assert.True(t, GroupAll.Matches(KindVideo))

	g, err := ParseKindGroup("")
	require.NoError(t, err)
	assert.Equal(t, GroupAll, g)
	_, err = ParseKindGroup("audio")
	assert.Error(t, err)
}

func TestSnippetInGroup(t *testing.T) {
	group := uuid.New()
	other := uuid.New()

	loose := NewSnippet("a", "b", nil, 0)
	member := NewSnippet("a", "b", &group, 0)

	assert.True(t, loose.InGroup(nil))
	assert.False(t, loose.InGroup(&group))
	assert.True(t, member.InGroup(&group))
	assert.False(t, member.InGroup(&other))
	assert.False(t, member.InGroup(nil))
}
