package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/berrythewa/mediaclip/internal/assets"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir    string
	assets *assets.Store
	usage  *UsageIndex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	as, err := assets.New(dir, nil)
	require.NoError(t, err)
	usage, err := OpenUsageIndex(filepath.Join(dir, UsageFile), nil)
	require.NoError(t, err)
	t.Cleanup(func() { usage.Close() })
	return &fixture{dir: dir, assets: as, usage: usage}
}

func (f *fixture) open(t *testing.T, max int) *Store {
	t.Helper()
	s, err := Open(Options{Dir: f.dir, Assets: f.assets, Usage: f.usage, MaxHistory: max})
	require.NoError(t, err)
	return s
}

func texts(entries []types.HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.TextContent
	}
	return out
}

func insertText(t *testing.T, s *Store, text string) types.HistoryEntry {
	t.Helper()
	e := types.NewTextEntry(types.KindPlainText, text)
	require.NoError(t, s.Insert(e))
	return e
}

func TestInsertPrependsAndEvicts(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 3)

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		insertText(t, s, text)
		assert.Equal(t, text, s.Entries(types.GroupAll)[0].TextContent)
	}
	assert.Equal(t, []string{"e", "d", "c"}, texts(s.Entries(types.GroupAll)))
}

func TestPinnedEntriesSurviveEviction(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 2)

	old := insertText(t, s, "keep me")
	_, ok := s.TogglePin(old.ID)
	require.True(t, ok)

	for _, text := range []string{"a", "b", "c", "d"} {
		insertText(t, s, text)
	}

	entries := s.Entries(types.GroupAll)
	assert.Equal(t, []string{"d", "c", "keep me"}, texts(entries))
	assert.True(t, entries[2].Pinned)

	unpinned := 0
	for _, e := range entries {
		if !e.Pinned {
			unpinned++
		}
	}
	assert.Equal(t, 2, unpinned)
}

func TestInsertRejectsInvalidEntry(t *testing.T) {
	s := newFixture(t).open(t, 5)
	err := s.Insert(types.HistoryEntry{ID: uuid.New(), Kind: types.KindImage})
	assert.Error(t, err)
	assert.Empty(t, s.Entries(types.GroupAll))
}

func TestDeleteSurvivesReload(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)

	a := insertText(t, s, "a")
	insertText(t, s, "b")
	assert.True(t, s.Delete(a.ID))
	assert.False(t, s.Delete(a.ID), "second delete is a no-op")

	reloaded := f.open(t, 10)
	assert.Equal(t, []string{"b"}, texts(reloaded.Entries(types.GroupAll)))
	_, ok := reloaded.Entry(a.ID)
	assert.False(t, ok)
}

func TestDeleteCascadesAssets(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)

	img, err := f.assets.StoreImage([]byte("img"), ".png")
	require.NoError(t, err)
	thumb, err := f.assets.StoreThumbnail([]byte("thumb"))
	require.NoError(t, err)

	e := types.NewImageEntry(img.Name, thumb.Name)
	require.NoError(t, s.Insert(e))
	require.True(t, s.Delete(e.ID))

	assert.NoFileExists(t, f.assets.Path(img))
	assert.NoFileExists(t, f.assets.Path(thumb))
}

func TestSharedVideoKeptUntilLastReference(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, make([]byte, 64), 0644))
	ref, err := f.assets.StoreVideo(src)
	require.NoError(t, err)
	path := f.assets.Path(ref)

	first := types.NewVideoEntry(path, "")
	second := types.NewVideoEntry(path, "")
	require.NoError(t, s.Insert(first))
	require.NoError(t, s.Insert(second))

	s.Delete(first.ID)
	assert.FileExists(t, path)
	s.Delete(second.ID)
	assert.NoFileExists(t, path)
}

func TestClearUnpinned(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)

	insertText(t, s, "a")
	pinned := insertText(t, s, "b")
	insertText(t, s, "c")
	s.TogglePin(pinned.ID)

	assert.Equal(t, 2, s.ClearUnpinned())
	assert.Equal(t, []string{"b"}, texts(s.Entries(types.GroupAll)))
	assert.Equal(t, []string{"b"}, texts(f.open(t, 10).Entries(types.GroupAll)))
}

func TestTogglePinMissingIsNoop(t *testing.T) {
	s := newFixture(t).open(t, 10)
	_, ok := s.TogglePin(uuid.New())
	assert.False(t, ok)
}

func TestCorruptFilesLoadEmpty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, HistoryFile), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, SnippetsFile), []byte("null"), 0644))

	s := f.open(t, 10)
	assert.Empty(t, s.Entries(types.GroupAll))
	assert.Empty(t, s.AllSnippets())

	insertText(t, s, "fresh")
	assert.Equal(t, []string{"fresh"}, texts(f.open(t, 10).Entries(types.GroupAll)))
}

func TestLoadDropsInvalidEntries(t *testing.T) {
	f := newFixture(t)
	raw := `[{"id":"6f9619ff-8b86-d011-b42d-00c04fc964ff","contentType":"plainText","createdAt":"2024-03-01T09:30:00Z","textContent":"ok","isPinned":false},` +
		`{"id":"7f9619ff-8b86-d011-b42d-00c04fc964ff","contentType":"image","createdAt":"2024-03-01T09:30:00Z","isPinned":false}]`
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, HistoryFile), []byte(raw), 0644))

	s := f.open(t, 10)
	assert.Equal(t, []string{"ok"}, texts(s.Entries(types.GroupAll)))
}

func TestEntriesByGroup(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)

	insertText(t, s, "plain")
	require.NoError(t, s.Insert(types.NewTextEntry(types.KindRichText, "rich")))
	require.NoError(t, s.Insert(types.NewImageEntry("x.png", "")))

	assert.Len(t, s.Entries(types.GroupText), 2)
	media := s.Entries(types.GroupMedia)
	require.Len(t, media, 1)
	assert.Equal(t, types.KindImage, media[0].Kind)
}

func TestFindText(t *testing.T) {
	s := newFixture(t).open(t, 10)
	insertText(t, s, "same")
	require.NoError(t, s.Insert(types.NewTextEntry(types.KindRichText, "same")))

	found, ok := s.FindText(types.KindPlainText, "same")
	require.True(t, ok)
	assert.Equal(t, types.KindPlainText, found.Kind)

	_, ok = s.FindText(types.KindPlainText, "other")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	s := newFixture(t).open(t, 10)
	a := insertText(t, s, "a")
	b := insertText(t, s, "b")

	got, err := s.Resolve("1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	got, err = s.Resolve(a.ID.String())
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got, err = s.Resolve(a.ID.String()[:13])
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = s.Resolve("3")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Resolve(uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Resolve("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetMaxHistoryShrinks(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 5)
	for _, text := range []string{"a", "b", "c", "d"} {
		insertText(t, s, text)
	}
	s.SetMaxHistory(2)
	assert.Equal(t, []string{"d", "c"}, texts(s.Entries(types.GroupAll)))
	assert.Equal(t, []string{"d", "c"}, texts(f.open(t, 5).Entries(types.GroupAll)))
}

func TestSortByLastUsed(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)
	a := insertText(t, s, "a")
	insertText(t, s, "b")

	s.SetSortByLastUsed(true)
	// Usage must be later than b's creation time, which is second precision
	_, err := f.usage.Touch(a.ID, time.Now().Add(2*time.Second))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, texts(s.Entries(types.GroupAll)))

	s.SetSortByLastUsed(false)
	assert.Equal(t, []string{"b", "a"}, texts(s.Entries(types.GroupAll)))
}

func TestDeleteForgetsUsage(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)
	a := insertText(t, s, "a")

	s.MarkUsed(a.ID)
	rec, ok := s.Usage(a.ID)
	require.True(t, ok)
	assert.Equal(t, 1, rec.UseCount)

	s.Delete(a.ID)
	_, ok = s.Usage(a.ID)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)
	p := insertText(t, s, "a")
	insertText(t, s, "b")
	s.TogglePin(p.ID)
	_, err := f.assets.StoreImage(make([]byte, 10), ".png")
	require.NoError(t, err)

	st := s.Stats()
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Pinned)
	assert.Equal(t, 2, st.ByKind[types.KindPlainText])
	assert.Equal(t, 10, st.MaxHistory)
	assert.Equal(t, int64(10), st.AssetBytes)
}

func TestSnippetsForGroupOrdering(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)

	group := s.AddGroup(types.NewSnippetGroup("work", 0))
	gid := group.ID

	_, err := s.AddSnippet(types.NewSnippet("second", "2", &gid, 5))
	require.NoError(t, err)
	_, err = s.AddSnippet(types.NewSnippet("first", "1", &gid, 1))
	require.NoError(t, err)
	_, err = s.AddSnippet(types.NewSnippet("tie", "3", &gid, 5))
	require.NoError(t, err)
	_, err = s.AddSnippet(types.NewSnippet("loose", "x", nil, 0))
	require.NoError(t, err)

	var titles []string
	for _, sn := range s.SnippetsForGroup(&gid) {
		titles = append(titles, sn.Title)
	}
	assert.Equal(t, []string{"first", "second", "tie"}, titles)

	loose := s.SnippetsForGroup(nil)
	require.Len(t, loose, 1)
	assert.Equal(t, "loose", loose[0].Title)

	missing := uuid.New()
	_, err = s.AddSnippet(types.NewSnippet("orphan", "x", &missing, 0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndDeleteSnippet(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)

	sn, err := s.AddSnippet(types.NewSnippet("greet", "hello", nil, 0))
	require.NoError(t, err)

	sn.Content = "hello there"
	require.NoError(t, s.UpdateSnippet(sn))
	got, ok := f.open(t, 10).Snippet(sn.ID)
	require.True(t, ok)
	assert.Equal(t, "hello there", got.Content)

	assert.ErrorIs(t, s.UpdateSnippet(types.NewSnippet("x", "y", nil, 0)), ErrNotFound)

	assert.True(t, s.DeleteSnippet(sn.ID))
	assert.False(t, s.DeleteSnippet(sn.ID))
}

func TestDeleteGroupCascades(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, 10)

	work := s.AddGroup(types.NewSnippetGroup("work", 1))
	home := s.AddGroup(types.NewSnippetGroup("home", 0))
	wid, hid := work.ID, home.ID

	_, err := s.AddSnippet(types.NewSnippet("a", "a", &wid, 0))
	require.NoError(t, err)
	_, err = s.AddSnippet(types.NewSnippet("b", "b", &wid, 1))
	require.NoError(t, err)
	_, err = s.AddSnippet(types.NewSnippet("c", "c", &hid, 0))
	require.NoError(t, err)

	groups := s.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "home", groups[0].Name)

	removed, ok := s.DeleteGroup(wid)
	require.True(t, ok)
	assert.Equal(t, 2, removed)

	reloaded := f.open(t, 10)
	assert.Len(t, reloaded.Groups(), 1)
	assert.Len(t, reloaded.AllSnippets(), 1)
	assert.Empty(t, reloaded.SnippetsForGroup(&wid))

	_, ok = s.DeleteGroup(wid)
	assert.False(t, ok)
}

func TestSubscribe(t *testing.T) {
	s := newFixture(t).open(t, 10)
	events, cancel := s.Subscribe()

	insertText(t, s, "a")
	s.AddGroup(types.NewSnippetGroup("g", 0))

	assert.Equal(t, Event{Collection: CollectionHistory}, <-events)
	assert.Equal(t, Event{Collection: CollectionGroups}, <-events)

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)

	// Mutations after cancel do not panic
	insertText(t, s, "b")
}
