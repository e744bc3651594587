package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/berrythewa/mediaclip/internal/assets"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/berrythewa/mediaclip/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HistoryFile  = "history.json"
	SnippetsFile = "snippets.json"
	FoldersFile  = "folders.json"
	UsageFile    = "usage.db"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrAmbiguous = errors.New("ambiguous reference")
)

// Collection names one of the persisted collections
type Collection string

const (
	CollectionHistory  Collection = "history"
	CollectionSnippets Collection = "snippets"
	CollectionGroups   Collection = "groups"
)

// Event is emitted after every mutation of a collection
type Event struct {
	Collection Collection
}

// Options configures a Store
type Options struct {
	Dir            string
	Assets         *assets.Store // nil disables asset cleanup
	Usage          *UsageIndex   // nil disables usage tracking
	MaxHistory     int
	SortByLastUsed bool
	Logger         *zap.Logger
}

// Stats summarizes the store contents
type Stats struct {
	Total      int                       `json:"total"`
	Pinned     int                       `json:"pinned"`
	ByKind     map[types.ContentKind]int `json:"byKind"`
	MaxHistory int                       `json:"maxHistory"`
	Snippets   int                       `json:"snippets"`
	Groups     int                       `json:"groups"`
	AssetBytes int64                     `json:"assetBytes"`
	Oldest     time.Time                 `json:"oldest"`
	Newest     time.Time                 `json:"newest"`
}

// Store is the in-memory owner of history, snippets and groups, mirrored to
// JSON files. Mutating methods are not safe for concurrent use; callers run
// them from a single goroutine. Query methods return copies.
type Store struct {
	dir            string
	assets         *assets.Store
	usage          *UsageIndex
	maxHistory     int
	sortByLastUsed bool
	logger         *zap.Logger

	history  []types.HistoryEntry // newest first
	snippets []types.SnippetEntry
	groups   []types.SnippetGroup

	subMu       sync.Mutex
	subscribers map[int]chan Event
	nextSubID   int
}

// Open loads the collections from opts.Dir. Missing or unreadable files
// start as empty collections.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("storage directory not set")
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxHistory := opts.MaxHistory
	if maxHistory < 1 {
		maxHistory = 1
	}

	s := &Store{
		dir:            opts.Dir,
		assets:         opts.Assets,
		usage:          opts.Usage,
		maxHistory:     maxHistory,
		sortByLastUsed: opts.SortByLastUsed,
		logger:         logger,
		subscribers:    make(map[int]chan Event),
	}

	s.history = loadCollection[types.HistoryEntry](s, HistoryFile)
	s.snippets = loadCollection[types.SnippetEntry](s, SnippetsFile)
	s.groups = loadCollection[types.SnippetGroup](s, FoldersFile)

	valid := s.history[:0]
	for _, e := range s.history {
		if err := e.Validate(); err != nil {
			logger.Warn("Dropping invalid history entry", zap.Error(err))
			continue
		}
		valid = append(valid, e)
	}
	s.history = valid

	if s.usage != nil {
		keep := make(map[uuid.UUID]struct{}, len(s.history))
		for _, e := range s.history {
			keep[e.ID] = struct{}{}
		}
		if n, err := s.usage.Prune(keep); err != nil {
			logger.Warn("Failed to prune usage index", zap.Error(err))
		} else if n > 0 {
			logger.Debug("Pruned stale usage records", zap.Int("count", n))
		}
	}

	logger.Info("Item store loaded",
		zap.String("dir", opts.Dir),
		zap.Int("history", len(s.history)),
		zap.Int("snippets", len(s.snippets)),
		zap.Int("groups", len(s.groups)))
	return s, nil
}

func loadCollection[T any](s *Store, name string) []T {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read collection, starting empty",
				zap.String("file", path), zap.Error(err))
		}
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("Corrupt collection file, starting empty",
			zap.String("file", path), zap.Error(err))
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

func (s *Store) save(name string, items any) {
	path := filepath.Join(s.dir, name)
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("Failed to encode collection", zap.String("file", path), zap.Error(err))
		return
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		s.logger.Error("Failed to persist collection", zap.String("file", path), zap.Error(err))
	}
}

func (s *Store) saveHistory() {
	s.save(HistoryFile, s.history)
	s.emit(CollectionHistory)
}

func (s *Store) saveSnippets() {
	s.save(SnippetsFile, s.snippets)
	s.emit(CollectionSnippets)
}

func (s *Store) saveGroups() {
	s.save(FoldersFile, s.groups)
	s.emit(CollectionGroups)
}

// Subscribe returns a channel receiving an Event after each mutation, and a
// function that cancels the subscription. Events are dropped when the
// subscriber falls behind.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Event, 16)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) emit(c Collection) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- Event{Collection: c}:
		default:
		}
	}
}

// History

// Insert places entry at the front, evicts the oldest unpinned entries above
// the limit and persists
func (s *Store) Insert(entry types.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	s.history = append([]types.HistoryEntry{entry}, s.history...)
	s.enforceLimit()
	s.saveHistory()
	return nil
}

// enforceLimit removes unpinned entries from the tail until at most
// maxHistory remain. Reports whether anything was removed.
func (s *Store) enforceLimit() bool {
	unpinned := 0
	for _, e := range s.history {
		if !e.Pinned {
			unpinned++
		}
	}
	excess := unpinned - s.maxHistory
	if excess <= 0 {
		return false
	}

	var evicted []types.HistoryEntry
	kept := make([]types.HistoryEntry, 0, len(s.history)-excess)
	for i := len(s.history) - 1; i >= 0; i-- {
		e := s.history[i]
		if !e.Pinned && len(evicted) < excess {
			evicted = append(evicted, e)
			continue
		}
		kept = append(kept, e)
	}
	// kept was built tail first
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	s.history = kept

	for _, e := range evicted {
		s.releaseAssets(e)
	}
	s.forgetUsage(evicted...)
	s.logger.Debug("Evicted history entries", zap.Int("count", len(evicted)))
	return true
}

// Delete removes the entry and its assets. Absent ids are ignored.
func (s *Store) Delete(id uuid.UUID) bool {
	return s.DeleteMany([]uuid.UUID{id}) > 0
}

// DeleteMany removes every listed entry and persists once
func (s *Store) DeleteMany(ids []uuid.UUID) int {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	var removed []types.HistoryEntry
	kept := s.history[:0:0]
	for _, e := range s.history {
		if _, ok := want[e.ID]; ok {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	if len(removed) == 0 {
		return 0
	}

	s.history = kept
	for _, e := range removed {
		s.releaseAssets(e)
	}
	s.forgetUsage(removed...)
	s.saveHistory()
	return len(removed)
}

// ClearUnpinned removes every unpinned entry and persists once
func (s *Store) ClearUnpinned() int {
	var ids []uuid.UUID
	for _, e := range s.history {
		if !e.Pinned {
			ids = append(ids, e.ID)
		}
	}
	return s.DeleteMany(ids)
}

// TogglePin flips the pin state of the entry and returns the updated entry
func (s *Store) TogglePin(id uuid.UUID) (types.HistoryEntry, bool) {
	for i := range s.history {
		if s.history[i].ID == id {
			s.history[i].Pinned = !s.history[i].Pinned
			entry := s.history[i]
			s.saveHistory()
			return entry, true
		}
	}
	return types.HistoryEntry{}, false
}

// Entry returns a copy of the entry with the given id
func (s *Store) Entry(id uuid.UUID) (types.HistoryEntry, bool) {
	for _, e := range s.history {
		if e.ID == id {
			return e, true
		}
	}
	return types.HistoryEntry{}, false
}

// Entries returns the history in display order, filtered by group. The order
// is newest first, or most recently used first when sort-by-last-used is on.
func (s *Store) Entries(group types.KindGroup) []types.HistoryEntry {
	out := make([]types.HistoryEntry, 0, len(s.history))
	for _, e := range s.history {
		if group.Matches(e.Kind) {
			out = append(out, e)
		}
	}
	if s.sortByLastUsed && s.usage != nil {
		s.sortByUsage(out)
	}
	return out
}

func (s *Store) sortByUsage(entries []types.HistoryEntry) {
	records, err := s.usage.All()
	if err != nil {
		s.logger.Warn("Failed to read usage index", zap.Error(err))
		return
	}
	lastUsed := func(e types.HistoryEntry) time.Time {
		if rec, ok := records[e.ID]; ok && rec.LastUsed.After(e.CreatedAt) {
			return rec.LastUsed
		}
		return e.CreatedAt
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return lastUsed(entries[i]).After(lastUsed(entries[j]))
	})
}

// FindText returns the first entry of kind whose text equals text
func (s *Store) FindText(kind types.ContentKind, text string) (types.HistoryEntry, bool) {
	for _, e := range s.history {
		if e.Kind == kind && e.TextContent == text {
			return e, true
		}
	}
	return types.HistoryEntry{}, false
}

// Resolve finds an entry by full id, unique id prefix, or 1-based position in
// the display order (numbers of up to four digits).
func (s *Store) Resolve(ref string) (types.HistoryEntry, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return types.HistoryEntry{}, fmt.Errorf("empty reference: %w", ErrNotFound)
	}

	if len(ref) <= 4 {
		if n, err := strconv.Atoi(ref); err == nil {
			entries := s.Entries(types.GroupAll)
			if n < 1 || n > len(entries) {
				return types.HistoryEntry{}, fmt.Errorf("position %d: %w", n, ErrNotFound)
			}
			return entries[n-1], nil
		}
	}

	if id, err := uuid.Parse(ref); err == nil {
		if e, ok := s.Entry(id); ok {
			return e, nil
		}
		return types.HistoryEntry{}, fmt.Errorf("entry %s: %w", ref, ErrNotFound)
	}

	var matches []types.HistoryEntry
	for _, e := range s.history {
		if strings.HasPrefix(e.ID.String(), ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return types.HistoryEntry{}, fmt.Errorf("entry %s: %w", ref, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return types.HistoryEntry{}, fmt.Errorf("%s matches %d entries: %w", ref, len(matches), ErrAmbiguous)
	}
}

// SetMaxHistory changes the retention limit and applies it immediately
func (s *Store) SetMaxHistory(n int) {
	if n < 1 {
		n = 1
	}
	s.maxHistory = n
	if s.enforceLimit() {
		s.saveHistory()
	}
}

// SetSortByLastUsed toggles recency ordering of Entries
func (s *Store) SetSortByLastUsed(on bool) {
	s.sortByLastUsed = on
}

// MarkUsed records that the entry was published
func (s *Store) MarkUsed(id uuid.UUID) {
	if s.usage == nil {
		return
	}
	if _, err := s.usage.Touch(id, time.Now()); err != nil {
		s.logger.Warn("Failed to record usage", zap.String("id", id.String()), zap.Error(err))
		return
	}
	if s.sortByLastUsed {
		s.emit(CollectionHistory)
	}
}

// Usage returns the usage record of an entry
func (s *Store) Usage(id uuid.UUID) (UsageRecord, bool) {
	if s.usage == nil {
		return UsageRecord{}, false
	}
	rec, ok, err := s.usage.Get(id)
	if err != nil {
		s.logger.Warn("Failed to read usage record", zap.String("id", id.String()), zap.Error(err))
		return UsageRecord{}, false
	}
	return rec, ok
}

// Stats summarizes the store
func (s *Store) Stats() Stats {
	st := Stats{
		Total:      len(s.history),
		ByKind:     make(map[types.ContentKind]int),
		MaxHistory: s.maxHistory,
		Snippets:   len(s.snippets),
		Groups:     len(s.groups),
	}
	for _, e := range s.history {
		st.ByKind[e.Kind]++
		if e.Pinned {
			st.Pinned++
		}
		if st.Oldest.IsZero() || e.CreatedAt.Before(st.Oldest) {
			st.Oldest = e.CreatedAt
		}
		if e.CreatedAt.After(st.Newest) {
			st.Newest = e.CreatedAt
		}
	}
	if s.assets != nil {
		if n, err := s.assets.UsageBytes(); err == nil {
			st.AssetBytes = n
		} else {
			s.logger.Warn("Failed to measure asset usage", zap.Error(err))
		}
	}
	return st
}

func (s *Store) releaseAssets(e types.HistoryEntry) {
	if s.assets == nil {
		return
	}
	var refs []assets.Ref
	if e.ImageFileName != "" {
		refs = append(refs, assets.Ref{Area: assets.AreaImages, Name: e.ImageFileName})
	}
	if e.ThumbnailFileName != "" {
		refs = append(refs, assets.Ref{Area: assets.AreaThumbnails, Name: e.ThumbnailFileName})
	}
	if e.MediaFilePath != "" {
		ref, ok := s.assets.RefForPath(e.MediaFilePath)
		switch {
		case !ok:
			s.logger.Debug("Leaving media file outside the asset store", zap.String("path", e.MediaFilePath))
		case s.mediaInUse(e.MediaFilePath):
			s.logger.Debug("Keeping media file shared with another entry", zap.String("path", e.MediaFilePath))
		default:
			refs = append(refs, ref)
		}
	}
	for _, ref := range refs {
		if err := s.assets.Delete(ref); err != nil {
			s.logger.Warn("Failed to delete asset", zap.String("ref", ref.String()), zap.Error(err))
		}
	}
}

// mediaInUse reports whether a remaining entry references path
func (s *Store) mediaInUse(path string) bool {
	for _, e := range s.history {
		if e.MediaFilePath == path {
			return true
		}
	}
	return false
}

func (s *Store) forgetUsage(entries ...types.HistoryEntry) {
	if s.usage == nil || len(entries) == 0 {
		return
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := s.usage.Remove(ids...); err != nil {
		s.logger.Warn("Failed to remove usage records", zap.Error(err))
	}
}

// Snippets

// AddSnippet appends a snippet. A non-nil group must exist.
func (s *Store) AddSnippet(snippet types.SnippetEntry) (types.SnippetEntry, error) {
	if snippet.ID == uuid.Nil {
		snippet.ID = uuid.New()
	}
	if snippet.GroupID != nil {
		if _, ok := s.Group(*snippet.GroupID); !ok {
			return types.SnippetEntry{}, fmt.Errorf("group %s: %w", snippet.GroupID, ErrNotFound)
		}
	}
	s.snippets = append(s.snippets, snippet)
	s.saveSnippets()
	return snippet, nil
}

// UpdateSnippet replaces the stored snippet with the same id
func (s *Store) UpdateSnippet(snippet types.SnippetEntry) error {
	if snippet.GroupID != nil {
		if _, ok := s.Group(*snippet.GroupID); !ok {
			return fmt.Errorf("group %s: %w", snippet.GroupID, ErrNotFound)
		}
	}
	for i := range s.snippets {
		if s.snippets[i].ID == snippet.ID {
			s.snippets[i] = snippet
			s.saveSnippets()
			return nil
		}
	}
	return fmt.Errorf("snippet %s: %w", snippet.ID, ErrNotFound)
}

// DeleteSnippet removes a snippet. Absent ids are ignored.
func (s *Store) DeleteSnippet(id uuid.UUID) bool {
	for i := range s.snippets {
		if s.snippets[i].ID == id {
			s.snippets = append(s.snippets[:i], s.snippets[i+1:]...)
			s.saveSnippets()
			return true
		}
	}
	return false
}

// Snippet returns a copy of the snippet with the given id
func (s *Store) Snippet(id uuid.UUID) (types.SnippetEntry, bool) {
	for _, sn := range s.snippets {
		if sn.ID == id {
			return sn, true
		}
	}
	return types.SnippetEntry{}, false
}

// SnippetsForGroup returns the snippets of a group (nil for ungrouped),
// ordered by SortOrder then insertion order
func (s *Store) SnippetsForGroup(groupID *uuid.UUID) []types.SnippetEntry {
	out := []types.SnippetEntry{}
	for _, sn := range s.snippets {
		if sn.InGroup(groupID) {
			out = append(out, sn)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// AllSnippets returns every snippet in insertion order
func (s *Store) AllSnippets() []types.SnippetEntry {
	return append([]types.SnippetEntry{}, s.snippets...)
}

// Groups

// AddGroup appends a group
func (s *Store) AddGroup(group types.SnippetGroup) types.SnippetGroup {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	s.groups = append(s.groups, group)
	s.saveGroups()
	return group
}

// DeleteGroup removes a group together with its snippets and returns how
// many snippets went with it
func (s *Store) DeleteGroup(id uuid.UUID) (int, bool) {
	idx := -1
	for i := range s.groups {
		if s.groups[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, false
	}

	kept := s.snippets[:0:0]
	for _, sn := range s.snippets {
		if !sn.InGroup(&id) {
			kept = append(kept, sn)
		}
	}
	removed := len(s.snippets) - len(kept)
	s.snippets = kept
	s.groups = append(s.groups[:idx], s.groups[idx+1:]...)

	s.saveGroups()
	s.saveSnippets()
	return removed, true
}

// Group returns a copy of the group with the given id
func (s *Store) Group(id uuid.UUID) (types.SnippetGroup, bool) {
	for _, g := range s.groups {
		if g.ID == id {
			return g, true
		}
	}
	return types.SnippetGroup{}, false
}

// Groups returns the groups ordered by SortOrder then insertion order
func (s *Store) Groups() []types.SnippetGroup {
	out := append([]types.SnippetGroup{}, s.groups...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}
