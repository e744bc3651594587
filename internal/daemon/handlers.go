package daemon

import (
	"maps"
	"os"
	"strings"
	"time"

	"github.com/berrythewa/mediaclip/internal/assets"
	"github.com/berrythewa/mediaclip/internal/config"
	"github.com/berrythewa/mediaclip/internal/ipc"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (d *Daemon) buildRoutes() map[string]func(*ipc.Request) *ipc.Response {
	return map[string]func(*ipc.Request) *ipc.Response{
		CmdHistoryList:   d.historyList,
		CmdHistoryShow:   d.historyShow,
		CmdHistoryDelete: d.historyDelete,
		CmdHistoryPin:    d.historyPin,
		CmdHistoryClear:  d.historyClear,
		CmdHistorySelect: d.historySelect,
		CmdHistoryStats:  d.historyStats,
		CmdSnippetList:   d.snippetList,
		CmdSnippetAdd:    d.snippetAdd,
		CmdSnippetUpdate: d.snippetUpdate,
		CmdSnippetDelete: d.snippetDelete,
		CmdSnippetPaste:  d.snippetPaste,
		CmdGroupList:     d.groupList,
		CmdGroupAdd:      d.groupAdd,
		CmdGroupDelete:   d.groupDelete,
		CmdStatus:        d.status,
		CmdConfigReload:  d.configReload,
		CmdShutdown:      d.shutdown,
	}
}

func (d *Daemon) historyList(req *ipc.Request) *ipc.Response {
	var args ListArgs
	if err := req.DecodeArgs(&args); err != nil {
		return ipc.Errorf("%v", err)
	}
	group, err := types.ParseKindGroup(args.Group)
	if err != nil {
		return ipc.Errorf("%v", err)
	}

	all := d.store.Entries(types.GroupAll)
	search := strings.ToLower(args.Search)
	items := make([]types.HistoryItem, 0, len(all))
	for i, e := range all {
		if !group.Matches(e.Kind) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.PreviewText()), search) {
			continue
		}
		items = append(items, d.item(e, i+1))
		if args.Limit > 0 && len(items) == args.Limit {
			break
		}
	}
	return ipc.OK("", items)
}

func (d *Daemon) historyShow(req *ipc.Request) *ipc.Response {
	e, pos, errResp := d.resolveEntry(req)
	if errResp != nil {
		return errResp
	}
	return ipc.OK("", d.item(e, pos))
}

func (d *Daemon) historyDelete(req *ipc.Request) *ipc.Response {
	var args RefsArgs
	if err := req.DecodeArgs(&args); err != nil {
		return ipc.Errorf("%v", err)
	}
	if len(args.Refs) == 0 {
		return ipc.Errorf("no entries given")
	}

	// Resolve everything first: positions shift once deletion starts
	ids := make([]uuid.UUID, 0, len(args.Refs))
	for _, ref := range args.Refs {
		e, err := d.store.Resolve(ref)
		if err != nil {
			return ipc.Errorf("%v", err)
		}
		ids = append(ids, e.ID)
	}
	n := d.store.DeleteMany(ids)
	return ipc.OK("", CountResult{Count: n})
}

func (d *Daemon) historyPin(req *ipc.Request) *ipc.Response {
	e, pos, errResp := d.resolveEntry(req)
	if errResp != nil {
		return errResp
	}
	updated, ok := d.store.TogglePin(e.ID)
	if !ok {
		return ipc.Errorf("entry %s disappeared", e.ID)
	}
	msg := "unpinned"
	if updated.Pinned {
		msg = "pinned"
	}
	return ipc.OK(msg, d.item(updated, pos))
}

func (d *Daemon) historyClear(req *ipc.Request) *ipc.Response {
	n := d.store.ClearUnpinned()
	return ipc.OK("", CountResult{Count: n})
}

func (d *Daemon) historySelect(req *ipc.Request) *ipc.Response {
	e, pos, errResp := d.resolveEntry(req)
	if errResp != nil {
		return errResp
	}
	if err := d.publisher.Publish(e); err != nil {
		return ipc.Errorf("failed to publish entry: %v", err)
	}
	d.store.MarkUsed(e.ID)

	item := d.item(e, pos)
	if d.cfg.History.DeleteAfterPaste && !e.Pinned {
		d.store.Delete(e.ID)
		return ipc.OK("published and removed", item)
	}
	return ipc.OK("published", item)
}

func (d *Daemon) historyStats(req *ipc.Request) *ipc.Response {
	return ipc.OK("", d.store.Stats())
}

func (d *Daemon) snippetList(req *ipc.Request) *ipc.Response {
	var args SnippetListArgs
	if err := req.DecodeArgs(&args); err != nil {
		return ipc.Errorf("%v", err)
	}
	if args.All {
		return ipc.OK("", d.store.AllSnippets())
	}
	groupID, err := d.resolveGroupID(args.Group)
	if err != nil {
		return ipc.Errorf("%v", err)
	}
	return ipc.OK("", d.store.SnippetsForGroup(groupID))
}

func (d *Daemon) snippetAdd(req *ipc.Request) *ipc.Response {
	var args SnippetArgs
	if err := req.DecodeArgs(&args); err != nil {
		return ipc.Errorf("%v", err)
	}
	if args.Content == nil || *args.Content == "" {
		return ipc.Errorf("snippet content is required")
	}

	var groupID *uuid.UUID
	if args.Group != nil {
		id, err := d.resolveGroupID(*args.Group)
		if err != nil {
			return ipc.Errorf("%v", err)
		}
		groupID = id
	}

	title := defaultTitle(*args.Content)
	if args.Title != nil && *args.Title != "" {
		title = *args.Title
	}
	order := d.nextSnippetOrder(groupID)
	if args.SortOrder != nil {
		order = *args.SortOrder
	}

	snippet, err := d.store.AddSnippet(types.NewSnippet(title, *args.Content, groupID, order))
	if err != nil {
		return ipc.Errorf("%v", err)
	}
	return ipc.OK("snippet added", snippet)
}

func (d *Daemon) snippetUpdate(req *ipc.Request) *ipc.Response {
	var args SnippetArgs
	if err := req.DecodeArgs(&args); err != nil {
		return ipc.Errorf("%v", err)
	}
	snippet, err := d.resolveSnippet(args.Ref)
	if err != nil {
		return ipc.Errorf("%v", err)
	}

	if args.Title != nil {
		snippet.Title = *args.Title
	}
	if args.Content != nil {
		if *args.Content == "" {
			return ipc.Errorf("snippet content cannot be empty")
		}
		snippet.Content = *args.Content
	}
	if args.Group != nil {
		groupID, err := d.resolveGroupID(*args.Group)
		if err != nil {
			return ipc.Errorf("%v", err)
		}
		snippet.GroupID = groupID
	}
	if args.SortOrder != nil {
		snippet.SortOrder = *args.SortOrder
	}

	if err := d.store.UpdateSnippet(snippet); err != nil {
		return ipc.Errorf("%v", err)
	}
	return ipc.OK("snippet updated", snippet)
}

func (d *Daemon) snippetDelete(req *ipc.Request) *ipc.Response {
	var args RefArgs
	if err := req.DecodeArgs(&args); err != nil {
		return ipc.Errorf("%v", err)
	}
	snippet, err := d.resolveSnippet(args.Ref)
	if err != nil {
		return ipc.Errorf("%v", err)
	}
	d.store.DeleteSnippet(snippet.ID)
	return ipc.OK("snippet deleted", snippet)
}

func (d *Daemon) snippetPaste(req *ipc.Request) *ipc.Response {
	var args RefArgs
	if err := req.DecodeArgs(&args); err != nil {
		return ipc.Errorf("%v", err)
	}
	snippet, err := d.resolveSnippet(args.Ref)
	if err != nil {
		return ipc.Errorf("%v", err)
	}
	if err := d.publisher.PublishText(snippet.Content); err != nil {
		return ipc.Errorf("failed to publish snippet: %v", err)
	}
	return ipc.OK("published", snippet)
}

func (d *Daemon) groupList(req *ipc.Request) *ipc.Response {
	return ipc.OK("", d.store.Groups())
}

func (d *Daemon) groupAdd(req *ipc.Request) *ipc.Response {
	var args GroupArgs
	if err := req.DecodeArgs(&args); err != nil {
		return ipc.Errorf("%v", err)
	}
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return ipc.Errorf("group name is required")
	}
	group := d.store.AddGroup(types.NewSnippetGroup(name, args.SortOrder))
	return ipc.OK("group added", group)
}

func (d *Daemon) groupDelete(req *ipc.Request) *ipc.Response {
	var args RefArgs
	if err := req.DecodeArgs(&args); err != nil {
		return ipc.Errorf("%v", err)
	}
	group, err := d.resolveGroup(args.Ref)
	if err != nil {
		return ipc.Errorf("%v", err)
	}
	n, _ := d.store.DeleteGroup(group.ID)
	return ipc.OK("group deleted", GroupDeleteResult{Group: group, Snippets: n})
}

func (d *Daemon) status(req *ipc.Request) *ipc.Response {
	return ipc.OK("", Status{
		PID:             os.Getpid(),
		StartedAt:       d.startedAt,
		Uptime:          time.Since(d.startedAt).Round(time.Second).String(),
		DataDir:         d.cfg.SystemPaths.DataDir,
		SocketPath:      d.cfg.SystemPaths.SocketPath,
		ConfigPath:      d.cfg.SystemPaths.ActiveConfig,
		PollingInterval: d.cfg.PollInterval().String(),
		Captured:        d.captured.Load(),
		Entries:         len(d.store.Entries(types.GroupAll)),
		Revisions:       maps.Clone(d.revisions),
	})
}

// configReload re-reads the config file and applies the settings that can
// change at runtime. Path changes need a restart.
func (d *Daemon) configReload(req *ipc.Request) *ipc.Response {
	fresh, err := config.Load(d.cfg.SystemPaths.ActiveConfig)
	if err != nil {
		return ipc.Errorf("failed to reload config: %v", err)
	}
	if fresh.SystemPaths.DataDir != d.cfg.SystemPaths.DataDir {
		d.logger.Warn("Data directory change ignored until restart",
			zap.String("current", d.cfg.SystemPaths.DataDir),
			zap.String("configured", fresh.SystemPaths.DataDir))
	}

	d.cfg.History = fresh.History
	d.cfg.Capture = fresh.Capture
	d.cfg.PollingInterval = fresh.PollingInterval

	d.monitor.UpdateSettings(fresh.Capture, fresh.History.HandleDuplicates)
	d.store.SetMaxHistory(fresh.History.MaxCount)
	d.store.SetSortByLastUsed(fresh.History.SortByLastUsed)
	if d.ticker != nil {
		d.ticker.Reset(fresh.PollInterval())
	}

	d.logger.Info("Configuration reloaded", zap.String("path", d.cfg.SystemPaths.ActiveConfig))
	return ipc.OK("configuration reloaded", nil)
}

func (d *Daemon) shutdown(req *ipc.Request) *ipc.Response {
	d.Stop()
	return ipc.OK("daemon stopping", nil)
}

func (d *Daemon) item(e types.HistoryEntry, pos int) types.HistoryItem {
	item := types.HistoryItem{HistoryEntry: e, Position: pos}
	if rec, ok := d.store.Usage(e.ID); ok {
		lastUsed := rec.LastUsed
		item.LastUsed = &lastUsed
		item.UseCount = rec.UseCount
	}
	if e.ImageFileName != "" {
		item.ImagePath = d.assets.Path(assets.Ref{Area: assets.AreaImages, Name: e.ImageFileName})
	}
	if e.ThumbnailFileName != "" {
		item.ThumbnailPath = d.assets.Path(assets.Ref{Area: assets.AreaThumbnails, Name: e.ThumbnailFileName})
	}
	return item
}

func (d *Daemon) resolveEntry(req *ipc.Request) (types.HistoryEntry, int, *ipc.Response) {
	var args RefArgs
	if err := req.DecodeArgs(&args); err != nil {
		return types.HistoryEntry{}, 0, ipc.Errorf("%v", err)
	}
	e, err := d.store.Resolve(args.Ref)
	if err != nil {
		return types.HistoryEntry{}, 0, ipc.Errorf("%v", err)
	}
	return e, d.position(e.ID), nil
}

func (d *Daemon) position(id uuid.UUID) int {
	for i, e := range d.store.Entries(types.GroupAll) {
		if e.ID == id {
			return i + 1
		}
	}
	return 0
}

func (d *Daemon) nextSnippetOrder(groupID *uuid.UUID) int {
	next := 0
	for _, s := range d.store.SnippetsForGroup(groupID) {
		if s.SortOrder >= next {
			next = s.SortOrder + 1
		}
	}
	return next
}

// defaultTitle is the first line of content, shortened for menus
func defaultTitle(content string) string {
	line := strings.TrimSpace(content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	const max = 40
	if runes := []rune(line); len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return line
}
