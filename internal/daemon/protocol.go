package daemon

import (
	"time"

	"github.com/berrythewa/mediaclip/internal/storage"
	"github.com/berrythewa/mediaclip/internal/types"
)

// IPC command names
const (
	CmdHistoryList   = "history.list"
	CmdHistoryShow   = "history.show"
	CmdHistoryDelete = "history.delete"
	CmdHistoryPin    = "history.pin"
	CmdHistoryClear  = "history.clear"
	CmdHistorySelect = "history.select"
	CmdHistoryStats  = "history.stats"

	CmdSnippetList   = "snippet.list"
	CmdSnippetAdd    = "snippet.add"
	CmdSnippetUpdate = "snippet.update"
	CmdSnippetDelete = "snippet.delete"
	CmdSnippetPaste  = "snippet.paste"

	CmdGroupList   = "group.list"
	CmdGroupAdd    = "group.add"
	CmdGroupDelete = "group.delete"

	CmdStatus       = "status"
	CmdConfigReload = "config.reload"
	CmdShutdown     = "shutdown"
)

// ListArgs selects history entries
type ListArgs struct {
	Group  string `json:"group,omitempty"` // all, text or media
	Limit  int    `json:"limit,omitempty"` // 0 means everything
	Search string `json:"search,omitempty"`
}

// RefArgs names one item by id, id prefix or list position
type RefArgs struct {
	Ref string `json:"id"`
}

// RefsArgs names several items
type RefsArgs struct {
	Refs []string `json:"ids"`
}

// SnippetArgs creates or updates a snippet. On update nil fields are left
// unchanged; an empty Group moves the snippet out of its group.
type SnippetArgs struct {
	Ref       string  `json:"id,omitempty"`
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Group     *string `json:"group,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
}

// SnippetListArgs filters snippets. Group is a group id, prefix or name;
// empty lists ungrouped snippets unless All is set.
type SnippetListArgs struct {
	Group string `json:"group,omitempty"`
	All   bool   `json:"all,omitempty"`
}

// GroupArgs creates a snippet group
type GroupArgs struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

// CountResult reports how many items an operation touched
type CountResult struct {
	Count int `json:"count"`
}

// GroupDeleteResult reports a group deletion and its cascaded snippets
type GroupDeleteResult struct {
	Group    types.SnippetGroup `json:"group"`
	Snippets int                `json:"snippets"`
}

// Status describes the running daemon
type Status struct {
	PID             int       `json:"pid"`
	StartedAt       time.Time `json:"startedAt"`
	Uptime          string    `json:"uptime"`
	DataDir         string    `json:"dataDir"`
	SocketPath      string    `json:"socketPath"`
	ConfigPath      string    `json:"configPath"`
	PollingInterval string    `json:"pollingInterval"`
	Captured        int64     `json:"captured"`
	Entries         int       `json:"entries"`

	// Revisions counts change events per collection since start. Clients
	// refetch a collection when its revision moves.
	Revisions map[storage.Collection]uint64 `json:"revisions"`
}
