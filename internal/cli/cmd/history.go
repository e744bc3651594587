package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/berrythewa/mediaclip/internal/daemon"
	"github.com/berrythewa/mediaclip/internal/storage"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/berrythewa/mediaclip/pkg/format"
)

// newHistoryCmd creates the history command with all subcommands
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage clipboard history",
		Long: `Manage clipboard history:
  • List and show history entries
  • Put an entry back on the clipboard
  • Pin, delete and clear entries
  • Show history statistics

Entries are referenced by list position (1 is the newest), by id or by
a unique id prefix.`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistorySelectCmd())
	cmd.AddCommand(newHistoryPinCmd())
	cmd.AddCommand(newHistoryDeleteCmd())
	cmd.AddCommand(newHistoryClearCmd())
	cmd.AddCommand(newHistoryStatsCmd())
	return cmd
}

// newHistoryListCmd creates the list subcommand
func newHistoryListCmd() *cobra.Command {
	var (
		args  daemon.ListArgs
		flags formatFlags
		watch time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clipboard history",
		Long: `List clipboard history entries, newest first (or most recently used
first when history.sort_by_last_used is set).

Examples:
  mediaclip history list                 # Show the last 10 entries
  mediaclip history list -n 0            # Show everything
  mediaclip history list --group media   # Images and videos only
  mediaclip history list -s invoice      # Entries mentioning "invoice"
  mediaclip history list --compact       # Compact single-line format
  mediaclip history list -w 1s           # Redraw whenever the history changes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := types.ParseKindGroup(args.Group); err != nil {
				return err
			}
			if watch > 0 {
				return watchHistory(cmd, args, flags.options(cmd), watch)
			}
			var items []types.HistoryItem
			if _, err := callDaemon(cmd, daemon.CmdHistoryList, args, &items); err != nil {
				return err
			}
			return printResult(cmd, items, func(w io.Writer) {
				fmt.Fprintln(w, format.FormatItemList(items, flags.options(cmd)))
			})
		},
	}

	cmd.Flags().IntVarP(&args.Limit, "limit", "n", 10, "maximum number of entries to show (0 = all)")
	cmd.Flags().StringVarP(&args.Group, "group", "g", string(types.GroupAll), "entry group: all, text or media")
	cmd.Flags().StringVarP(&args.Search, "search", "s", "", "only entries whose text or file name contains this")
	cmd.Flags().DurationVarP(&watch, "watch", "w", 0, "keep running and redraw when the history changes, checking at this interval")
	flags.register(cmd, 10, 80)
	return cmd
}

// watchHistory redraws the list each time the daemon reports a new history
// revision, until interrupted
func watchHistory(cmd *cobra.Command, args daemon.ListArgs, opts format.Options, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	out := cmd.OutOrStdout()
	f, isFile := out.(*os.File)
	redraw := isFile && format.IsTerminal(f) && !jsonOutput()

	var seen uint64
	first := true
	for {
		if err := func() error {
			var status daemon.Status
			if _, err := callDaemon(cmd, daemon.CmdStatus, nil, &status); err != nil {
				return err
			}
			rev := status.Revisions[storage.CollectionHistory]
			if !first && rev == seen {
				return nil
			}
			first, seen = false, rev

			var items []types.HistoryItem
			if _, err := callDaemon(cmd, daemon.CmdHistoryList, args, &items); err != nil {
				return err
			}
			if redraw {
				fmt.Fprint(out, "\033[H\033[2J")
			}
			return printResult(cmd, items, func(w io.Writer) {
				fmt.Fprintln(w, format.FormatItemList(items, opts))
			})
		}(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// newHistoryShowCmd creates the show subcommand
func newHistoryShowCmd() *cobra.Command {
	var (
		raw   bool
		flags formatFlags
	)

	cmd := &cobra.Command{
		Use:   "show <entry>",
		Short: "Show one history entry",
		Long: `Show a history entry with its metadata.

Examples:
  mediaclip history show 1          # The newest entry
  mediaclip history show 3f2a       # Entry whose id starts with 3f2a
  mediaclip history show 1 --raw    # Text only, or the media file path`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var item types.HistoryItem
			if _, err := callDaemon(cmd, daemon.CmdHistoryShow, daemon.RefArgs{Ref: args[0]}, &item); err != nil {
				return err
			}

			if raw {
				out := cmd.OutOrStdout()
				switch item.Kind {
				case types.KindImage:
					fmt.Fprintln(out, item.ImagePath)
				case types.KindVideo:
					fmt.Fprintln(out, item.MediaFilePath)
				default:
					fmt.Fprint(out, item.TextContent)
				}
				return nil
			}

			return printResult(cmd, item, func(w io.Writer) {
				fmt.Fprintln(w, format.FormatItem(item, flags.options(cmd)))
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "output raw content without metadata")
	flags.register(cmd, 0, 0)
	return cmd
}

// newHistorySelectCmd creates the select subcommand
func newHistorySelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "select <entry>",
		Aliases: []string{"copy", "paste"},
		Short:   "Put a history entry back on the clipboard",
		Long: `Publish a history entry to the system clipboard. The daemon does not
record the change as a new capture.

With history.delete_after_paste set the entry is removed after it is
published. Pinned entries are kept even then.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var item types.HistoryItem
			resp, err := callDaemon(cmd, daemon.CmdHistorySelect, daemon.RefArgs{Ref: args[0]}, &item)
			if err != nil {
				return err
			}
			return printResult(cmd, item, func(w io.Writer) {
				printf(cmd, "%s %s: %s\n", item.Kind.DisplayName(), item.ShortID(), resp.Message)
			})
		},
	}
}

// newHistoryPinCmd creates the pin subcommand
func newHistoryPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <entry>",
		Short: "Toggle the pin on a history entry",
		Long:  `Pinned entries are never removed by history trimming or clear.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var item types.HistoryItem
			resp, err := callDaemon(cmd, daemon.CmdHistoryPin, daemon.RefArgs{Ref: args[0]}, &item)
			if err != nil {
				return err
			}
			return printResult(cmd, item, func(w io.Writer) {
				printf(cmd, "%s %s %s\n", item.Kind.DisplayName(), item.ShortID(), resp.Message)
			})
		},
	}
}

// newHistoryDeleteCmd creates the delete subcommand
func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entry>...",
		Short: "Delete history entries",
		Long: `Delete one or more history entries and their stored images and thumbnails.

Examples:
  mediaclip history delete 1          # Delete the newest entry
  mediaclip history delete 2 3 5      # Positions refer to the list before deletion`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res daemon.CountResult
			if _, err := callDaemon(cmd, daemon.CmdHistoryDelete, daemon.RefsArgs{Refs: args}, &res); err != nil {
				return err
			}
			return printResult(cmd, res, func(w io.Writer) {
				printf(cmd, "Deleted %s\n", countNoun(res.Count, "entry", "entries"))
			})
		},
	}
}

// newHistoryClearCmd creates the clear subcommand
func newHistoryClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all unpinned history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("this deletes every unpinned entry, use --force to confirm")
			}
			var res daemon.CountResult
			if _, err := callDaemon(cmd, daemon.CmdHistoryClear, nil, &res); err != nil {
				return err
			}
			return printResult(cmd, res, func(w io.Writer) {
				printf(cmd, "Cleared %s\n", countNoun(res.Count, "entry", "entries"))
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "confirm clearing the history")
	return cmd
}

// newHistoryStatsCmd creates the stats subcommand
func newHistoryStatsCmd() *cobra.Command {
	var flags formatFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show history statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var st storage.Stats
			if _, err := callDaemon(cmd, daemon.CmdHistoryStats, nil, &st); err != nil {
				return err
			}
			return printResult(cmd, st, func(w io.Writer) {
				fmt.Fprintln(w, format.FormatStats(st, flags.options(cmd)))
			})
		},
	}

	flags.register(cmd, 0, 0)
	return cmd
}

func countNoun(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
