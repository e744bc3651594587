package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berrythewa/mediaclip/internal/daemon"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/berrythewa/mediaclip/pkg/format"
)

// newSnippetCmd creates the snippet command with all subcommands
func newSnippetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippet",
		Short: "Manage reusable text snippets",
		Long: `Snippets are saved pieces of text that can be put on the clipboard
at any time. They live outside the history and are never trimmed.

Snippets are referenced by id or a unique id prefix; groups by id,
id prefix or name.`,
	}

	cmd.AddCommand(newSnippetListCmd())
	cmd.AddCommand(newSnippetAddCmd())
	cmd.AddCommand(newSnippetUpdateCmd())
	cmd.AddCommand(newSnippetDeleteCmd())
	cmd.AddCommand(newSnippetPasteCmd())
	return cmd
}

func newSnippetListCmd() *cobra.Command {
	var (
		group string
		flags formatFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snippets",
		Long: `List snippets sectioned by group. With --group only that group is
listed; --group "" lists the ungrouped snippets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := daemon.SnippetListArgs{All: true}
			if cmd.Flags().Changed("group") {
				args = daemon.SnippetListArgs{Group: group}
			}

			var snippets []types.SnippetEntry
			if _, err := callDaemon(cmd, daemon.CmdSnippetList, args, &snippets); err != nil {
				return err
			}
			if jsonOutput() {
				return printJSON(cmd, snippets)
			}

			var groups []types.SnippetGroup
			if args.All {
				if _, err := callDaemon(cmd, daemon.CmdGroupList, nil, &groups); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), format.New(flags.options(cmd)).FormatSnippets(snippets, groups))
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "only list snippets of this group")
	flags.register(cmd, 0, 80)
	return cmd
}

func newSnippetAddCmd() *cobra.Command {
	var (
		title string
		group string
		order int
	)

	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a snippet",
		Long: `Add a snippet. The content is taken from the argument, or read from
standard input when the argument is missing or "-". Without --title the
first line of the content is used.

Examples:
  mediaclip snippet add "Kind regards" --title signature
  git log -1 --format=%H | mediaclip snippet add --group work`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := snippetContent(cmd, args)
			if err != nil {
				return err
			}

			req := daemon.SnippetArgs{Content: &content}
			if title != "" {
				req.Title = &title
			}
			if cmd.Flags().Changed("group") {
				req.Group = &group
			}
			if cmd.Flags().Changed("order") {
				req.SortOrder = &order
			}

			var snippet types.SnippetEntry
			if _, err := callDaemon(cmd, daemon.CmdSnippetAdd, req, &snippet); err != nil {
				return err
			}
			return printSnippet(cmd, snippet)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "snippet title")
	cmd.Flags().StringVarP(&group, "group", "g", "", "group id, prefix or name")
	cmd.Flags().IntVar(&order, "order", 0, "sort order within the group (default: last)")
	return cmd
}

func newSnippetUpdateCmd() *cobra.Command {
	var (
		title   string
		content string
		group   string
		order   int
	)

	cmd := &cobra.Command{
		Use:   "update <snippet>",
		Short: "Change a snippet",
		Long: `Change the title, content, group or sort order of a snippet. Only the
given flags are applied; --group "" moves the snippet out of its group.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := daemon.SnippetArgs{Ref: args[0]}
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("content") {
				req.Content = &content
			}
			if flags.Changed("group") {
				req.Group = &group
			}
			if flags.Changed("order") {
				req.SortOrder = &order
			}
			if req.Title == nil && req.Content == nil && req.Group == nil && req.SortOrder == nil {
				return fmt.Errorf("nothing to update, give at least one of --title, --content, --group or --order")
			}

			var snippet types.SnippetEntry
			if _, err := callDaemon(cmd, daemon.CmdSnippetUpdate, req, &snippet); err != nil {
				return err
			}
			return printSnippet(cmd, snippet)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVarP(&group, "group", "g", "", "new group id, prefix or name")
	cmd.Flags().IntVar(&order, "order", 0, "new sort order")
	return cmd
}

func newSnippetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <snippet>",
		Short: "Delete a snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var snippet types.SnippetEntry
			if _, err := callDaemon(cmd, daemon.CmdSnippetDelete, daemon.RefArgs{Ref: args[0]}, &snippet); err != nil {
				return err
			}
			return printResult(cmd, snippet, func(w io.Writer) {
				printf(cmd, "Deleted snippet %q\n", snippet.Title)
			})
		},
	}
}

func newSnippetPasteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "paste <snippet>",
		Aliases: []string{"copy"},
		Short:   "Put a snippet on the clipboard",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var snippet types.SnippetEntry
			if _, err := callDaemon(cmd, daemon.CmdSnippetPaste, daemon.RefArgs{Ref: args[0]}, &snippet); err != nil {
				return err
			}
			return printResult(cmd, snippet, func(w io.Writer) {
				printf(cmd, "Copied snippet %q to the clipboard\n", snippet.Title)
			})
		},
	}
}

// snippetContent returns the content argument or standard input
func snippetContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read snippet content: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")
	if content == "" {
		return "", fmt.Errorf("snippet content is empty")
	}
	return content, nil
}

func printSnippet(cmd *cobra.Command, snippet types.SnippetEntry) error {
	var flags formatFlags
	flags.noIcons = true
	return printResult(cmd, snippet, func(w io.Writer) {
		fmt.Fprintln(w, format.New(flags.options(cmd)).FormatSnippet(snippet))
	})
}
