package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/berrythewa/mediaclip/internal/daemon"
	"github.com/berrythewa/mediaclip/internal/types"
	"github.com/berrythewa/mediaclip/pkg/format"
)

// newGroupCmd creates the snippet group command
func newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage snippet groups",
	}

	cmd.AddCommand(newGroupListCmd())
	cmd.AddCommand(newGroupAddCmd())
	cmd.AddCommand(newGroupDeleteCmd())
	return cmd
}

func newGroupListCmd() *cobra.Command {
	var flags formatFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snippet groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var groups []types.SnippetGroup
			if _, err := callDaemon(cmd, daemon.CmdGroupList, nil, &groups); err != nil {
				return err
			}
			return printResult(cmd, groups, func(w io.Writer) {
				fmt.Fprintln(w, format.New(flags.options(cmd)).FormatGroups(groups))
			})
		},
	}

	flags.register(cmd, 0, 0)
	return cmd
}

func newGroupAddCmd() *cobra.Command {
	var order int

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a snippet group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var group types.SnippetGroup
			if _, err := callDaemon(cmd, daemon.CmdGroupAdd, daemon.GroupArgs{Name: args[0], SortOrder: order}, &group); err != nil {
				return err
			}
			return printResult(cmd, group, func(w io.Writer) {
				printf(cmd, "Added group %q\n", group.Name)
			})
		},
	}

	cmd.Flags().IntVar(&order, "order", 0, "sort order among groups")
	return cmd
}

func newGroupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group>",
		Short: "Delete a snippet group and its snippets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res daemon.GroupDeleteResult
			if _, err := callDaemon(cmd, daemon.CmdGroupDelete, daemon.RefArgs{Ref: args[0]}, &res); err != nil {
				return err
			}
			return printResult(cmd, res, func(w io.Writer) {
				printf(cmd, "Deleted group %q and %s\n", res.Group.Name, countNoun(res.Snippets, "snippet", "snippets"))
			})
		},
	}
}
