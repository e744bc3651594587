package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/berrythewa/mediaclip/internal/config"
	"github.com/berrythewa/mediaclip/internal/ipc"
	"github.com/berrythewa/mediaclip/pkg/format"
)

// Shared state across all commands, set up by the root command
var (
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
)

// callDaemon sends command to the running daemon and decodes the payload into out
func callDaemon(cmd *cobra.Command, command string, args, out any) (*ipc.Response, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), ipc.DefaultTimeout)
	defer cancel()

	logger.Debug("Calling daemon", zap.String("command", command))
	return ipc.Call(ctx, cfg.SystemPaths.SocketPath, command, args, out)
}

func jsonOutput() bool { return v.GetBool("json") }

func quietOutput() bool { return v.GetBool("quiet") }

// printJSON writes value as indented JSON to the command output
func printJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// printResult prints value as JSON, or calls human otherwise
func printResult(cmd *cobra.Command, value any, human func(w io.Writer)) error {
	if jsonOutput() {
		return printJSON(cmd, value)
	}
	human(cmd.OutOrStdout())
	return nil
}

// printf writes a status line unless --quiet is set
func printf(cmd *cobra.Command, msg string, args ...any) {
	if quietOutput() {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), msg, args...)
}

// formatFlags are the display switches shared by listing commands
type formatFlags struct {
	compact  bool
	noColors bool
	noIcons  bool
	maxLines int
	maxWidth int
}

func (f *formatFlags) register(cmd *cobra.Command, maxLines, maxWidth int) {
	cmd.Flags().BoolVarP(&f.compact, "compact", "c", false, "use compact single-line format")
	cmd.Flags().BoolVar(&f.noColors, "no-colors", false, "disable colored output")
	cmd.Flags().BoolVar(&f.noIcons, "no-icons", false, "disable icons in output")
	cmd.Flags().IntVar(&f.maxLines, "max-lines", maxLines, "maximum lines to show per entry (0 = no limit)")
	cmd.Flags().IntVar(&f.maxWidth, "max-width", maxWidth, "maximum width per line (0 = no limit)")
}

// options builds formatter options for the command output
func (f *formatFlags) options(cmd *cobra.Command) format.Options {
	opts := format.DefaultOptions()
	if f.compact {
		opts = format.CompactOptions()
	}
	if out, ok := cmd.OutOrStdout().(*os.File); ok {
		opts = opts.ForTerminal(out)
	} else {
		opts.UseColors = false
	}
	if f.noColors {
		opts.UseColors = false
	}
	if f.noIcons {
		opts.UseIcons = false
	}
	opts.MaxLines = f.maxLines
	opts.MaxWidth = f.maxWidth
	return opts
}
