package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/berrythewa/mediaclip/internal/common"
	"github.com/berrythewa/mediaclip/internal/config"
)

// annotationLogToFile marks commands whose logs go to the daemon log file
const annotationLogToFile = "mediaclip/log-to-file"

// Execute builds the command tree and runs it
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command with all subcommands
func newRootCmd() *cobra.Command {
	v = viper.New()

	cmd := &cobra.Command{
		Use:   "mediaclip",
		Short: "Clipboard history for text, rich text, images and video",
		Long: `Mediaclip keeps a history of what you copy:
  • Plain and rich text, images, screenshots and video files
  • Pinned entries that survive history trimming
  • Reusable snippets organised in groups

The daemon watches the clipboard; every other command talks to it
over a local socket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default is <user config dir>/mediaclip/config.yaml)")
	pf.String("socket", "", "daemon socket path (overrides the config file)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.BoolP("verbose", "v", false, "enable verbose output")
	pf.BoolP("quiet", "q", false, "minimize output")
	pf.Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		newDaemonCmd(),
		newHistoryCmd(),
		newSnippetCmd(),
		newGroupCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

// bindViper layers MEDIACLIP_* environment variables and command line flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix("MEDIACLIP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// setup loads the configuration and creates the logger for cmd
func setup(cmd *cobra.Command) error {
	if err := bindViper(cmd, v); err != nil {
		return err
	}

	loaded, err := config.Load(v.GetString("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if socket := v.GetString("socket"); socket != "" {
		loaded.SocketPath = socket
		loaded.SystemPaths.SocketPath = socket
	}
	if level := v.GetString("log-level"); level != "" {
		loaded.Log.Level = level
	}
	cfg = loaded

	_, toFile := cmd.Annotations[annotationLogToFile]
	opts := common.LoggerOptions{
		Verbose: v.GetBool("verbose"),
		// client commands only report problems
		Quiet:  v.GetBool("quiet") || !toFile,
		ToFile: toFile,
	}
	logger, err = common.NewLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Debug("Configuration loaded",
		zap.String("config", cfg.SystemPaths.ActiveConfig),
		zap.String("socket", cfg.SystemPaths.SocketPath))
	return nil
}
