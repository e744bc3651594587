package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/berrythewa/mediaclip/internal/config"
	"github.com/berrythewa/mediaclip/internal/daemon"
)

// newConfigCmd creates the config command
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mediaclip configuration",
		Long: `Manage mediaclip configuration:
  • Show the effective configuration
  • Print the config file location
  • Write a default configuration
  • Make a running daemon reload its settings`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigReloadCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after environment variables and flags were
applied, followed by the resolved paths.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput() {
				return printJSON(cmd, cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			out := cmd.OutOrStdout()
			out.Write(data)
			fmt.Fprintln(out)
			printPaths(out, cfg.SystemPaths)
			return nil
		},
	}
}

func printPaths(w io.Writer, p config.ConfigPaths) {
	fmt.Fprintln(w, "# paths")
	fmt.Fprintf(w, "#   config: %s\n", p.ActiveConfig)
	fmt.Fprintf(w, "#   data:   %s\n", p.DataDir)
	fmt.Fprintf(w, "#   logs:   %s\n", p.LogDir)
	fmt.Fprintf(w, "#   socket: %s\n", p.SocketPath)
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput() {
				return printJSON(cmd, cfg.SystemPaths)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.SystemPaths.ActiveConfig)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration",
		Long: `Write the default configuration to the active config path and create
the data directories. An existing file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath := cfg.SystemPaths.ActiveConfig

			// Loading already wrote defaults for a missing file, so compare against them
			if existing, err := os.ReadFile(configPath); err == nil && !force {
				defaults, _ := yaml.Marshal(config.DefaultConfig())
				if string(existing) != string(defaults) {
					return fmt.Errorf("configuration already exists at %s, use --force to overwrite", configPath)
				}
			}

			fresh := config.DefaultConfig()
			if err := fresh.Save(configPath); err != nil {
				return err
			}
			fresh.SystemPaths = cfg.SystemPaths
			if err := fresh.SystemPaths.EnsureDirs(); err != nil {
				return err
			}

			logger.Info("Configuration initialized", zap.String("config_path", configPath))
			printf(cmd, "✓ Configuration written to: %s\n", configPath)
			printf(cmd, "✓ Data directory: %s\n", fresh.SystemPaths.DataDir)
			printf(cmd, "\nTo start the daemon, run: mediaclip daemon start\n")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration")
	return cmd
}

func newConfigReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make the running daemon re-read its configuration",
		Long: `Apply history, capture and polling settings from the config file to
the running daemon. Path changes take effect after a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !pingDaemon(cmd) {
				printf(cmd, "Daemon is not running, the configuration applies on next start\n")
				return nil
			}
			resp, err := callDaemon(cmd, daemon.CmdConfigReload, nil, nil)
			if err != nil {
				return err
			}
			printf(cmd, "Daemon %s\n", resp.Message)
			return nil
		},
	}
}
