package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/berrythewa/mediaclip/internal/daemon"
	"github.com/berrythewa/mediaclip/internal/ipc"
	"github.com/berrythewa/mediaclip/internal/platform"
)

// daemonOutputFile collects stdout and stderr of a detached daemon
const daemonOutputFile = "daemon.out"

// newDaemonCmd creates the daemon command
func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the mediaclip daemon",
		Long: `Manage the daemon process that watches the clipboard and owns the history.

The daemon can be:
  • Run in the foreground
  • Started in the background
  • Stopped gracefully
  • Checked for status`,
	}

	cmd.AddCommand(newDaemonRunCmd())
	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())
	return cmd
}

func newDaemonRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "run",
		Short:       "Run the daemon in the foreground",
		Annotations: map[string]string{annotationLogToFile: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx)
		},
	}
}

// runDaemon hosts the core until ctx is cancelled or a shutdown request arrives
func runDaemon(ctx context.Context) error {
	foreground := platform.NewForeground(logger.Named("foreground"))
	defer foreground.Close()

	backend := platform.NewBackend(logger.Named("clipboard"))
	d, err := daemon.New(cfg, logger, backend, daemon.WithForeground(foreground))
	if err != nil {
		return err
	}

	logger.Info("Starting mediaclip daemon",
		zap.String("version", version),
		zap.Bool("detached", platform.IsRunningAsDaemon()),
		zap.String("socket", cfg.SystemPaths.SocketPath))

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Daemon exited with error", zap.Error(err))
		return err
	}
	return nil
}

func newDaemonStartCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}

			runArgs := []string{"daemon", "run"}
			if path := cfg.SystemPaths.ActiveConfig; path != "" {
				runArgs = append(runArgs, "--config", path)
			}
			if socket := v.GetString("socket"); socket != "" {
				runArgs = append(runArgs, "--socket", socket)
			}

			outPath := filepath.Join(cfg.SystemPaths.LogDir, daemonOutputFile)
			pid, err := platform.Daemonize(exe, runArgs, cfg.SystemPaths.DataDir, outPath)
			if err != nil {
				return err
			}
			logger.Debug("Daemon process started", zap.Int("pid", pid))

			if wait <= 0 {
				printf(cmd, "Daemon started (pid %d)\n", pid)
				return nil
			}
			if err := waitForDaemon(cmd, wait); err != nil {
				return fmt.Errorf("daemon (pid %d) did not come up, see %s: %w", pid, outPath, err)
			}
			printf(cmd, "Daemon started (pid %d)\n", pid)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "wait this long for the daemon to answer (0 = don't wait)")
	return cmd
}

// waitForDaemon polls the status command until the daemon answers or timeout passes
func waitForDaemon(cmd *cobra.Command, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := callDaemon(cmd, daemon.CmdStatus, nil, nil)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := callDaemon(cmd, daemon.CmdShutdown, nil, nil); err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			printf(cmd, "Daemon stopping\n")
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status daemon.Status
			if _, err := callDaemon(cmd, daemon.CmdStatus, nil, &status); err != nil {
				return fmt.Errorf("failed to get daemon status: %w", err)
			}
			return printResult(cmd, status, func(w io.Writer) {
				fmt.Fprintf(w, "Status:   running\n")
				fmt.Fprintf(w, "PID:      %d\n", status.PID)
				fmt.Fprintf(w, "Uptime:   %s\n", status.Uptime)
				fmt.Fprintf(w, "Entries:  %d (%d captured this run)\n", status.Entries, status.Captured)
				fmt.Fprintf(w, "Interval: %s\n", status.PollingInterval)
				fmt.Fprintf(w, "Data:     %s\n", status.DataDir)
				fmt.Fprintf(w, "Socket:   %s\n", status.SocketPath)
				fmt.Fprintf(w, "Config:   %s\n", status.ConfigPath)
			})
		},
	}
}

// pingDaemon reports whether a daemon answers on the configured socket
func pingDaemon(cmd *cobra.Command) bool {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Second)
	defer cancel()
	_, err := ipc.Call(ctx, cfg.SystemPaths.SocketPath, daemon.CmdStatus, nil, nil)
	return err == nil
}
