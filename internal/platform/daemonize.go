package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// DaemonEnv is set in the environment of a detached daemon
const DaemonEnv = "MEDIACLIP_DAEMON"

// Daemonize starts executable with args in the background, detached from
// the current terminal, with stdout and stderr appended to logPath.
// It refuses to start when dataDir is already locked by a running daemon.
func Daemonize(executable string, args []string, dataDir, logPath string) (int, error) {
	if pid, err := ReadLockPID(dataDir); err == nil && processAlive(pid) {
		return 0, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create log directory: %w", err)
	}
	out, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open daemon output: %w", err)
	}
	defer out.Close()

	cmd := exec.Command(executable, args...)
	cmd.Env = append(os.Environ(), DaemonEnv+"=1")
	cmd.Stdout = out
	cmd.Stderr = out
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	pid := cmd.Process.Pid
	cmd.Process.Release()
	return pid, nil
}

// IsRunningAsDaemon reports whether this process was started by Daemonize
func IsRunningAsDaemon() bool {
	return os.Getenv(DaemonEnv) == "1"
}
