package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LockFileName is created in the data directory by the running daemon
const LockFileName = "mediaclip.lock"

// ErrAlreadyRunning is returned when another process holds the lock
var ErrAlreadyRunning = errors.New("another mediaclip daemon is already running")

// InstanceLock is an exclusive advisory lock on the data directory
type InstanceLock struct {
	file *os.File
	path string
}

// AcquireLock takes the single-instance lock in dir and records our pid in it
func AcquireLock(dir string) (*InstanceLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dir, LockFileName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		if pid, perr := ReadLockPID(dir); perr == nil {
			return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		return nil, ErrAlreadyRunning
	}

	if err := f.Truncate(0); err == nil {
		f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}
	return &InstanceLock{file: f, path: path}, nil
}

// Release drops the lock and removes the lock file
func (l *InstanceLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	os.Remove(l.path)
	unlockFile(l.file)
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadLockPID returns the pid recorded in dir's lock file
func ReadLockPID(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, LockFileName))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in lock file: %w", err)
	}
	return pid, nil
}
