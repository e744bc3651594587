// File: internal/config/paths.go

package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Overridable in tests
var (
	getConfigPath     = defaultConfigPath
	getDefaultDataDir = defaultDataDir
)

// GetConfigPaths returns the platform default locations
func GetConfigPaths() (*ConfigPaths, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	dataDir, err := getDefaultDataDir()
	if err != nil {
		return nil, err
	}

	return &ConfigPaths{
		BaseDir:      filepath.Dir(configPath),
		ActiveConfig: configPath,
		DataDir:      dataDir,
		LogDir:       filepath.Join(dataDir, "logs"),
		SocketPath:   defaultSocketPath(dataDir),
	}, nil
}

// DefaultConfigPath returns the config file location used when none is given
func DefaultConfigPath() (string, error) {
	return getConfigPath()
}

func defaultConfigPath() (string, error) {
	if path := os.Getenv("MEDIACLIP_CONFIG"); path != "" {
		return path, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(configDir, "MediaClip", "config.yaml"), nil
	case "darwin":
		return filepath.Join(configDir, "com.berrythewa.mediaclip", "config.yaml"), nil
	default:
		return filepath.Join(configDir, "mediaclip", "config.yaml"), nil
	}
}

func defaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "windows":
		if appData, err := os.UserConfigDir(); err == nil {
			return filepath.Join(appData, "MediaClip", "Data"), nil
		}
		return filepath.Join(homeDir, "AppData", "Local", "MediaClip"), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "MediaClip"), nil
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			return filepath.Join(xdgDataHome, "mediaclip"), nil
		}
		return filepath.Join(homeDir, ".local", "share", "mediaclip"), nil
	}
}

func defaultSocketPath(dataDir string) string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "mediaclip.sock")
	}
	return filepath.Join(dataDir, "mediaclip.sock")
}
