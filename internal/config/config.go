// File: internal/config/config.go

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths holds all relevant paths for the application
type ConfigPaths struct {
	BaseDir      string `yaml:"-"` // Directory containing the config file
	ActiveConfig string `yaml:"-"` // Path to the config file
	DataDir      string `yaml:"-"` // History, snippets, assets
	LogDir       string `yaml:"-"` // Log files
	SocketPath   string `yaml:"-"` // IPC socket
}

// Config holds all application configuration
type Config struct {
	// Overrides for the platform defaults; empty means default
	DataDir    string `yaml:"data_dir"`
	SocketPath string `yaml:"socket_path"`

	// Computed at load time
	SystemPaths ConfigPaths `yaml:"-"`

	Log       LogConfig       `yaml:"log"`
	History   HistoryConfig   `yaml:"history"`
	Capture   CaptureConfig   `yaml:"capture"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`

	// Clipboard polling interval in milliseconds
	PollingInterval int64 `yaml:"polling_interval"`
}

// LogConfig holds logging-related configuration
type LogConfig struct {
	Level             string `yaml:"level"`
	Format            string `yaml:"format"` // "json" or "console"
	EnableFileLogging bool   `yaml:"enable_file_logging"`
}

// HistoryConfig controls retention and history behaviour
type HistoryConfig struct {
	MaxCount         int  `yaml:"max_count"`         // unpinned entries kept
	HandleDuplicates bool `yaml:"handle_duplicates"` // move repeated text to the front
	SortByLastUsed   bool `yaml:"sort_by_last_used"`
	DeleteAfterPaste bool `yaml:"delete_after_paste"`
}

// CaptureConfig holds the per-format capture toggles
type CaptureConfig struct {
	PlainText       bool     `yaml:"plain_text"`
	RichText        bool     `yaml:"rich_text"`
	Images          bool     `yaml:"images"`
	Filenames       bool     `yaml:"filenames"`
	SaveScreenshots bool     `yaml:"save_screenshots"`
	ExcludedApps    []string `yaml:"excluded_apps"`
	VideoExtensions []string `yaml:"video_extensions"`
	ImageExtensions []string `yaml:"image_extensions"`
}

// ThumbnailConfig holds preview generation settings
type ThumbnailConfig struct {
	MaxSize    int    `yaml:"max_size"` // longer edge in pixels
	Quality    int    `yaml:"quality"`  // JPEG quality 1-100
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	cfg := &Config{
		Log: LogConfig{
			Level:             "info",
			Format:            "json",
			EnableFileLogging: true,
		},
		History: HistoryConfig{
			MaxCount:         30,
			HandleDuplicates: true,
		},
		Capture: CaptureConfig{
			PlainText:       true,
			RichText:        true,
			Images:          true,
			Filenames:       true,
			SaveScreenshots: true,
			ExcludedApps:    []string{},
			VideoExtensions: []string{"mov", "mp4", "m4v", "avi", "mkv"},
			ImageExtensions: []string{"png", "jpg", "jpeg", "tiff", "gif", "bmp", "heic", "webp"},
		},
		Thumbnail: ThumbnailConfig{
			MaxSize:    200,
			Quality:    70,
			FFmpegPath: "ffmpeg",
		},
		PollingInterval: 500,
	}
	if paths, err := GetConfigPaths(); err == nil {
		cfg.SystemPaths = *paths
	}
	return cfg
}

// Load loads the configuration from the specified file or creates default if not exists
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		var err error
		configPath, err = getConfigPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := DefaultConfig()
			if err := cfg.Save(configPath); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			overrideFromEnv(cfg)
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			if err := cfg.resolvePaths(configPath); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so keys missing in the file keep their default value
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.resolvePaths(configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to the specified file
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects values the core cannot work with
func (c *Config) Validate() error {
	if c.History.MaxCount < 1 {
		return fmt.Errorf("history.max_count must be at least 1, got %d", c.History.MaxCount)
	}
	if c.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %d", c.PollingInterval)
	}
	if c.Thumbnail.MaxSize <= 0 {
		return fmt.Errorf("thumbnail.max_size must be positive, got %d", c.Thumbnail.MaxSize)
	}
	if c.Thumbnail.Quality < 1 || c.Thumbnail.Quality > 100 {
		return fmt.Errorf("thumbnail.quality must be within 1-100, got %d", c.Thumbnail.Quality)
	}
	return nil
}

// PollInterval returns the polling interval as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollingInterval) * time.Millisecond
}

// IsExcluded reports whether the application identifier is on the exclusion list
func (c CaptureConfig) IsExcluded(appID string) bool {
	if appID == "" {
		return false
	}
	for _, excluded := range c.ExcludedApps {
		if strings.EqualFold(excluded, appID) {
			return true
		}
	}
	return false
}

// resolvePaths fills SystemPaths from the config location and overrides
func (c *Config) resolvePaths(configPath string) error {
	paths, err := GetConfigPaths()
	if err != nil {
		return err
	}
	paths.ActiveConfig = configPath
	paths.BaseDir = filepath.Dir(configPath)

	if c.DataDir != "" {
		paths.DataDir = c.DataDir
		paths.LogDir = filepath.Join(c.DataDir, "logs")
		paths.SocketPath = filepath.Join(c.DataDir, "mediaclip.sock")
	}
	if c.SocketPath != "" {
		paths.SocketPath = c.SocketPath
	}
	c.SystemPaths = *paths
	return nil
}

// EnsureDirs creates the data and log directories
func (p ConfigPaths) EnsureDirs() error {
	for _, dir := range []string{p.DataDir, p.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// overrideFromEnv overrides configuration values from environment variables
func overrideFromEnv(config *Config) {
	if val := os.Getenv("MEDIACLIP_DATA_DIR"); val != "" {
		config.DataDir = val
	}
	if val := os.Getenv("MEDIACLIP_SOCKET"); val != "" {
		config.SocketPath = val
	}
	if val := os.Getenv("MEDIACLIP_LOG_LEVEL"); val != "" {
		config.Log.Level = val
	}
	if val := os.Getenv("MEDIACLIP_MAX_HISTORY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.History.MaxCount = n
		}
	}
	if val := os.Getenv("MEDIACLIP_HANDLE_DUPLICATES"); val != "" {
		config.History.HandleDuplicates = val == "true"
	}
	if val := os.Getenv("MEDIACLIP_POLLING_INTERVAL"); val != "" {
		if ms, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.PollingInterval = ms
		}
	}
	if val := os.Getenv("MEDIACLIP_EXCLUDED_APPS"); val != "" {
		var apps []string
		for _, app := range strings.Split(val, ",") {
			if app = strings.TrimSpace(app); app != "" {
				apps = append(apps, app)
			}
		}
		config.Capture.ExcludedApps = apps
	}
}
