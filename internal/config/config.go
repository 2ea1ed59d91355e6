package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/workboard/internal/timeline"
	"github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"
)

type StorageBackend string

const (
	StorageBackendSQLite StorageBackend = "sqlite"
	StorageBackendDiskv  StorageBackend = "diskv"
)

type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Timeline TimelineConfig `toml:"timeline"`
	UI       UIConfig       `toml:"ui"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
}

type StorageConfig struct {
	Backend  StorageBackend `toml:"backend"`
	Path     string         `toml:"path"`
	DiskvDir string         `toml:"diskv_dir"`
	Key      string         `toml:"key"`
}

type TimelineConfig struct {
	DefaultZoom     string `toml:"default_zoom"`
	LookbackMonths  int    `toml:"lookback_months"`
	LookaheadMonths int    `toml:"lookahead_months"`
	MinBarWidth     int    `toml:"min_bar_width"`
}

type UIConfig struct {
	ToastMS      int `toml:"toast_ms"`
	PanelCloseMS int `toml:"panel_close_ms"`
}

type LoggingConfig struct {
	Level   string `toml:"level"`
	DevFile bool   `toml:"dev_file"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// Default returns the built-in configuration rooted at the resolved storage paths.
func Default(dbPath, diskvDir string) Config {
	return Config{
		Storage: StorageConfig{
			Backend:  StorageBackendSQLite,
			Path:     dbPath,
			DiskvDir: diskvDir,
			Key:      "workboard.work-orders",
		},
		Timeline: TimelineConfig{
			DefaultZoom:     string(timeline.ZoomMonth),
			LookbackMonths:  timeline.DefaultWindowMonths,
			LookaheadMonths: timeline.DefaultWindowMonths,
			MinBarWidth:     timeline.DefaultMinBarWidth,
		},
		UI: UIConfig{
			ToastMS:      4000,
			PanelCloseMS: 250,
		},
		Logging: LoggingConfig{
			Level:   "info",
			DevFile: true,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if cfg.Storage.Path, err = expandPath(cfg.Storage.Path); err != nil {
		return Config{}, fmt.Errorf("storage.path: %w", err)
	}
	if cfg.Storage.DiskvDir, err = expandPath(cfg.Storage.DiskvDir); err != nil {
		return Config{}, fmt.Errorf("storage.diskv_dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch StorageBackend(strings.TrimSpace(strings.ToLower(string(c.Storage.Backend)))) {
	case StorageBackendSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path is required for the sqlite backend")
		}
	case StorageBackendDiskv:
		if strings.TrimSpace(c.Storage.DiskvDir) == "" {
			return errors.New("storage.diskv_dir is required for the diskv backend")
		}
	default:
		return fmt.Errorf("invalid storage.backend: %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}

	if _, err := timeline.ParseZoom(c.Timeline.DefaultZoom); err != nil {
		return fmt.Errorf("invalid timeline.default_zoom: %q", c.Timeline.DefaultZoom)
	}
	if c.Timeline.LookbackMonths < 1 || c.Timeline.LookaheadMonths < 1 {
		return errors.New("timeline.lookback_months and timeline.lookahead_months must be >= 1")
	}
	if c.Timeline.LookbackMonths > timeline.MaxWindowMonths || c.Timeline.LookaheadMonths > timeline.MaxWindowMonths {
		return fmt.Errorf("timeline.lookback_months and timeline.lookahead_months must be <= %d", timeline.MaxWindowMonths)
	}
	if c.Timeline.MinBarWidth < 1 {
		return errors.New("timeline.min_bar_width must be >= 1")
	}

	if c.UI.ToastMS < 0 {
		return errors.New("ui.toast_ms must be >= 0")
	}
	if c.UI.PanelCloseMS < 0 {
		return errors.New("ui.panel_close_ms must be >= 0")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	return nil
}

// Backend returns the normalized storage backend.
func (c Config) Backend() StorageBackend {
	return StorageBackend(strings.TrimSpace(strings.ToLower(string(c.Storage.Backend))))
}

// Zoom returns the configured default zoom, falling back to month.
func (c Config) Zoom() timeline.Zoom {
	zoom, err := timeline.ParseZoom(c.Timeline.DefaultZoom)
	if err != nil {
		return timeline.ZoomMonth
	}
	return zoom
}

// GridOptions returns the configured board window.
func (c Config) GridOptions() timeline.GridOptions {
	return timeline.GridOptions{
		LookbackMonths:  c.Timeline.LookbackMonths,
		LookaheadMonths: c.Timeline.LookaheadMonths,
	}
}

// ToastDuration returns how long a toast stays visible.
func (c Config) ToastDuration() time.Duration {
	return time.Duration(c.UI.ToastMS) * time.Millisecond
}

// PanelCloseDelay returns the details panel close animation delay.
func (c Config) PanelCloseDelay() time.Duration {
	return time.Duration(c.UI.PanelCloseMS) * time.Millisecond
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// expandPath resolves a leading ~ to the user's home directory.
func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	return homedir.Expand(path)
}
