package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/shellgate/assets"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/pkg/filesystem"
	"github.com/doeshing/shellgate/internal/ports"
)

// EnvConfigPath overrides the config location.
const EnvConfigPath = "SHELLGATE_CONFIG"

// FileLoader loads YAML configuration from $XDG_CONFIG_HOME/shellgate/config.yaml
// (overridable via SHELLGATE_CONFIG or an explicit path).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path uses the default resolution.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created from the
// embedded defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, err
		}
		if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
			return domain.Config{}, fmt.Errorf("write default config: %w", err)
		}
		data = assets.DefaultConfigYAML
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return hydrateDefaults(cfg), nil
}

// Save writes cfg back to the resolved path.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// Backup copies the current file next to itself and returns the copy's path.
func (l *FileLoader) Backup() (string, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	dest := fmt.Sprintf("%s.%s.bak", path, time.Now().UTC().Format("20060102T150405"))
	if err := os.WriteFile(dest, data, domain.SecureFilePermissions); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dest, nil
}

// Path returns the file Load reads.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(xdg.ConfigHome, "shellgate", "config.yaml")
}

// DefaultTrackingPath is where the SQLite tracker lives unless configured.
func DefaultTrackingPath() string {
	return filepath.Join(xdg.DataHome, "shellgate", "operations.db")
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

// DefaultConfig returns the embedded defaults as Load would return them.
func DefaultConfig() domain.Config {
	return hydrateDefaults(defaultConfig())
}

func defaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	defaults := defaultConfig()
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = defaults.ConfigFormatVersion
	}
	if cfg.Tracking.Backend == "" {
		cfg.Tracking.Backend = defaults.Tracking.Backend
	}
	if cfg.Tracking.Path == "" {
		cfg.Tracking.Path = DefaultTrackingPath()
	} else {
		cfg.Tracking.Path = filesystem.ExpandPath(cfg.Tracking.Path)
	}
	if cfg.Tracking.RetentionDays == 0 {
		cfg.Tracking.RetentionDays = defaults.Tracking.RetentionDays
	}
	if cfg.Repository.MaxFileSize == 0 {
		cfg.Repository.MaxFileSize = defaults.Repository.MaxFileSize
	}
	if len(cfg.Repository.IgnoreDirs) == 0 {
		cfg.Repository.IgnoreDirs = defaults.Repository.IgnoreDirs
	}
	if cfg.Session.UserID == "" {
		cfg.Session.UserID = defaults.Session.UserID
	}
	if cfg.Session.MaxContextFiles == 0 {
		cfg.Session.MaxContextFiles = defaults.Session.MaxContextFiles
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
	if cfg.Rules.File != "" {
		cfg.Rules.File = filesystem.ExpandPath(cfg.Rules.File)
	}
	return cfg
}


var _ ports.ConfigProvider = (*FileLoader)(nil)
