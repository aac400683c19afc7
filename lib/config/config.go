// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when no --config flag is
// given.
const EnvironmentVariable = "SNAPVFS_CONFIG"

// Config is the configuration for the snapvfs command.
type Config struct {
	// Store configures the object store.
	Store StoreConfig `yaml:"store"`

	// VFS configures how snapshots are presented.
	VFS VFSConfig `yaml:"vfs"`

	// Mount configures the FUSE mount.
	Mount MountConfig `yaml:"mount"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// StoreConfig configures the object store.
type StoreConfig struct {
	// Backend selects the storage engine: disk, badger, or memory.
	// Default: disk
	Backend string `yaml:"backend"`

	// Path is the store directory. Ignored for the memory backend.
	// Default: ${HOME}/.local/share/snapvfs
	Path string `yaml:"path"`

	// Compression is the per-object compression policy for new
	// objects: auto, none, lz4, or zstd.
	// Default: auto
	Compression string `yaml:"compression"`
}

// VFSConfig configures how snapshots are presented.
type VFSConfig struct {
	// Timezone names snapshot directories. "Local" uses the system
	// zone; otherwise an IANA name such as "UTC" or
	// "Europe/Berlin".
	// Default: Local
	Timezone string `yaml:"timezone"`
}

// MountConfig configures the FUSE mount.
type MountConfig struct {
	// AllowOther permits other users to access the mount.
	// Default: false
	AllowOther bool `yaml:"allow_other"`

	// Meta reports recorded metadata instead of tree defaults.
	// Default: false
	Meta bool `yaml:"meta"`

	// ReleaseAfter is the number of lookups between cache
	// releases. Negative disables releasing.
	// Default: 100000
	ReleaseAfter int `yaml:"release_after"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, or error.
	// Default: warn
	Level string `yaml:"level"`
}

// Supported values for enumerated fields.
var (
	backends     = []string{"disk", "badger", "memory"}
	compressions = []string{"auto", "none", "lz4", "zstd"}
	logLevels    = []string{"debug", "info", "warn", "error"}
)

// Default returns the default configuration. These defaults are used
// as a base before loading a config file, and as the whole
// configuration when no file is given.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Store: StoreConfig{
			Backend:     "disk",
			Path:        filepath.Join(homeDir, ".local", "share", "snapvfs"),
			Compression: "auto",
		},
		VFS: VFSConfig{
			Timezone: "Local",
		},
		Mount: MountConfig{
			ReleaseAfter: 100000,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from the SNAPVFS_CONFIG environment
// variable. It fails if the variable is not set; callers that can run
// without a file use [Default] instead.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your snapvfs.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Values in
// the file override [Default]; fields the file omits keep their
// defaults. ${VAR} and ${VAR:-default} patterns in the store path are
// expanded.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${HOME} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Store.Path = expandVars(c.Store.Path, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(backends, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("store.backend must be one of: %v", backends))
	}
	if c.Store.Backend != "memory" && c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required for the %s backend", c.Store.Backend))
	}
	if !slices.Contains(compressions, c.Store.Compression) {
		errs = append(errs, fmt.Errorf("store.compression must be one of: %v", compressions))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Mount.ReleaseAfter == 0 {
		errs = append(errs, fmt.Errorf("mount.release_after must be positive, or negative to disable"))
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Location returns the time zone for snapshot names.
func (c *Config) Location() (*time.Location, error) {
	switch c.VFS.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	location, err := time.LoadLocation(c.VFS.Timezone)
	if err != nil {
		return nil, fmt.Errorf("vfs.timezone: %w", err)
	}
	return location, nil
}

// LogLevel returns the configured level. Unknown values fall back to
// warn; [Config.Validate] reports them.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelWarn
	}
	return level
}
