// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/config"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
	"github.com/bureau-foundation/snapvfs/lib/vfs"
)

// globalFlags override fields of the loaded configuration. Empty
// values leave the configuration alone.
type globalFlags struct {
	configPath string
	storePath  string
	backend    string
	logLevel   string
}

func (g *globalFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&g.configPath, "config", "", "config file (default $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&g.storePath, "store", "", "object store directory")
	flagSet.StringVar(&g.backend, "backend", "", "store backend: disk, badger, or memory")
	flagSet.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, or error")
}

// loadConfig reads the config file named by --config or the
// environment, falling back to defaults, then applies flag overrides.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case g.configPath != "":
		cfg, err = config.LoadFile(g.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if g.storePath != "" {
		cfg.Store.Path = g.storePath
	}
	if g.backend != "" {
		cfg.Store.Backend = g.backend
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// session is an open store plus the VFS root over it.
type session struct {
	config *config.Config
	logger *slog.Logger
	repo   *objstore.Repository
	root   *vfs.Node
}

// open loads configuration and opens the store for one command.
// Callers must Close the session.
func (a *app) open(command string) (*session, error) {
	cfg, err := a.globals.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.NewCommandLogger(cfg.LogLevel()).With("command", command)

	compression, err := objstore.ParseCompression(cfg.Store.Compression)
	if err != nil {
		return nil, err
	}
	repo, err := objstore.Open(objstore.OpenOptions{
		Backend:     cfg.Store.Backend,
		Path:        cfg.Store.Path,
		Compression: compression,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	location, err := cfg.Location()
	if err != nil {
		repo.Close()
		return nil, err
	}
	logger.Debug("store opened", "backend", cfg.Store.Backend, "path", cfg.Store.Path)

	return &session{
		config: cfg,
		logger: logger,
		repo:   repo,
		root:   vfs.New(repo, vfs.Options{Location: location, Logger: logger}),
	}, nil
}

func (s *session) Close() error {
	return s.repo.Close()
}
