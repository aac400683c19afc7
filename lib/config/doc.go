// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for snapvfs.
//
// Configuration is loaded from a single file specified by either the
// SNAPVFS_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no ~/.config discovery and no automatic
// file search. Without a file the command runs on [Default].
//
// Variable expansion is performed on the store path after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Store, VFS, Mount, Log
//   - [Default] -- returns a Config with defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other snapvfs packages.
package config
