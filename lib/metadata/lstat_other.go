// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package metadata

import (
	"fmt"
	"os"
)

// FromPath captures the portable attributes of path without
// following a final symlink.
func FromPath(path string) (*Record, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("lstat %s: %w", path, err)
	}
	var target string
	if info.Mode()&os.ModeSymlink != 0 {
		target, err = os.Readlink(path)
		if err != nil {
			return nil, fmt.Errorf("readlink %s: %w", path, err)
		}
	}
	return FromFileInfo(info, target), nil
}
