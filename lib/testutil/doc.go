// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for snapvfs packages.
//
// [WriteFile] creates a source file with exact permissions regardless
// of the process umask, which tests that save and restore snapshots
// rely on when they compare recorded modes.
//
// [RequireFUSE] skips a test when /dev/fuse is not available, so mount
// tests run on developer machines and are skipped in containers.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. They are the only place in
// the test suite where real wall-clock timeouts are used.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no snapvfs-internal dependencies.
package testutil
