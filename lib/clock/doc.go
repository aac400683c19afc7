// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for testability.
//
// Production code accepts a Clock instead of calling time.Now
// directly. In production, Real() provides the standard library
// behavior. In tests, Fake() provides a clock that moves only when
// Advance or Set is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	saver := snapshot.NewSaver(repo, snapshot.Options{Clock: c})
//	saver.Save(ctx, "main", dir)   // commit at 2026-01-01 00:00:00
//	c.Advance(time.Hour)
//	saver.Save(ctx, "main", dir)   // commit one hour later
package clock
