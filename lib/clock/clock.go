// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the current time for testability. Production code
// injects Real(); tests inject Fake() with a controlled time.
//
// Code that stamps objects with a time (snapshot commits, for
// example) should take a Clock instead of calling time.Now directly,
// so that tests produce stable commit IDs and snapshot names.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
