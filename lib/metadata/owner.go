// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"os/user"
	"strconv"
	"sync"
)

var (
	ownerCacheMu sync.Mutex
	userNames    = map[uint32]string{}
	groupNames   = map[uint32]string{}
)

// lookupOwner resolves numeric IDs to names, caching results
// (including misses) for the life of the process.
func lookupOwner(uid, gid uint32) (string, string) {
	ownerCacheMu.Lock()
	defer ownerCacheMu.Unlock()

	userName, ok := userNames[uid]
	if !ok {
		if found, err := user.LookupId(strconv.FormatUint(uint64(uid), 10)); err == nil {
			userName = found.Username
		}
		userNames[uid] = userName
	}
	groupName, ok := groupNames[gid]
	if !ok {
		if found, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10)); err == nil {
			groupName = found.Name
		}
		groupNames[gid] = groupName
	}
	return userName, groupName
}
