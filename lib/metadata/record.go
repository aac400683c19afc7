// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"io/fs"
	"time"
)

// Record holds the attributes captured for one filesystem entry.
// Times are Unix nanoseconds. Mode uses the POSIX encoding (type bits
// in 0o170000, permission bits below).
type Record struct {
	Mode  uint32 `cbor:"mode"`
	UID   uint32 `cbor:"uid"`
	GID   uint32 `cbor:"gid"`
	User  string `cbor:"user,omitempty"`
	Group string `cbor:"group,omitempty"`
	Size  int64  `cbor:"size"`
	Atime int64  `cbor:"atime"`
	Mtime int64  `cbor:"mtime"`
	Ctime int64  `cbor:"ctime"`

	SymlinkTarget string `cbor:"symlink_target,omitempty"`
}

// POSIX file type bits.
const (
	typeMask    uint32 = 0o170000
	typeDir     uint32 = 0o040000
	typeRegular uint32 = 0o100000
	typeSymlink uint32 = 0o120000
	typeFIFO    uint32 = 0o010000
	typeSocket  uint32 = 0o140000
	typeChar    uint32 = 0o020000
	typeBlock   uint32 = 0o060000
)

// IsDir reports whether the record describes a directory.
func (r *Record) IsDir() bool { return r.Mode&typeMask == typeDir }

// IsSymlink reports whether the record describes a symlink.
func (r *Record) IsSymlink() bool { return r.Mode&typeMask == typeSymlink }

// IsRegular reports whether the record describes a regular file.
func (r *Record) IsRegular() bool { return r.Mode&typeMask == typeRegular }

// Permissions returns the permission bits including setuid, setgid,
// and sticky.
func (r *Record) Permissions() uint32 { return r.Mode & 0o7777 }

// ModTime returns Mtime as a time.Time.
func (r *Record) ModTime() time.Time { return time.Unix(0, r.Mtime) }

// AccessTime returns Atime as a time.Time.
func (r *Record) AccessTime() time.Time { return time.Unix(0, r.Atime) }

// ChangeTime returns Ctime as a time.Time.
func (r *Record) ChangeTime() time.Time { return time.Unix(0, r.Ctime) }

// FileMode converts Mode to an fs.FileMode.
func (r *Record) FileMode() fs.FileMode { return FileMode(r.Mode) }

// FileMode converts a POSIX mode, as stored in trees and records, to
// an fs.FileMode.
func FileMode(unixMode uint32) fs.FileMode {
	mode := fs.FileMode(unixMode & 0o777)
	if unixMode&0o4000 != 0 {
		mode |= fs.ModeSetuid
	}
	if unixMode&0o2000 != 0 {
		mode |= fs.ModeSetgid
	}
	if unixMode&0o1000 != 0 {
		mode |= fs.ModeSticky
	}
	switch unixMode & typeMask {
	case typeDir:
		mode |= fs.ModeDir
	case typeSymlink:
		mode |= fs.ModeSymlink
	case typeFIFO:
		mode |= fs.ModeNamedPipe
	case typeSocket:
		mode |= fs.ModeSocket
	case typeChar:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case typeBlock:
		mode |= fs.ModeDevice
	}
	return mode
}

// UnixMode converts an fs.FileMode to the POSIX encoding used in
// [Record.Mode].
func UnixMode(mode fs.FileMode) uint32 {
	unixMode := uint32(mode.Perm())
	if mode&fs.ModeSetuid != 0 {
		unixMode |= 0o4000
	}
	if mode&fs.ModeSetgid != 0 {
		unixMode |= 0o2000
	}
	if mode&fs.ModeSticky != 0 {
		unixMode |= 0o1000
	}
	switch {
	case mode.IsDir():
		unixMode |= typeDir
	case mode&fs.ModeSymlink != 0:
		unixMode |= typeSymlink
	case mode&fs.ModeNamedPipe != 0:
		unixMode |= typeFIFO
	case mode&fs.ModeSocket != 0:
		unixMode |= typeSocket
	case mode&fs.ModeCharDevice != 0:
		unixMode |= typeChar
	case mode&fs.ModeDevice != 0:
		unixMode |= typeBlock
	default:
		unixMode |= typeRegular
	}
	return unixMode
}

// FromFileInfo builds a record from portable fs.FileInfo fields only:
// mode, size, and modification time. Ownership and the other
// timestamps are left zero. linkTarget is recorded for symlinks.
func FromFileInfo(info fs.FileInfo, linkTarget string) *Record {
	record := &Record{
		Mode:  UnixMode(info.Mode()),
		Size:  info.Size(),
		Mtime: info.ModTime().UnixNano(),
	}
	record.Atime = record.Mtime
	record.Ctime = record.Mtime
	if record.IsSymlink() {
		record.SymlinkTarget = linkTarget
	}
	if record.IsDir() {
		record.Size = 0
	}
	return record
}
