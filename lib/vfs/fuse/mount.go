// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sync"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/snapvfs/lib/objstore"
	"github.com/bureau-foundation/snapvfs/lib/vfs"
)

// DefaultReleaseAfter is the number of lookups between releases of
// the root's caches.
const DefaultReleaseAfter = 100000

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	Mountpoint string

	// Root is the tree to expose, usually from [vfs.New].
	Root *vfs.Node

	// Meta reports recorded metadata (permissions, ownership, and
	// times) for nodes that have it.
	Meta bool

	// UID and GID, when set, override the reported owner of every
	// node.
	UID *uint32
	GID *uint32

	// AllowOther permits other users (including root) to access
	// the mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// ReleaseAfter is the number of lookups after which the root's
	// caches are released. Zero uses DefaultReleaseAfter; negative
	// disables releasing.
	ReleaseAfter int

	// Logger receives diagnostic messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Mount mounts the tree at the configured mountpoint. The caller must
// call Unmount on the returned Server when done. The mountpoint
// directory is created if it does not exist.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Root == nil {
		return nil, fmt.Errorf("root is required")
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	filesystem := newFilesystem(&options)
	root := &node{filesystem: filesystem, path: "/"}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "snapvfs",
			Name:       "snapvfs",
			AllowOther: options.AllowOther,
			Options:    []string{"ro"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	filesystem.logger.Info("snapshot filesystem mounted",
		"mountpoint", options.Mountpoint,
		"meta", options.Meta,
	)
	return server, nil
}

// filesystem serializes access to the VFS shared by all inodes.
type filesystem struct {
	mu      sync.Mutex
	root    *vfs.Node
	options *Options
	logger  *slog.Logger

	// lookups counts resolutions since the last release.
	lookups int
}

func newFilesystem(options *Options) *filesystem {
	if options.ReleaseAfter == 0 {
		options.ReleaseAfter = DefaultReleaseAfter
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}
	return &filesystem{root: options.Root, options: options, logger: logger}
}

// resolve returns the VFS node at fusePath without following a final
// symlink. The caller holds mu.
func (f *filesystem) resolve(fusePath string) (*vfs.Node, error) {
	f.lookups++
	if f.options.ReleaseAfter > 0 && f.lookups > f.options.ReleaseAfter {
		f.logger.Debug("releasing VFS caches", "lookups", f.lookups-1, "cached", f.root.CacheLen())
		f.root.Release()
		f.lookups = 1
	}
	return f.root.Lresolve(fusePath)
}

// errno maps VFS and store errors to FUSE status codes.
func (f *filesystem) errno(operation, fusePath string, err error) syscall.Errno {
	code := errnoFor(err)
	if code == syscall.EIO {
		f.logger.Error("filesystem operation failed",
			"operation", operation,
			"path", fusePath,
			"error", err,
		)
	}
	return code
}

func errnoFor(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, vfs.ErrNoSuchFile):
		return syscall.ENOENT
	case errors.Is(err, vfs.ErrNotDir):
		return syscall.ENOTDIR
	case errors.Is(err, vfs.ErrNotFile):
		return syscall.EISDIR
	case errors.Is(err, vfs.ErrTooManySymlinks):
		return syscall.ELOOP
	case errors.Is(err, vfs.ErrInvalid):
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}

// typeBits returns the S_IF* type of a node.
func typeBits(vnode *vfs.Node) uint32 {
	switch {
	case vnode.IsDir():
		return syscall.S_IFDIR
	case vnode.IsSymlink():
		return syscall.S_IFLNK
	default:
		return syscall.S_IFREG
	}
}

// fillAttr sets attr from vnode. The caller holds mu.
func (f *filesystem) fillAttr(vnode *vfs.Node, attr *fuse.Attr) error {
	size, err := vnode.Size()
	if err != nil {
		return err
	}
	kind := typeBits(vnode)
	perm := vnode.Mode() & 0o7777
	if perm == 0 {
		switch kind {
		case syscall.S_IFDIR:
			perm = 0o755
		case syscall.S_IFLNK:
			perm = 0o777
		default:
			perm = 0o644
		}
	}

	attr.Mode = kind | perm
	attr.Size = uint64(size)
	attr.Blocks = (attr.Size + 511) / 512
	attr.Blksize = objstore.TargetChunkSize
	attr.Nlink = uint32(vnode.NLinks())
	atime, mtime, ctime := vnode.AccessTime(), vnode.ModTime(), vnode.ChangeTime()

	if f.options.Meta {
		record, err := vnode.Metadata()
		if err != nil {
			return err
		}
		if record != nil {
			attr.Mode = kind | record.Permissions()
			attr.Uid = record.UID
			attr.Gid = record.GID
			atime, mtime, ctime = record.AccessTime(), record.ModTime(), record.ChangeTime()
		}
	}
	attr.SetTimes(&atime, &mtime, &ctime)

	if f.options.UID != nil {
		attr.Uid = *f.options.UID
	}
	if f.options.GID != nil {
		attr.Gid = *f.options.GID
	}
	return nil
}

// node is an inode for one VFS path.
type node struct {
	gofuse.Inode
	filesystem *filesystem
	path       string
}

var _ gofuse.InodeEmbedder = (*node)(nil)
var _ gofuse.NodeLookuper = (*node)(nil)
var _ gofuse.NodeReaddirer = (*node)(nil)
var _ gofuse.NodeGetattrer = (*node)(nil)
var _ gofuse.NodeReadlinker = (*node)(nil)
var _ gofuse.NodeOpener = (*node)(nil)

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	f := n.filesystem
	f.mu.Lock()
	defer f.mu.Unlock()

	childPath := path.Join(n.path, name)
	vnode, err := f.resolve(childPath)
	if err != nil {
		return nil, f.errno("lookup", childPath, err)
	}
	if err := f.fillAttr(vnode, &out.Attr); err != nil {
		return nil, f.errno("lookup", childPath, err)
	}
	child := &node{filesystem: f, path: childPath}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: typeBits(vnode)}), 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	f := n.filesystem
	f.mu.Lock()
	defer f.mu.Unlock()

	vnode, err := f.resolve(n.path)
	if err != nil {
		return nil, f.errno("readdir", n.path, err)
	}
	entries, err := vnode.Entries()
	if err != nil {
		return nil, f.errno("readdir", n.path, err)
	}
	dirEntries := make([]fuse.DirEntry, 0, len(entries))
	for _, entry := range entries {
		dirEntries = append(dirEntries, fuse.DirEntry{
			Name: entry.Name,
			Mode: typeBits(entry.Node),
		})
	}
	return gofuse.NewListDirStream(dirEntries), 0
}

func (n *node) Getattr(ctx context.Context, fh gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	f := n.filesystem
	f.mu.Lock()
	defer f.mu.Unlock()

	vnode, err := f.resolve(n.path)
	if err != nil {
		return f.errno("getattr", n.path, err)
	}
	if err := f.fillAttr(vnode, &out.Attr); err != nil {
		return f.errno("getattr", n.path, err)
	}
	return 0
}

func (n *node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	f := n.filesystem
	f.mu.Lock()
	defer f.mu.Unlock()

	vnode, err := f.resolve(n.path)
	if err != nil {
		return nil, f.errno("readlink", n.path, err)
	}
	target, err := vnode.Readlink()
	if err != nil {
		return nil, f.errno("readlink", n.path, err)
	}
	return []byte(target), 0
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		return nil, 0, syscall.EROFS
	}

	f := n.filesystem
	f.mu.Lock()
	defer f.mu.Unlock()

	vnode, err := f.resolve(n.path)
	if err != nil {
		return nil, 0, f.errno("open", n.path, err)
	}
	reader, err := vnode.Open()
	if err != nil {
		return nil, 0, f.errno("open", n.path, err)
	}
	// Snapshot content is immutable, so the page cache stays valid.
	return &handle{filesystem: f, path: n.path, reader: reader}, fuse.FOPEN_KEEP_CACHE, 0
}

// handle is an open file.
type handle struct {
	filesystem *filesystem
	path       string
	reader     *vfs.FileReader
}

var _ gofuse.FileReader = (*handle)(nil)
var _ gofuse.FileReleaser = (*handle)(nil)

func (h *handle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	f := h.filesystem
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := h.reader.ReadAt(dest, off)
	if err != nil && err != io.EOF {
		return nil, f.errno("read", h.path, err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *handle) Release(ctx context.Context) syscall.Errno {
	f := h.filesystem
	f.mu.Lock()
	defer f.mu.Unlock()

	h.reader.Close()
	return 0
}
