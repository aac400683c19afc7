// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
	"strings"
)

// Lresolve walks path from n without dereferencing a trailing
// symlink, like lstat. Symlinks in the middle of the path are
// followed. An absolute path starts from [Node.Top].
func (n *Node) Lresolve(path string) (*Node, error) {
	return n.lresolve(path, false, 0)
}

// LresolveWithin is [Node.Lresolve] except that an absolute path
// starts from [Node.FSTop], so "/" means the top of the snapshot.
func (n *Node) LresolveWithin(path string) (*Node, error) {
	return n.lresolve(path, true, 0)
}

// Resolve walks path from n and dereferences a trailing symlink, like
// stat.
func (n *Node) Resolve(path string) (*Node, error) {
	node, err := n.lresolve(path, false, 0)
	if err != nil {
		return nil, err
	}
	return node.lresolve(".", false, 0)
}

// TryResolve is [Node.Resolve] except that a trailing symlink whose
// target does not exist is returned as-is instead of failing. Errors
// before the trailing symlink still fail.
func (n *Node) TryResolve(path string) (*Node, error) {
	node, err := n.lresolve(path, false, 0)
	if err != nil {
		return nil, err
	}
	resolved, err := node.lresolve(".", false, 0)
	if errors.Is(err, ErrNoSuchFile) {
		return node, nil
	}
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Dereference returns the node a symlink points at. The target is
// resolved from the symlink's directory, with absolute targets
// starting at the top of the snapshot.
func (n *Node) Dereference() (*Node, error) {
	if !n.IsSymlink() {
		return nil, fmt.Errorf("dereference %s: not a symlink: %w", n.FullName(), ErrInvalid)
	}
	return n.dereference(0)
}

// dereference resolves one symlink hop. depth counts the hops already
// taken by the enclosing resolution.
func (n *Node) dereference(depth int) (*Node, error) {
	if depth >= maxSymlinkDepth {
		return nil, fmt.Errorf("%s: %w", n.FullName(), ErrTooManySymlinks)
	}
	target, err := n.Readlink()
	if err != nil {
		return nil, err
	}
	if n.parent == nil {
		return nil, fmt.Errorf("%s: symlink has no parent directory: %w", n.FullName(), ErrNoSuchFile)
	}
	resolved, err := n.parent.lresolve(target, true, depth+1)
	if errors.Is(err, ErrNoSuchFile) {
		return nil, fmt.Errorf("%s: broken symlink to %q: %w", n.FullName(), target, ErrNoSuchFile)
	}
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (n *Node) lresolve(path string, stayInside bool, depth int) (*Node, error) {
	if path == "" {
		return n, nil
	}
	start := n
	if strings.HasPrefix(path, "/") {
		if stayInside {
			start = n.FSTop()
		} else {
			start = n.Top()
		}
	}
	return start.walk(splitPath(path), depth)
}

// splitPath splits a path into components. Repeated slashes collapse,
// and a trailing slash becomes a trailing ".".
func splitPath(path string) []string {
	trimmed := strings.TrimLeft(path, "/")
	if trimmed == "" {
		return []string{"."}
	}
	raw := strings.Split(trimmed, "/")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if strings.HasSuffix(trimmed, "/") {
		parts = append(parts, ".")
	}
	return parts
}

// walk consumes parts starting at n. A symlink reached with parts
// still to consume is dereferenced first; each hop adds one to depth
// for the rest of the walk.
func (n *Node) walk(parts []string, depth int) (*Node, error) {
	current := n
	for len(parts) > 0 {
		if current.IsSymlink() {
			target, err := current.dereference(depth)
			if err != nil {
				return nil, err
			}
			current = target
			depth++
			continue
		}

		part := parts[0]
		parts = parts[1:]
		switch part {
		case ".":
		case "..":
			if current.parent == nil {
				return nil, fmt.Errorf("no parent directory for %s: %w", current.FullName(), ErrNoSuchFile)
			}
			current = current.parent
		default:
			child, err := current.Child(part)
			if err != nil {
				return nil, err
			}
			current = child
		}
	}
	return current, nil
}
