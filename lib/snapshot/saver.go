// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/snapvfs/lib/clock"
	"github.com/bureau-foundation/snapvfs/lib/metadata"
	"github.com/bureau-foundation/snapvfs/lib/objstore"
)

// DefaultChunkThreshold is the file size above which content is
// stored as a chunk tree rather than a single blob.
const DefaultChunkThreshold = objstore.MaxChunkSize

// DefaultAuthor is the author and committer recorded when
// [Options.Author] is empty.
const DefaultAuthor = "snapvfs <snapvfs@localhost>"

// Options configures a [Saver].
type Options struct {
	// Clock stamps commits. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives progress and skip notices. Nil discards.
	Logger *slog.Logger

	// ChunkThreshold is the size above which files (and metadata
	// streams) are chunked. Zero means DefaultChunkThreshold.
	ChunkThreshold int64

	// Fanout bounds the children per chunk tree node. Zero means
	// objstore.DefaultChunkFanout.
	Fanout int

	// Author is recorded as author and committer. Empty means
	// DefaultAuthor.
	Author string
}

// Saver writes local directories into a repository as snapshots.
type Saver struct {
	repo      *objstore.Repository
	clock     clock.Clock
	logger    *slog.Logger
	threshold int64
	fanout    int
	author    string
}

// NewSaver returns a Saver writing into repo.
func NewSaver(repo *objstore.Repository, options Options) *Saver {
	saver := &Saver{
		repo:      repo,
		clock:     options.Clock,
		logger:    options.Logger,
		threshold: options.ChunkThreshold,
		fanout:    options.Fanout,
		author:    options.Author,
	}
	if saver.clock == nil {
		saver.clock = clock.Real()
	}
	if saver.logger == nil {
		saver.logger = slog.New(slog.DiscardHandler)
	}
	if saver.threshold <= 0 {
		saver.threshold = DefaultChunkThreshold
	}
	if saver.fanout == 0 {
		saver.fanout = objstore.DefaultChunkFanout
	}
	if saver.author == "" {
		saver.author = DefaultAuthor
	}
	return saver
}

// Stats counts what a save wrote.
type Stats struct {
	Directories int
	Files       int
	Symlinks    int
	Skipped     int
	Bytes       int64
	Chunked     int
}

// Save snapshots sourceDir onto branch and returns the new commit.
// The commit's parent is the branch's current tip, if any.
func (s *Saver) Save(ctx context.Context, branch, sourceDir string) (objstore.ID, error) {
	id, _, err := s.SaveWithStats(ctx, branch, sourceDir)
	return id, err
}

// SaveWithStats is [Saver.Save] that also reports what was written.
func (s *Saver) SaveWithStats(ctx context.Context, branch, sourceDir string) (objstore.ID, Stats, error) {
	var stats Stats
	refName := objstore.BranchPrefix + branch
	if err := objstore.ValidateRefName(refName); err != nil {
		return objstore.EmptyID, stats, fmt.Errorf("invalid branch %q: %w", branch, err)
	}
	if strings.Contains(branch, "/") {
		// Each branch is a single directory at the top of the tree.
		return objstore.EmptyID, stats, fmt.Errorf("invalid branch %q: must not contain '/'", branch)
	}

	info, err := os.Stat(sourceDir)
	if err != nil {
		return objstore.EmptyID, stats, fmt.Errorf("source %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return objstore.EmptyID, stats, fmt.Errorf("source %s is not a directory", sourceDir)
	}

	var parents []objstore.ID
	tip, err := s.repo.ReadRef(refName)
	switch {
	case err == nil:
		parents = []objstore.ID{tip}
	case !errors.Is(err, objstore.ErrNotFound):
		return objstore.EmptyID, stats, fmt.Errorf("reading branch %s: %w", branch, err)
	}

	tree, err := s.saveDir(ctx, sourceDir, &stats)
	if err != nil {
		return objstore.EmptyID, stats, err
	}

	now := s.clock.Now()
	_, offset := now.Zone()
	absolute, err := filepath.Abs(sourceDir)
	if err != nil {
		absolute = sourceDir
	}
	commit, err := s.repo.WriteCommit(&objstore.Commit{
		Tree:      tree,
		Parents:   parents,
		Author:    s.author,
		Committer: s.author,
		Time:      now.Unix(),
		TZOffset:  offset / 60,
		Message:   "snapvfs save " + absolute + "\n",
	})
	if err != nil {
		return objstore.EmptyID, stats, fmt.Errorf("writing commit: %w", err)
	}
	if err := s.repo.UpdateRef(refName, commit); err != nil {
		return objstore.EmptyID, stats, fmt.Errorf("updating branch %s: %w", branch, err)
	}

	s.logger.Info("snapshot saved",
		"branch", branch,
		"commit", objstore.ShortID(commit),
		"files", stats.Files,
		"directories", stats.Directories,
		"bytes", humanize.IBytes(uint64(stats.Bytes)),
		"skipped", stats.Skipped,
	)
	return commit, stats, nil
}

// saveDir writes the tree for dir and returns its ID.
func (s *Saver) saveDir(ctx context.Context, dir string, stats *Stats) (objstore.ID, error) {
	if err := ctx.Err(); err != nil {
		return objstore.EmptyID, err
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return objstore.EmptyID, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	stats.Directories++

	entries := make([]objstore.TreeEntry, 0, len(dirEntries)+1)
	var records []*metadata.Record
	for _, dirEntry := range dirEntries {
		path := filepath.Join(dir, dirEntry.Name())
		name := dirEntry.Name()

		record, err := metadata.FromPath(path)
		if isNotExist(err) {
			s.logger.Warn("entry vanished during save", "path", path)
			stats.Skipped++
			continue
		}
		if err != nil {
			return objstore.EmptyID, err
		}

		switch {
		case record.IsDir():
			id, err := s.saveDir(ctx, path, stats)
			if err != nil {
				return objstore.EmptyID, err
			}
			entries = append(entries, objstore.TreeEntry{
				Mode: objstore.ModeTree, Name: objstore.MangleName(name, false), ID: id,
			})

		case record.IsSymlink():
			id, err := s.repo.WriteBlob([]byte(record.SymlinkTarget))
			if err != nil {
				return objstore.EmptyID, fmt.Errorf("storing symlink %s: %w", path, err)
			}
			entries = append(entries, objstore.TreeEntry{
				Mode: objstore.ModeSymlink, Name: objstore.MangleName(name, false), ID: id,
			})
			records = append(records, record)
			stats.Symlinks++

		case record.IsRegular():
			entry, err := s.saveFile(path, name, record, stats)
			if err != nil {
				return objstore.EmptyID, err
			}
			entries = append(entries, entry)
			records = append(records, record)

		default:
			s.logger.Warn("skipping special file",
				"path", path,
				"mode", fmt.Sprintf("%o", record.Mode),
			)
			stats.Skipped++
		}
	}

	own, err := metadata.FromPath(dir)
	if err != nil {
		return objstore.EmptyID, err
	}
	records = append(records, own)
	stream, err := s.writeMetadataStream(records)
	if err != nil {
		return objstore.EmptyID, fmt.Errorf("metadata for %s: %w", dir, err)
	}
	entries = append(entries, stream)

	id, err := s.repo.WriteTree(entries)
	if err != nil {
		return objstore.EmptyID, fmt.Errorf("writing tree for %s: %w", dir, err)
	}
	s.logger.Debug("directory saved", "path", dir, "tree", objstore.ShortID(id), "entries", len(entries))
	return id, nil
}

func (s *Saver) saveFile(path, name string, record *metadata.Record, stats *Stats) (objstore.TreeEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return objstore.TreeEntry{}, fmt.Errorf("reading %s: %w", path, err)
	}
	// The file may have changed size since lstat.
	record.Size = int64(len(data))
	stats.Files++
	stats.Bytes += record.Size

	mode := objstore.ModeFile
	if record.Mode&0o111 != 0 {
		mode = objstore.ModeExec
	}

	if record.Size > s.threshold {
		id, err := s.repo.WriteChunks(objstore.SplitChunks(data), s.fanout)
		if err != nil {
			return objstore.TreeEntry{}, fmt.Errorf("storing %s: %w", path, err)
		}
		stats.Chunked++
		return objstore.TreeEntry{Mode: objstore.ModeTree, Name: objstore.MangleName(name, true), ID: id}, nil
	}

	id, err := s.repo.WriteBlob(data)
	if err != nil {
		return objstore.TreeEntry{}, fmt.Errorf("storing %s: %w", path, err)
	}
	return objstore.TreeEntry{Mode: mode, Name: objstore.MangleName(name, false), ID: id}, nil
}

// writeMetadataStream stores records as a ".bupm" entry. A stream
// above the chunk threshold is stored as a chunk tree and marked with
// a directory mode.
func (s *Saver) writeMetadataStream(records []*metadata.Record) (objstore.TreeEntry, error) {
	var buffer bytes.Buffer
	writer := metadata.NewWriter(&buffer)
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return objstore.TreeEntry{}, err
		}
	}
	if int64(buffer.Len()) > s.threshold {
		id, err := s.repo.WriteChunks(objstore.SplitChunks(buffer.Bytes()), s.fanout)
		if err != nil {
			return objstore.TreeEntry{}, err
		}
		return objstore.TreeEntry{Mode: objstore.ModeTree, Name: objstore.MetadataStreamName, ID: id}, nil
	}
	id, err := s.repo.WriteBlob(buffer.Bytes())
	if err != nil {
		return objstore.TreeEntry{}, err
	}
	return objstore.TreeEntry{Mode: objstore.ModeFile, Name: objstore.MetadataStreamName, ID: id}, nil
}

// isNotExist reports whether err means a path vanished during a walk.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
