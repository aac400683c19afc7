// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/snapvfs/cmd/snapvfs/cli"
	"github.com/bureau-foundation/snapvfs/lib/clock"
	"github.com/bureau-foundation/snapvfs/lib/config"
	"github.com/bureau-foundation/snapvfs/lib/testutil"
)

var firstSave = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const (
	firstSnapshot  = "2025-06-01-120000"
	secondSnapshot = "2025-06-01-130000"
)

// harness runs commands against a disk store in a temp directory,
// configured through a config file with UTC snapshot names.
type harness struct {
	t          *testing.T
	source     string
	configPath string
	clock      *clock.FakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")

	dir := t.TempDir()
	configPath := filepath.Join(dir, "snapvfs.yaml")
	configText := "store:\n" +
		"  backend: disk\n" +
		"  path: " + filepath.Join(dir, "store") + "\n" +
		"vfs:\n" +
		"  timezone: UTC\n" +
		"log:\n" +
		"  level: error\n"
	if err := os.WriteFile(configPath, []byte(configText), 0o644); err != nil {
		t.Fatal(err)
	}

	source := filepath.Join(dir, "source")
	testutil.WriteFile(t, filepath.Join(source, "hello.txt"), "hello\n", 0o644)
	testutil.WriteFile(t, filepath.Join(source, "run.sh"), "#!/bin/sh\n", 0o755)
	testutil.WriteFile(t, filepath.Join(source, "docs", "readme.md"), "# docs\n", 0o640)
	if err := os.Symlink("hello.txt", filepath.Join(source, "link")); err != nil {
		t.Fatal(err)
	}

	return &harness{
		t:          t,
		source:     source,
		configPath: configPath,
		clock:      clock.Fake(firstSave),
	}
}

// run executes one command with the harness config and returns its
// stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var stdout bytes.Buffer
	args = append(args, "--config", h.configPath)
	err := newApp(&stdout, h.clock).root().Execute(args)
	return stdout.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	output, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("snapvfs %s: %v", strings.Join(args, " "), err)
	}
	return output
}

func (h *harness) save() string {
	h.t.Helper()
	return h.mustRun("save", "--branch", "main", h.source)
}

func TestSaveThenList(t *testing.T) {
	h := newHarness(t)

	output := h.save()
	if !strings.HasSuffix(output, " /main/"+firstSnapshot+"\n") {
		t.Errorf("save output = %q, want the snapshot path", output)
	}

	if got := h.mustRun("ls"); got != "main\n" {
		t.Errorf("ls = %q, want %q", got, "main\n")
	}
	if got := h.mustRun("ls", "-a", "/"); got != ".tag\nmain\n" {
		t.Errorf("ls -a / = %q", got)
	}
	if got, want := h.mustRun("ls", "/main"), firstSnapshot+"\nlatest\n"; got != want {
		t.Errorf("ls /main = %q, want %q", got, want)
	}
	if got, want := h.mustRun("ls", "/main/latest"), "docs\nhello.txt\nlink\nrun.sh\n"; got != want {
		t.Errorf("ls /main/latest = %q, want %q", got, want)
	}
	if got := h.mustRun("ls", "/main/latest/hello.txt"); got != "hello.txt\n" {
		t.Errorf("ls of a file = %q", got)
	}
}

func TestListMultiplePaths(t *testing.T) {
	h := newHarness(t)
	h.save()

	got := h.mustRun("ls", "/main/latest/docs", "/main")
	want := "/main/latest/docs:\nreadme.md\n\n/main:\n" + firstSnapshot + "\nlatest\n"
	if got != want {
		t.Errorf("ls = %q, want %q", got, want)
	}
}

func TestListLong(t *testing.T) {
	h := newHarness(t)
	h.save()

	output := h.mustRun("ls", "-l", "/main/latest")
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 4 {
		t.Fatalf("ls -l printed %d lines:\n%s", len(lines), output)
	}
	for _, want := range []struct {
		name string
		text []string
	}{
		{"docs", []string{"drwx"}},
		{"hello.txt", []string{"-rw-r--r--", " 6 "}},
		{"link", []string{"link -> hello.txt", "Lrwx"}},
		{"run.sh", []string{"-rwxr-xr-x"}},
	} {
		var line string
		for _, candidate := range lines {
			named, _, _ := strings.Cut(candidate, " -> ")
			if strings.HasSuffix(named, " "+want.name) {
				line = candidate
			}
		}
		if line == "" {
			t.Errorf("no line for %s in:\n%s", want.name, output)
			continue
		}
		for _, text := range want.text {
			if !strings.Contains(line, text) {
				t.Errorf("line %q missing %q", line, text)
			}
		}
	}
}

func TestListMissingPath(t *testing.T) {
	h := newHarness(t)
	h.save()

	output, err := h.run("ls", "/main/latest/nope", "/main/latest/docs")
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Fatalf("ls error = %v, want ExitError code 1", err)
	}
	if !strings.Contains(output, "readme.md") {
		t.Errorf("the listable path was not listed: %q", output)
	}
}

func TestCat(t *testing.T) {
	h := newHarness(t)
	h.save()

	if got := h.mustRun("cat", "/main/latest/hello.txt"); got != "hello\n" {
		t.Errorf("cat = %q, want %q", got, "hello\n")
	}
	if got := h.mustRun("cat", "/main/latest/link", "/main/latest/docs/readme.md"); got != "hello\n# docs\n" {
		t.Errorf("cat through symlink = %q", got)
	}

	output, err := h.run("cat", "/main/latest/docs", "/main/latest/hello.txt")
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Errorf("cat of a directory: error = %v, want ExitError code 1", err)
	}
	if output != "hello\n" {
		t.Errorf("remaining paths should still be written, got %q", output)
	}

	if _, err := h.run("cat"); err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Errorf("cat without paths: error = %v, want usage", err)
	}
}

func TestStat(t *testing.T) {
	h := newHarness(t)
	h.save()

	output := h.mustRun("stat", "/main/latest")
	for _, want := range []string{"path:", "/main/latest", "kind:", "fake-symlink", "target:", firstSnapshot} {
		if !strings.Contains(output, want) {
			t.Errorf("stat of the latest link missing %q:\n%s", want, output)
		}
	}

	output = h.mustRun("stat", "-L", "/main/latest")
	for _, want := range []string{"kind:", "dir", "id:", "commit tree:", "author:", "snapvfs save"} {
		if !strings.Contains(output, want) {
			t.Errorf("stat -L missing %q:\n%s", want, output)
		}
	}

	output = h.mustRun("stat", "/main/latest/run.sh")
	for _, want := range []string{"file", "-rwxr-xr-x", "owner:", "modify:"} {
		if !strings.Contains(output, want) {
			t.Errorf("stat of a file missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "commit tree:") {
		t.Errorf("stat of a file should not show a commit:\n%s", output)
	}

	output = h.mustRun("stat", "--diag", "-L", "/main/latest")
	if !strings.Contains(output, `"tree":`) || !strings.Contains(output, `"message":`) {
		t.Errorf("stat --diag should print diagnostic notation:\n%s", output)
	}
}

func TestLogAndTags(t *testing.T) {
	h := newHarness(t)
	h.save()
	h.mustRun("tag", "v1", "/main/latest")

	testutil.WriteFile(t, filepath.Join(h.source, "hello.txt"), "hello again\n", 0o644)
	h.clock.Advance(time.Hour)
	h.save()

	output := h.mustRun("log", "main")
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 2 {
		t.Fatalf("log printed %d lines:\n%s", len(lines), output)
	}
	if !strings.Contains(lines[0], secondSnapshot) || strings.Contains(lines[0], "tag:") {
		t.Errorf("newest line = %q", lines[0])
	}
	if !strings.Contains(lines[1], firstSnapshot) || !strings.Contains(lines[1], "(tag: v1)") {
		t.Errorf("oldest line = %q", lines[1])
	}
	if !strings.Contains(lines[1], "snapvfs save") {
		t.Errorf("log line should carry the commit message: %q", lines[1])
	}

	output = h.mustRun("log", "-n", "1", "main")
	if strings.Count(output, "\n") != 1 {
		t.Errorf("log -n 1 = %q", output)
	}

	if _, err := h.run("log", "nope"); err == nil {
		t.Error("log of a missing branch should fail")
	}

	// The tagged snapshot keeps the old content.
	if got := h.mustRun("cat", "/.tag/v1/hello.txt"); got != "hello\n" {
		t.Errorf("tagged content = %q", got)
	}
	if got := h.mustRun("cat", "/main/v1/hello.txt"); got != "hello\n" {
		t.Errorf("tag link in branch = %q", got)
	}
	if got := h.mustRun("cat", "/main/latest/hello.txt"); got != "hello again\n" {
		t.Errorf("latest content = %q", got)
	}
}

func TestTag(t *testing.T) {
	h := newHarness(t)
	h.save()

	h.mustRun("tag", "docs", "/main/latest/docs")
	if got := h.mustRun("ls", "/.tag/docs"); got != "readme.md\n" {
		t.Errorf("ls /.tag/docs = %q", got)
	}

	_, err := h.run("tag", "docs", "/main/latest")
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("retagging without --force: error = %v", err)
	}
	h.mustRun("tag", "-f", "docs", "/main/latest")
	if got := h.mustRun("ls", "/.tag/docs"); !strings.Contains(got, "hello.txt") {
		t.Errorf("forced tag should point at the snapshot, got %q", got)
	}

	h.mustRun("tag", "-d", "docs")
	if got := h.mustRun("ls", "/.tag"); got != "" {
		t.Errorf("ls /.tag after delete = %q", got)
	}
	if _, err := h.run("tag", "-d", "docs"); err == nil {
		t.Error("deleting a missing tag should fail")
	}

	for _, args := range [][]string{
		{"tag", "file", "/main/latest/hello.txt"},
		{"tag", "a/b", "/main/latest"},
		{"tag", "missing", "/main/nope"},
		{"tag", "only-name"},
	} {
		if _, err := h.run(args...); err == nil {
			t.Errorf("snapvfs %s should fail", strings.Join(args, " "))
		}
	}
}

func TestTagByID(t *testing.T) {
	h := newHarness(t)
	h.save()

	output := h.mustRun("stat", "-L", "/main/latest")
	var id string
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "id:") {
			id = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		}
	}
	if len(id) != 64 {
		t.Fatalf("no commit ID in stat output:\n%s", output)
	}

	h.mustRun("tag", "by-id", id)
	if got := h.mustRun("cat", "/.tag/by-id/hello.txt"); got != "hello\n" {
		t.Errorf("cat through ID tag = %q", got)
	}
}

func TestRestore(t *testing.T) {
	h := newHarness(t)
	h.save()

	dest := filepath.Join(t.TempDir(), "restored")
	h.mustRun("restore", "--meta", "/main/latest", dest)

	content, err := os.ReadFile(filepath.Join(dest, "docs", "readme.md"))
	if err != nil || string(content) != "# docs\n" {
		t.Errorf("restored readme = %q, %v", content, err)
	}
	info, err := os.Stat(filepath.Join(dest, "run.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("run.sh mode = %v, want 0755", info.Mode().Perm())
	}
	target, err := os.Readlink(filepath.Join(dest, "link"))
	if err != nil || target != "hello.txt" {
		t.Errorf("restored link = %q, %v", target, err)
	}

	_, err = h.run("restore", "/main/latest/hello.txt", filepath.Join(dest, "hello.txt"))
	if err == nil || !strings.Contains(err.Error(), "never overwrites") {
		t.Errorf("restoring over a file: error = %v", err)
	}
}

func TestSaveRequiresBranch(t *testing.T) {
	h := newHarness(t)

	if _, err := h.run("save", h.source); err == nil || !strings.Contains(err.Error(), "--branch") {
		t.Errorf("save without --branch: error = %v", err)
	}
	if _, err := h.run("save", "--branch", "a/b", h.source); err == nil {
		t.Error("save onto a nested branch name should fail")
	}
}

func TestGlobalOverrides(t *testing.T) {
	h := newHarness(t)
	h.save()

	// --backend memory replaces the configured disk store with an
	// empty one.
	if got := h.mustRun("ls", "--backend", "memory"); got != "" {
		t.Errorf("ls on an empty memory store = %q", got)
	}

	// --store points the disk backend somewhere else.
	if got := h.mustRun("ls", "--store", t.TempDir()); got != "" {
		t.Errorf("ls on a fresh store = %q", got)
	}

	_, err := h.run("ls", "--log-level", "loud")
	if err == nil || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("invalid --log-level: error = %v", err)
	}
	_, err = h.run("ls", "--backend", "tape")
	if err == nil || !strings.Contains(err.Error(), "store.backend") {
		t.Errorf("invalid --backend: error = %v", err)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	h := newHarness(t)
	h.save()
	t.Setenv(config.EnvironmentVariable, h.configPath)

	var stdout bytes.Buffer
	if err := newApp(&stdout, h.clock).root().Execute([]string{"ls", "/main"}); err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(stdout.String(), firstSnapshot) {
		t.Errorf("ls /main = %q", stdout.String())
	}
}

func TestVersion(t *testing.T) {
	var stdout bytes.Buffer
	if err := newApp(&stdout, clock.Real()).root().Execute([]string{"version"}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout.String(), "snapvfs ") {
		t.Errorf("version = %q", stdout.String())
	}
}

func TestUnknownCommandSuggestion(t *testing.T) {
	err := newApp(&bytes.Buffer{}, clock.Real()).root().Execute([]string{"restor"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "restore"`) {
		t.Errorf("error = %v, want a suggestion", err)
	}
}

func TestMountOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Mount.Meta = true
	cfg.Mount.ReleaseAfter = 500

	flags := mountFlags{uid: -1, gid: 1000}
	options, err := flags.options(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !options.Meta || options.AllowOther {
		t.Errorf("meta = %v, allowOther = %v", options.Meta, options.AllowOther)
	}
	if options.ReleaseAfter != 500 {
		t.Errorf("ReleaseAfter = %d, want the configured 500", options.ReleaseAfter)
	}
	if options.UID != nil {
		t.Errorf("UID = %d, want unset", *options.UID)
	}
	if options.GID == nil || *options.GID != 1000 {
		t.Errorf("GID = %v, want 1000", options.GID)
	}

	flags = mountFlags{uid: -1, gid: -1, releaseAfter: -1, allowOther: true}
	options, err = flags.options(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if options.ReleaseAfter != -1 || !options.AllowOther {
		t.Errorf("flags should override config: %+v", options)
	}

	for _, bad := range []int64{-2, 1 << 32} {
		flags = mountFlags{uid: bad, gid: -1}
		if _, err := flags.options(cfg); err == nil {
			t.Errorf("uid %d should be rejected", bad)
		}
	}
}

func TestMountRequiresMountpoint(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("mount"); err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Errorf("mount without a mountpoint: error = %v", err)
	}
}
