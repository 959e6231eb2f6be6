//go:build !windows

package shim

import (
	"os"
	"path/filepath"
	"testing"

	"pycors/internal/paths"
)

func TestNamesIncludeToolchainExecutables(t *testing.T) {
	layout := paths.New(t.TempDir())
	installFake(t, layout, "3.7.2", "pip3", "python3.7", "black")

	names, err := Names(layout)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	want := map[string]bool{"python": true, "pip": true, "2to3": true, "black": true, "python3.7": true}
	for _, name := range names {
		delete(want, name)
	}
	if len(want) != 0 {
		t.Fatalf("missing names %v in %v", want, names)
	}
}

func TestSync(t *testing.T) {
	layout := paths.New(t.TempDir())
	target := filepath.Join(t.TempDir(), "pycors")
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	created, err := Sync(layout, target, []string{"python", "pip"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %v", created)
	}
	link, err := os.Readlink(filepath.Join(layout.ShimsDir, "pip"))
	if err != nil || link != target {
		t.Fatalf("pip shim -> %q (%v)", link, err)
	}

	created, err = Sync(layout, target, []string{"python", "pip", "pydoc3"})
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if len(created) != 1 || created[0] != "pydoc3" {
		t.Fatalf("only the new shim should change, got %v", created)
	}

	moved := filepath.Join(t.TempDir(), "pycors-new")
	if err := os.WriteFile(moved, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	created, err = Sync(layout, moved, []string{"python"})
	if err != nil || len(created) != 1 {
		t.Fatalf("retargeting should relink: %v %v", created, err)
	}
	if link, _ := os.Readlink(filepath.Join(layout.ShimsDir, "python")); link != moved {
		t.Fatalf("python shim -> %q", link)
	}
}
