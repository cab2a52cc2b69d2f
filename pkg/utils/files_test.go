package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileAndDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "marker")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(file) {
		t.Error("FileExists should report an existing file")
	}
	if FileExists(dir) {
		t.Error("FileExists should be false for a directory")
	}
	if !DirExists(dir) {
		t.Error("DirExists should report an existing directory")
	}
	if DirExists(file) {
		t.Error("DirExists should be false for a file")
	}
	if FileExists(filepath.Join(dir, "absent")) {
		t.Error("FileExists should be false for a missing path")
	}
}

func TestEnsureDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(target); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if !DirExists(target) {
		t.Error("directory was not created")
	}
	// Idempotent on existing directory.
	if err := EnsureDir(target); err != nil {
		t.Errorf("EnsureDir on existing dir: %v", err)
	}
}
