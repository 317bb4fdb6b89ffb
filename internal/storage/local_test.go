package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveUsesBaseName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal returned error: %v", err)
	}

	path, size, err := store.Save(context.Background(), "../../etc/out.svg", strings.NewReader("<svg/>"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if path != filepath.Join(dir, "out.svg") {
		t.Fatalf("unexpected path: %s", path)
	}
	if size != int64(len("<svg/>")) {
		t.Fatalf("unexpected size: %d", size)
	}

	file, err := store.Open("out.svg")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	data, _ := io.ReadAll(file)
	file.Close()
	if string(data) != "<svg/>" {
		t.Fatalf("unexpected content: %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files must be cleaned up, got %d entries", len(entries))
	}

	if err := store.Remove("out.svg"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := store.Remove("out.svg"); err != nil {
		t.Fatalf("Remove of a missing file must succeed: %v", err)
	}
}

func TestSaveRejectsEmptyName(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal returned error: %v", err)
	}
	for _, name := range []string{"", "/", ".."} {
		if _, _, err := store.Save(context.Background(), name, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}

func TestSaveHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := store.Save(ctx, "a.png", strings.NewReader("data")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.png")); !os.IsNotExist(err) {
		t.Fatalf("cancelled save must not leave a file, stat err=%v", err)
	}
}
