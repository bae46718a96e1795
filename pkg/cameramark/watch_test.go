package cameramark

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	staging := t.TempDir()

	w, err := NewWatcher(&Config{InPath: in, OutDir: out}, NewMarker(ExifReader{}, testFonts(t), 0))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// rename so the watcher only ever sees a complete file
	src := writeJPEG(t, staging, "new.jpg", 60, 40, completeFixture())
	if err := os.Rename(src, filepath.Join(in, "new.jpg")); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("hi"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := filepath.Join(out, "marked_new.jpg")
	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := os.Stat(want); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s never appeared", want)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if _, err := os.Stat(filepath.Join(out, "marked_notes.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("unsupported file was marked: %v", err)
	}
}

func TestNewWatcherNeedsDirectory(t *testing.T) {
	p := writeJPEG(t, t.TempDir(), "a.jpg", 60, 40, completeFixture())

	_, err := NewWatcher(&Config{InPath: p, OutDir: t.TempDir()}, NewMarker(ExifReader{}, testFonts(t), 0))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("NewWatcher() = %v, want ErrInvalidArgument", err)
	}
}
