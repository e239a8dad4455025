package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsConfigWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	changed := make(chan string, 4)
	w, err := NewWatcher(path, func(p string) { changed <- p })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.debounce = 10 * time.Millisecond
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`{"font":{"size":12}}`), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	select {
	case got := <-changed:
		if got != filepath.Clean(path) {
			t.Fatalf("unexpected path %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestWatcherCloseStopsNotifications(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	w, err := NewWatcher(path, func(string) { t.Error("unexpected notification after close") })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	w.scheduleNotify()
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
