package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "arbiter.yaml")
	if err := os.WriteFile(path, []byte("planner:\n  mode: rule\n"), 0644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("planner:\n  mode: utility\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Planner.Mode != "utility" {
			t.Errorf("reloaded mode = %q, want utility", cfg.Planner.Mode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s of writing the file")
	}
}

func TestWatcherStartTwiceAndStop(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "arbiter.yaml")
	if err := os.WriteFile(path, []byte("name: arbiter\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	w.Stop()
	w.Stop()
}
