package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetWithoutInitializeIsNoOp(t *testing.T) {
	SetDebugMode(false)
	l := Get(CategoryWorld)
	if l == nil {
		t.Fatal("Get returned nil")
	}
	// Must be safe to call without any setup.
	l.Debug("debug %d", 1)
	l.Info("info")
	l.Warn("warn")
	l.Error("error")
	World("convenience path")
}

func TestInitializeRequiresWorkspace(t *testing.T) {
	if err := Initialize(""); err == nil {
		t.Error("Initialize with empty workspace should fail")
	}
}

func TestInitializeWithoutConfigStaysSilent(t *testing.T) {
	ws := t.TempDir()
	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if IsDebugMode() {
		t.Error("missing config should mean production mode")
	}
	if _, err := os.Stat(filepath.Join(ws, ".arbiter", "logs")); !os.IsNotExist(err) {
		t.Error("production mode should not create a logs directory")
	}
}

func TestInitializeWritesCategoryFiles(t *testing.T) {
	ws := t.TempDir()
	cfgDir := filepath.Join(ws, ".arbiter")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	cfg := "logging:\n  debug_mode: true\n  level: debug\n  categories:\n    world: false\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		CloseAll()
		SetDebugMode(false)
	})

	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !IsDebugMode() {
		t.Fatal("debug mode should be on")
	}
	if IsCategoryEnabled(CategoryWorld) {
		t.Error("world category disabled in config but reported enabled")
	}
	if !IsCategoryEnabled(CategoryPlanner) {
		t.Error("unlisted category should default to enabled")
	}

	Planner("selected mode %s for agent %d", "goap", 3)
	CloseAll()

	name := time.Now().Format("2006-01-02") + "_planner.log"
	data, err := os.ReadFile(filepath.Join(ws, ".arbiter", "logs", name))
	if err != nil {
		t.Fatalf("reading planner log: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] selected mode goap for agent 3") {
		t.Errorf("log contents = %q", data)
	}
}
