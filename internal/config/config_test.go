package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every override variable so tests see only what they set.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ARBITER_API_KEY",
		"ARBITER_LLM_URL", "ARBITER_LLM_MODEL", "ARBITER_MODE",
		"ARBITER_DB", "ARBITER_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "arbiter" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.Workers != 2 || cfg.LLM.QueueDepth != 16 {
		t.Errorf("LLM defaults = %+v", cfg.LLM)
	}
	if cfg.Planner.Mode != "goap" || cfg.Planner.AdvisorCooldown != 15.0 {
		t.Errorf("Planner defaults = %+v", cfg.Planner)
	}
	if cfg.Planner.Goap.MaxIterations != 10000 || cfg.Planner.Goap.MaxDepth != 64 || cfg.Planner.Goap.RiskWeight != 5.0 {
		t.Errorf("Goap defaults = %+v", cfg.Planner.Goap)
	}
	if cfg.Fallback.StartTier != "simplified" {
		t.Errorf("StartTier = %q", cfg.Fallback.StartTier)
	}
	if cfg.Director.Enabled || cfg.Telemetry.Enabled {
		t.Error("director and telemetry should default off")
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Planner.Mode != "goap" || cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "arbiter.yaml")

	cfg := DefaultConfig()
	cfg.Planner.Mode = "ensemble"
	cfg.Planner.Policy = "aggressive"
	cfg.Planner.Utility = UtilityConfig{Scores: map[string]string{"reload": "me.Ammo == 0 ? 200.0 : 0.0"}}
	cfg.Fallback.StartTier = "full"
	cfg.Director.Enabled = true
	cfg.Director.Budget = map[string]BudgetPoolConfig{
		"spawn": {Cap: 20, RefreshIncrement: 5, RefreshPeriod: 25, Initial: 10},
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Planner.Mode != "ensemble" || loaded.Planner.Policy != "aggressive" {
		t.Errorf("planner = %+v", loaded.Planner)
	}
	if got := loaded.Planner.Utility.Scores["reload"]; got != "me.Ammo == 0 ? 200.0 : 0.0" {
		t.Errorf("utility override = %q", got)
	}
	if loaded.Fallback.StartTier != "full" {
		t.Errorf("StartTier = %q", loaded.Fallback.StartTier)
	}
	if got := loaded.Director.Budget["spawn"]; got != (BudgetPoolConfig{Cap: 20, RefreshIncrement: 5, RefreshPeriod: 25, Initial: 10}) {
		t.Errorf("spawn budget = %+v", got)
	}
	// Fields the file never mentioned keep their defaults.
	if loaded.LLM.Workers != 2 {
		t.Errorf("Workers = %d, want default 2", loaded.LLM.Workers)
	}
}

func TestLoadPartialOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "arbiter.yaml")
	data := []byte("planner:\n  mode: utility\nllm:\n  model: local-7b\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Planner.Mode != "utility" {
		t.Errorf("Mode = %q", cfg.Planner.Mode)
	}
	if cfg.LLM.Model != "local-7b" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.Planner.Goap.MaxIterations != 10000 {
		t.Errorf("overlay clobbered goap defaults: %+v", cfg.Planner.Goap)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("planner: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml should fail to load")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gm-123")
	t.Setenv("ARBITER_MODE", "ensemble")
	t.Setenv("ARBITER_DB", "/tmp/telemetry.db")
	t.Setenv("ARBITER_LLM_MODEL", "gemini-2.5-pro")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "gm-123" || cfg.LLM.Provider != "gemini" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.Planner.Mode != "ensemble" {
		t.Errorf("Mode = %q", cfg.Planner.Mode)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.DatabasePath != "/tmp/telemetry.db" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
}

func TestEnvOverridesPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "oa-1")
	t.Setenv("ARBITER_API_KEY", "direct-2")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// ARBITER_API_KEY wins the key but the provider sticks with openai.
	if cfg.LLM.APIKey != "direct-2" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("Provider = %q", cfg.LLM.Provider)
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.LLMTimeout(); got != 30*time.Second {
		t.Errorf("LLMTimeout = %v", got)
	}
	if got := cfg.EnsembleDeadline(); got != 5*time.Millisecond {
		t.Errorf("EnsembleDeadline = %v", got)
	}

	cfg.LLM.Timeout = "2m"
	if got := cfg.LLMTimeout(); got != 2*time.Minute {
		t.Errorf("LLMTimeout = %v, want 2m", got)
	}

	// Unparseable or non-positive strings fall back.
	cfg.Fallback.FullDeadline = "soonish"
	if got := cfg.FullDeadline(); got != 10*time.Second {
		t.Errorf("FullDeadline = %v, want fallback 10s", got)
	}
	cfg.Fallback.SimplifiedDeadline = "-5s"
	if got := cfg.SimplifiedDeadline(); got != 5*time.Second {
		t.Errorf("SimplifiedDeadline = %v, want fallback 5s", got)
	}
}
