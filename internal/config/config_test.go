package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "DEMOCRACY_BACKEND", "DEMOCRACY_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "Digital Democracy" {
		t.Errorf("expected Name=Digital Democracy, got %s", cfg.Name)
	}
	if cfg.Generation.Backend != BackendGenAI {
		t.Errorf("expected Backend=genai, got %s", cfg.Generation.Backend)
	}
	if cfg.Credential.InvalidMarker != "API key is not valid" {
		t.Errorf("unexpected marker %q", cfg.Credential.InvalidMarker)
	}
	if cfg.Feed.PageSize != 10 {
		t.Errorf("expected PageSize=10, got %d", cfg.Feed.PageSize)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Generation.Backend = BackendMock
	cfg.Generation.APIKey = "test-key"
	cfg.Studio.DefaultImageAspect = "16:9"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Generation.Backend != BackendMock {
		t.Errorf("expected Backend=mock, got %s", loaded.Generation.Backend)
	}
	if loaded.Generation.APIKey != "test-key" {
		t.Errorf("expected APIKey=test-key, got %s", loaded.Generation.APIKey)
	}
	if loaded.Studio.DefaultImageAspect != "16:9" {
		t.Errorf("expected image aspect 16:9, got %s", loaded.Studio.DefaultImageAspect)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Generation.PlanModel != DefaultGenerationConfig().PlanModel {
		t.Errorf("expected default plan model, got %s", cfg.Generation.PlanModel)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("generation: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	// genai backend without a key
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing API key")
	}

	cfg.Generation.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Generation.Backend = BackendMock
	cfg.Generation.APIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("mock backend should not need a key: %v", err)
	}

	cfg.Studio.DefaultVideoAspect = "1:1"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for square video aspect")
	}

	cfg.Studio.DefaultVideoAspect = "9:16"
	cfg.Feed.PageSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero page size")
	}

	cfg.Feed.PageSize = 5
	cfg.Studio.Theme = "neon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown theme")
	}

	cfg.Studio.Theme = "dark"
	cfg.Generation.Backend = "openai"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetPlanTimeout(); got != 2*time.Minute {
		t.Errorf("plan timeout = %v", got)
	}
	if got := cfg.GetVideoPollInterval(); got != 10*time.Second {
		t.Errorf("poll interval = %v", got)
	}

	cfg.Generation.AssetTimeout = "garbage"
	if got := cfg.GetAssetTimeout(); got != 3*time.Minute {
		t.Errorf("expected fallback for invalid duration, got %v", got)
	}

	cfg.Generation.VideoTimeout = "-5s"
	if got := cfg.GetVideoTimeout(); got != 10*time.Minute {
		t.Errorf("expected fallback for negative duration, got %v", got)
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{}
	if lc.IsCategoryEnabled("studio") {
		t.Error("categories must be disabled without debug mode")
	}

	lc.DebugMode = true
	if !lc.IsCategoryEnabled("studio") {
		t.Error("categories default to enabled in debug mode")
	}

	lc.Categories = map[string]bool{"studio": false}
	if lc.IsCategoryEnabled("studio") {
		t.Error("explicitly disabled category reported enabled")
	}

	opts := lc.Options()
	if !opts.DebugMode || opts.JSONFormat {
		t.Errorf("unexpected options %+v", opts)
	}
}
