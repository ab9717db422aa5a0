package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_Generation(t *testing.T) {
	t.Run("GEMINI_API_KEY sets the key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gem-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gem-key", cfg.Generation.APIKey)
	})

	t.Run("GOOGLE_API_KEY is only a fallback", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GOOGLE_API_KEY", "google-key")

		cfg := &Config{Generation: GenerationConfig{APIKey: "from-file"}}
		cfg.applyEnvOverrides()
		assert.Equal(t, "from-file", cfg.Generation.APIKey)

		cfg = &Config{}
		cfg.applyEnvOverrides()
		assert.Equal(t, "google-key", cfg.Generation.APIKey)
	})

	t.Run("GEMINI_API_KEY wins over GOOGLE_API_KEY", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gem-key")
		t.Setenv("GOOGLE_API_KEY", "google-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()
		assert.Equal(t, "gem-key", cfg.Generation.APIKey)
	})

	t.Run("backend and log level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DEMOCRACY_BACKEND", "mock")
		t.Setenv("DEMOCRACY_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, BackendMock, cfg.Generation.Backend)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}
