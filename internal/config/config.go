package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Digital Democracy configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Generation backend (Gemini / Imagen / Veo or the offline mock)
	Generation GenerationConfig `yaml:"generation"`

	// Capability grant required for video generation
	Credential CredentialConfig `yaml:"credential"`

	// Creative studio behaviour
	Studio StudioConfig `yaml:"studio"`

	// Feed collaborator
	Feed FeedConfig `yaml:"feed"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CredentialConfig configures the video capability grant.
type CredentialConfig struct {
	// Environment variable consulted before prompting for a video key
	VideoKeyEnv string `yaml:"video_key_env"`

	// Substring that marks a provider error as a rejected grant
	InvalidMarker string `yaml:"invalid_marker"`
}

// StudioConfig configures the creative session.
type StudioConfig struct {
	DefaultImageAspect string `yaml:"default_image_aspect"` // 1:1
	DefaultVideoAspect string `yaml:"default_video_aspect"` // 16:9
	Theme              string `yaml:"theme"`                // auto, light, dark
}

// FeedConfig configures the in-memory feed.
type FeedConfig struct {
	PageSize   int    `yaml:"page_size"`
	AuthorID   string `yaml:"author_id"`
	AuthorName string `yaml:"author_name"`
	AuthorURL  string `yaml:"author_avatar_url"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Digital Democracy",
		Version: "1.0.0",

		Generation: DefaultGenerationConfig(),

		Credential: CredentialConfig{
			VideoKeyEnv:   "DEMOCRACY_VIDEO_API_KEY",
			InvalidMarker: "API key is not valid",
		},

		Studio: StudioConfig{
			DefaultImageAspect: "1:1",
			DefaultVideoAspect: "16:9",
			Theme:              "auto",
		},

		Feed: FeedConfig{
			PageSize:   10,
			AuthorID:   "c1",
			AuthorName: "Elena Rodriguez",
			AuthorURL:  "https://picsum.photos/id/1027/100/100",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Generation.APIKey = key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" && c.Generation.APIKey == "" {
		c.Generation.APIKey = key
	}
	if backend := os.Getenv("DEMOCRACY_BACKEND"); backend != "" {
		c.Generation.Backend = backend
	}
	if lvl := os.Getenv("DEMOCRACY_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// ValidBackends lists the supported generation backends.
var ValidBackends = []string{BackendGenAI, BackendMock}

// ValidAspects lists aspect ratios accepted anywhere in the config.
var ValidAspects = []string{"1:1", "16:9", "9:16", "4:3", "3:4"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validBackend := false
	for _, b := range ValidBackends {
		if c.Generation.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid generation backend: %s (valid: %v)", c.Generation.Backend, ValidBackends)
	}

	if c.Generation.Backend == BackendGenAI && c.Generation.APIKey == "" {
		return fmt.Errorf("generation API key not configured (set GEMINI_API_KEY or generation.api_key)")
	}

	if !contains(ValidAspects, c.Studio.DefaultImageAspect) {
		return fmt.Errorf("invalid default image aspect: %s", c.Studio.DefaultImageAspect)
	}
	if c.Studio.DefaultVideoAspect != "16:9" && c.Studio.DefaultVideoAspect != "9:16" {
		return fmt.Errorf("invalid default video aspect: %s (video supports 16:9 and 9:16)", c.Studio.DefaultVideoAspect)
	}

	switch c.Studio.Theme {
	case "", "auto", "light", "dark":
	default:
		return fmt.Errorf("invalid studio theme: %s (valid: auto, light, dark)", c.Studio.Theme)
	}

	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("feed.page_size must be positive, got %d", c.Feed.PageSize)
	}

	return nil
}

// GetPlanTimeout returns the campaign planning timeout as a duration.
func (c *Config) GetPlanTimeout() time.Duration {
	return parseDurationOr(c.Generation.PlanTimeout, 2*time.Minute)
}

// GetAssetTimeout returns the image/edit timeout as a duration.
func (c *Config) GetAssetTimeout() time.Duration {
	return parseDurationOr(c.Generation.AssetTimeout, 3*time.Minute)
}

// GetVideoTimeout returns the video generation timeout as a duration.
func (c *Config) GetVideoTimeout() time.Duration {
	return parseDurationOr(c.Generation.VideoTimeout, 10*time.Minute)
}

// GetVideoPollInterval returns how often a video operation is polled.
func (c *Config) GetVideoPollInterval() time.Duration {
	return parseDurationOr(c.Generation.VideoPollInterval, 10*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
