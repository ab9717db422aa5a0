package config

// Generation backends.
const (
	BackendGenAI = "genai"
	BackendMock  = "mock"
)

// GenerationConfig configures the generation gateway.
//
// Model defaults follow the Gemini API naming:
//   - plan:  gemini-2.5-pro (thinking, structured JSON output)
//   - image: imagen-4.0-generate-001
//   - edit:  gemini-2.5-flash-image
//   - video: veo-3.0-fast-generate-001
type GenerationConfig struct {
	Backend string `yaml:"backend"` // genai, mock
	APIKey  string `yaml:"api_key"`

	PlanModel  string `yaml:"plan_model"`
	ImageModel string `yaml:"image_model"`
	EditModel  string `yaml:"edit_model"`
	VideoModel string `yaml:"video_model"`
	TopicModel string `yaml:"topic_model"`

	// ThinkingBudget is passed to the plan model; 0 keeps the model default, -1 is dynamic.
	ThinkingBudget int32 `yaml:"thinking_budget"`

	// EnableGrounding attaches Google Search to planning so the plan carries sources.
	EnableGrounding bool `yaml:"enable_grounding"`

	PlanTimeout       string `yaml:"plan_timeout"`
	AssetTimeout      string `yaml:"asset_timeout"`
	VideoTimeout      string `yaml:"video_timeout"`
	VideoPollInterval string `yaml:"video_poll_interval"`
}

// DefaultGenerationConfig returns the generation defaults.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Backend:           BackendGenAI,
		PlanModel:         "gemini-2.5-pro",
		ImageModel:        "imagen-4.0-generate-001",
		EditModel:         "gemini-2.5-flash-image",
		VideoModel:        "veo-3.0-fast-generate-001",
		TopicModel:        "gemini-2.5-flash",
		ThinkingBudget:    32768,
		PlanTimeout:       "2m",
		AssetTimeout:      "3m",
		VideoTimeout:      "10m",
		VideoPollInterval: "10s",
	}
}
