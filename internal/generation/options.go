// Package generation adapts generative model providers to the studio's Gateway.
//
// GenAIGateway talks to the Gemini API (Gemini for planning and edits, Imagen for
// images, Veo for video). MockGateway is a deterministic offline backend used by
// the CLI's mock mode and by tests.
package generation

import (
	"time"

	"digitaldemocracy/internal/config"
	"digitaldemocracy/internal/studio"
	"digitaldemocracy/internal/usage"
)

// Options configures a gateway.
type Options struct {
	APIKey string

	PlanModel  string
	ImageModel string
	EditModel  string
	VideoModel string
	TopicModel string

	ThinkingBudget  int32
	EnableGrounding bool

	PlanTimeout       time.Duration
	AssetTimeout      time.Duration
	VideoTimeout      time.Duration
	VideoPollInterval time.Duration

	// CredentialMarker is the provider text that marks a rejected video key.
	CredentialMarker string

	// Usage records every call when set.
	Usage *usage.Tracker
}

// OptionsFromConfig builds gateway options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	g := cfg.Generation
	return Options{
		APIKey:            g.APIKey,
		PlanModel:         g.PlanModel,
		ImageModel:        g.ImageModel,
		EditModel:         g.EditModel,
		VideoModel:        g.VideoModel,
		TopicModel:        g.TopicModel,
		ThinkingBudget:    g.ThinkingBudget,
		EnableGrounding:   g.EnableGrounding,
		PlanTimeout:       cfg.GetPlanTimeout(),
		AssetTimeout:      cfg.GetAssetTimeout(),
		VideoTimeout:      cfg.GetVideoTimeout(),
		VideoPollInterval: cfg.GetVideoPollInterval(),
		CredentialMarker:  cfg.Credential.InvalidMarker,
	}
}

func (o *Options) applyDefaults() {
	d := config.DefaultGenerationConfig()
	if o.PlanModel == "" {
		o.PlanModel = d.PlanModel
	}
	if o.ImageModel == "" {
		o.ImageModel = d.ImageModel
	}
	if o.EditModel == "" {
		o.EditModel = d.EditModel
	}
	if o.VideoModel == "" {
		o.VideoModel = d.VideoModel
	}
	if o.TopicModel == "" {
		o.TopicModel = d.TopicModel
	}
	if o.PlanTimeout <= 0 {
		o.PlanTimeout = 2 * time.Minute
	}
	if o.AssetTimeout <= 0 {
		o.AssetTimeout = 3 * time.Minute
	}
	if o.VideoTimeout <= 0 {
		o.VideoTimeout = 10 * time.Minute
	}
	if o.VideoPollInterval <= 0 {
		o.VideoPollInterval = 10 * time.Second
	}
	if o.CredentialMarker == "" {
		o.CredentialMarker = studio.CredentialInvalidMarker
	}
}
