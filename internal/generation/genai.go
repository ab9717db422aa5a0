package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"digitaldemocracy/internal/feed"
	"digitaldemocracy/internal/logging"
	"digitaldemocracy/internal/studio"
	"digitaldemocracy/internal/usage"
)

// =============================================================================
// GOOGLE GENAI GATEWAY
// =============================================================================

// KeySource supplies the key granted for video generation.
type KeySource interface {
	Key() string
}

// GenAIGateway implements studio.Gateway and feed.TopicSource on the Gemini API.
type GenAIGateway struct {
	client *genai.Client
	opts   Options

	// videoKeys holds the user-granted key; video calls build a client from it so a
	// newly granted key takes effect without restarting.
	videoKeys KeySource
	clientCfg genai.ClientConfig
}

// NewGenAIGateway creates a gateway. videoKeys may be nil, in which case video uses
// the main API key.
func NewGenAIGateway(ctx context.Context, opts Options, videoKeys KeySource) (*GenAIGateway, error) {
	return newGenAIGateway(ctx, opts, videoKeys, genai.ClientConfig{})
}

func newGenAIGateway(ctx context.Context, opts Options, videoKeys KeySource, base genai.ClientConfig) (*GenAIGateway, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	opts.applyDefaults()

	cfg := base
	cfg.APIKey = opts.APIKey
	cfg.Backend = genai.BackendGeminiAPI

	client, err := genai.NewClient(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	logging.Gateway("GenAI gateway ready: plan=%s image=%s edit=%s video=%s grounding=%v",
		opts.PlanModel, opts.ImageModel, opts.EditModel, opts.VideoModel, opts.EnableGrounding)

	return &GenAIGateway{
		client:    client,
		opts:      opts,
		videoKeys: videoKeys,
		clientCfg: cfg,
	}, nil
}

// PlanCampaign asks the planning model for post text, hashtags and visual ideas.
func (g *GenAIGateway) PlanCampaign(ctx context.Context, prompt string) (studio.CampaignPlan, error) {
	const op = "plan_campaign"
	ctx, cancel := context.WithTimeout(ctx, g.opts.PlanTimeout)
	defer cancel()

	budget := g.opts.ThinkingBudget
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: planSystemPrompt}}},
	}
	if budget != 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}
	if g.opts.EnableGrounding {
		cfg.SystemInstruction.Parts[0].Text += groundedPlanSuffix
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = planSchema()
	}

	start := time.Now()
	logging.GatewayDebug("[%s] model=%s prompt_len=%d", op, g.opts.PlanModel, len(prompt))
	resp, err := g.client.Models.GenerateContent(ctx, g.opts.PlanModel, genai.Text(prompt), cfg)
	g.track(op, g.opts.PlanModel, resp, err)
	if err != nil {
		logging.GatewayError("[%s] failed after %v: %v", op, time.Since(start), err)
		return studio.CampaignPlan{}, classify(op, err, false, g.opts.CredentialMarker)
	}

	text := resp.Text()
	logging.APIDebug("[%s] response: %s", op, text)
	plan, err := parsePlan(text)
	if err != nil {
		logging.GatewayError("[%s] unusable response: %v", op, err)
		return studio.CampaignPlan{}, studio.Recoverable(op, err)
	}
	plan.Sources = groundingSources(resp)

	logging.Gateway("[%s] completed in %v: hashtags=%d visuals=%d sources=%d",
		op, time.Since(start), len(plan.Hashtags), len(plan.Visuals), len(plan.Sources))
	return plan, nil
}

// GenerateAsset renders an image with Imagen or a video with Veo.
func (g *GenAIGateway) GenerateAsset(ctx context.Context, description string, kind studio.AssetKind, aspect studio.AspectRatio) (studio.GeneratedAsset, error) {
	if kind == studio.KindVideo {
		return g.generateVideo(ctx, description, aspect)
	}
	return g.generateImage(ctx, description, aspect)
}

func (g *GenAIGateway) generateImage(ctx context.Context, description string, aspect studio.AspectRatio) (studio.GeneratedAsset, error) {
	const op = "generate_image"
	ctx, cancel := context.WithTimeout(ctx, g.opts.AssetTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateImages(ctx, g.opts.ImageModel, description, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    string(aspect),
		OutputMIMEType: "image/jpeg",
	})
	g.track(op, g.opts.ImageModel, nil, err)
	if err != nil {
		logging.GatewayError("[%s] failed after %v: %v", op, time.Since(start), err)
		return studio.GeneratedAsset{}, classify(op, err, false, g.opts.CredentialMarker)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return studio.GeneratedAsset{}, studio.Recoverable(op, fmt.Errorf("image generation returned no image; the prompt may have been filtered"))
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	logging.Gateway("[%s] completed in %v: %d bytes at %s", op, time.Since(start), len(img.ImageBytes), aspect)
	return studio.GeneratedAsset{
		Kind:     studio.KindImage,
		Locator:  dataURL(mime, img.ImageBytes),
		MIMEType: mime,
	}, nil
}

func (g *GenAIGateway) generateVideo(ctx context.Context, description string, aspect studio.AspectRatio) (studio.GeneratedAsset, error) {
	const op = "generate_video"
	ctx, cancel := context.WithTimeout(ctx, g.opts.VideoTimeout)
	defer cancel()

	client, err := g.videoClient(ctx)
	if err != nil {
		return studio.GeneratedAsset{}, classify(op, err, true, g.opts.CredentialMarker)
	}

	start := time.Now()
	operation, err := client.Models.GenerateVideos(ctx, g.opts.VideoModel, description, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    string(aspect),
	})
	g.track(op, g.opts.VideoModel, nil, err)
	if err != nil {
		logging.GatewayError("[%s] submit failed: %v", op, err)
		return studio.GeneratedAsset{}, classify(op, err, true, g.opts.CredentialMarker)
	}

	polls := 0
	for !operation.Done {
		select {
		case <-ctx.Done():
			logging.GatewayError("[%s] gave up after %v (%d polls)", op, time.Since(start), polls)
			return studio.GeneratedAsset{}, classify(op, ctx.Err(), true, g.opts.CredentialMarker)
		case <-time.After(g.opts.VideoPollInterval):
		}
		polls++
		operation, err = client.Operations.GetVideosOperation(ctx, operation, nil)
		if err != nil {
			logging.GatewayError("[%s] poll %d failed: %v", op, polls, err)
			return studio.GeneratedAsset{}, classify(op, err, true, g.opts.CredentialMarker)
		}
		logging.GatewayDebug("[%s] poll %d done=%v", op, polls, operation.Done)
	}

	if len(operation.Error) > 0 {
		msg, _ := operation.Error["message"].(string)
		if msg == "" {
			msg = fmt.Sprintf("video operation failed: %v", operation.Error)
		}
		return studio.GeneratedAsset{}, classify(op, fmt.Errorf("%s", msg), true, g.opts.CredentialMarker)
	}
	if operation.Response == nil || len(operation.Response.GeneratedVideos) == 0 ||
		operation.Response.GeneratedVideos[0].Video == nil || operation.Response.GeneratedVideos[0].Video.URI == "" {
		return studio.GeneratedAsset{}, studio.Recoverable(op, fmt.Errorf("video generation completed but no download link was found"))
	}

	video := operation.Response.GeneratedVideos[0].Video
	mime := video.MIMEType
	if mime == "" {
		mime = "video/mp4"
	}
	logging.Gateway("[%s] completed in %v after %d polls", op, time.Since(start), polls)
	return studio.GeneratedAsset{
		Kind:     studio.KindVideo,
		Locator:  video.URI,
		MIMEType: mime,
	}, nil
}

// track records a call; token counts come from the response metadata when present.
func (g *GenAIGateway) track(op, model string, resp *genai.GenerateContentResponse, err error) {
	e := usage.Event{Model: model, Provider: "genai", Operation: op, Failed: err != nil}
	if resp != nil && resp.UsageMetadata != nil {
		e.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		e.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	g.opts.Usage.Track(e)
}

func (g *GenAIGateway) videoClient(ctx context.Context) (*genai.Client, error) {
	key := ""
	if g.videoKeys != nil {
		key = g.videoKeys.Key()
	}
	if key == "" || key == g.clientCfg.APIKey {
		return g.client, nil
	}
	cfg := g.clientCfg
	cfg.APIKey = key
	return genai.NewClient(ctx, &cfg)
}

// EditAsset re-renders an inline image following instruction.
func (g *GenAIGateway) EditAsset(ctx context.Context, asset studio.GeneratedAsset, instruction string) (studio.GeneratedAsset, error) {
	const op = "edit_image"
	if asset.Kind != studio.KindImage {
		return studio.GeneratedAsset{}, studio.Recoverable(op, fmt.Errorf("only images can be edited"))
	}
	mime, data, err := parseDataURL(asset.Locator)
	if err != nil {
		return studio.GeneratedAsset{}, studio.Recoverable(op, fmt.Errorf("image cannot be edited: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.AssetTimeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mime),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.opts.EditModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	g.track(op, g.opts.EditModel, resp, err)
	if err != nil {
		logging.GatewayError("[%s] failed after %v: %v", op, time.Since(start), err)
		return studio.GeneratedAsset{}, classify(op, err, false, g.opts.CredentialMarker)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			outMime := part.InlineData.MIMEType
			if outMime == "" {
				outMime = mime
			}
			logging.Gateway("[%s] completed in %v: %d bytes", op, time.Since(start), len(part.InlineData.Data))
			return studio.GeneratedAsset{
				Kind:     studio.KindImage,
				Locator:  dataURL(outMime, part.InlineData.Data),
				MIMEType: outMime,
			}, nil
		}
	}

	reason := strings.TrimSpace(resp.Text())
	if reason == "" {
		reason = "no image returned"
	}
	return studio.GeneratedAsset{}, studio.Recoverable(op, fmt.Errorf("image editing failed: %s", reason))
}

// TrendingTopics asks the topic model for current civic topics.
func (g *GenAIGateway) TrendingTopics(ctx context.Context) ([]feed.TrendingTopic, error) {
	const op = "trending_topics"
	ctx, cancel := context.WithTimeout(ctx, g.opts.PlanTimeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.TopicModel, genai.Text(topicsPrompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   topicsSchema(),
	})
	g.track(op, g.opts.TopicModel, resp, err)
	if err != nil {
		return nil, classify(op, err, false, g.opts.CredentialMarker)
	}

	raw := extractJSON(resp.Text())
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in topics response")
	}
	var topics []feed.TrendingTopic
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		return nil, fmt.Errorf("decode trending topics: %w", err)
	}
	logging.GatewayDebug("[%s] %d topics", op, len(topics))
	return topics, nil
}
