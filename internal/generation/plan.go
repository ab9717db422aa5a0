package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"digitaldemocracy/internal/studio"
)

const planSystemPrompt = `You are a campaign strategist for a civic social network.
Turn the user's idea into one social media post.
Return JSON with:
- "postText": the post body, engaging and factual, at most 280 characters, no hashtags
- "hashtags": 2 to 5 hashtags, each starting with #
- "visuals": 2 to 4 visual ideas, each {"description": a detailed prompt for an image or video generator, "type": "image" or "video"}; include at least one image and one video`

// groundedPlanSuffix is appended when search grounding is on, since structured
// output cannot be combined with tools.
const groundedPlanSuffix = `
Use Google Search to ground any facts. Respond with only the JSON object, no prose and no code fences.`

func planSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"postText": {Type: genai.TypeString},
			"hashtags": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"visuals": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"description": {Type: genai.TypeString},
						"type":        {Type: genai.TypeString, Enum: []string{"image", "video"}},
					},
					Required: []string{"description", "type"},
				},
			},
		},
		Required: []string{"postText", "hashtags", "visuals"},
	}
}

const topicsPrompt = `List 5 topics currently trending in civic and political discussion.
Return a JSON array of {"category": short category, "topic": the topic, "postCount": an estimated number of posts}.`

func topicsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category":  {Type: genai.TypeString},
				"topic":     {Type: genai.TypeString},
				"postCount": {Type: genai.TypeInteger},
			},
			Required: []string{"category", "topic", "postCount"},
		},
	}
}

// parsePlan decodes a model answer into a plan. Hashtags missing their # get one;
// visuals with an unknown type or empty description are dropped.
func parsePlan(text string) (studio.CampaignPlan, error) {
	raw := extractJSON(text)
	if raw == "" {
		return studio.CampaignPlan{}, fmt.Errorf("no JSON object in model response")
	}

	var plan studio.CampaignPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return studio.CampaignPlan{}, fmt.Errorf("decode campaign plan: %w", err)
	}

	plan.PostText = strings.TrimSpace(plan.PostText)
	if plan.PostText == "" {
		return studio.CampaignPlan{}, fmt.Errorf("campaign plan has no post text")
	}

	tags := plan.Hashtags[:0]
	for _, h := range plan.Hashtags {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !strings.HasPrefix(h, "#") {
			h = "#" + h
		}
		tags = append(tags, strings.ReplaceAll(h, " ", ""))
	}
	plan.Hashtags = tags

	visuals := plan.Visuals[:0]
	for _, v := range plan.Visuals {
		v.Description = strings.TrimSpace(v.Description)
		v.Kind = studio.AssetKind(strings.ToLower(string(v.Kind)))
		if v.Description == "" || !v.Kind.Valid() {
			continue
		}
		visuals = append(visuals, v)
	}
	plan.Visuals = visuals
	plan.Sources = nil
	return plan, nil
}

// extractJSON returns the first balanced JSON object or array in text, skipping
// code fences and surrounding prose. Empty if none is found.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	open := text[start]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closing:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// groundingSources collects unique web sources from a grounded response.
func groundingSources(resp *genai.GenerateContentResponse) []studio.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var sources []studio.Source
	seen := make(map[string]bool)
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		title := chunk.Web.Title
		if title == "" {
			title = chunk.Web.URI
		}
		sources = append(sources, studio.Source{Title: title, URI: chunk.Web.URI})
	}
	return sources
}
