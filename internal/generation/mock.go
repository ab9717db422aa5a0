package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"digitaldemocracy/internal/logging"
	"digitaldemocracy/internal/studio"
	"digitaldemocracy/internal/usage"
)

// MockGateway is an offline gateway with deterministic output. Images are located at
// img://N and videos at vid://N, numbered from 1 in generation order.
type MockGateway struct {
	// Delay simulates provider latency for every call.
	Delay time.Duration
	// Sources are attached to every plan, as if the plan were grounded.
	Sources []studio.Source
	// Usage records every call when set.
	Usage *usage.Tracker

	mu     sync.Mutex
	images int
	videos int
	edits  int
}

// NewMockGateway returns a mock with the given latency.
func NewMockGateway(delay time.Duration) *MockGateway {
	return &MockGateway{Delay: delay}
}

func (m *MockGateway) wait(ctx context.Context, op string) (err error) {
	defer func() {
		m.Usage.Track(usage.Event{Model: "mock", Provider: "mock", Operation: op, Failed: err != nil})
	}()
	if m.Delay <= 0 {
		if err := ctx.Err(); err != nil {
			return studio.Recoverable(op, err)
		}
		return nil
	}
	t := time.NewTimer(m.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return studio.Recoverable(op, ctx.Err())
	case <-t.C:
		return nil
	}
}

// PlanCampaign builds a plan from the words of prompt.
func (m *MockGateway) PlanCampaign(ctx context.Context, prompt string) (studio.CampaignPlan, error) {
	if err := m.wait(ctx, "plan_campaign"); err != nil {
		return studio.CampaignPlan{}, err
	}
	prompt = strings.TrimSpace(prompt)
	logging.GatewayDebug("[mock] plan for %q", prompt)

	plan := studio.CampaignPlan{
		PostText: sentence(prompt) + " Together we can make it happen.",
		Hashtags: mockHashtags(prompt),
		Visuals: []studio.VisualSuggestion{
			{Description: "A hopeful documentary photograph about " + prompt, Kind: studio.KindImage},
			{Description: "A short cinematic video of citizens supporting " + prompt, Kind: studio.KindVideo},
		},
	}
	if len(m.Sources) > 0 {
		plan.Sources = append([]studio.Source(nil), m.Sources...)
	}
	return plan, nil
}

// GenerateAsset returns the next numbered locator for kind.
func (m *MockGateway) GenerateAsset(ctx context.Context, description string, kind studio.AssetKind, aspect studio.AspectRatio) (studio.GeneratedAsset, error) {
	if err := m.wait(ctx, "generate_asset"); err != nil {
		return studio.GeneratedAsset{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == studio.KindVideo {
		m.videos++
		return studio.GeneratedAsset{Kind: studio.KindVideo, Locator: fmt.Sprintf("vid://%d", m.videos), MIMEType: "video/mp4"}, nil
	}
	m.images++
	return studio.GeneratedAsset{Kind: studio.KindImage, Locator: fmt.Sprintf("img://%d", m.images), MIMEType: "image/jpeg"}, nil
}

// EditAsset returns a new locator derived from the edited one.
func (m *MockGateway) EditAsset(ctx context.Context, asset studio.GeneratedAsset, instruction string) (studio.GeneratedAsset, error) {
	if err := m.wait(ctx, "edit_image"); err != nil {
		return studio.GeneratedAsset{}, err
	}
	if asset.Kind != studio.KindImage {
		return studio.GeneratedAsset{}, studio.Recoverable("edit_image", fmt.Errorf("only images can be edited"))
	}

	m.mu.Lock()
	m.edits++
	n := m.edits
	m.mu.Unlock()

	base, _, _ := strings.Cut(asset.Locator, "?")
	return studio.GeneratedAsset{Kind: studio.KindImage, Locator: fmt.Sprintf("%s?edit=%d", base, n), MIMEType: asset.MIMEType}, nil
}

func sentence(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	out := string(r)
	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	return out
}

// mockHashtags camel-cases the first two words of prompt into one tag and adds
// a fixed second tag.
func mockHashtags(prompt string) []string {
	words := strings.FieldsFunc(prompt, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) > 2 {
		words = words[:2]
	}
	var b strings.Builder
	for _, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	tags := []string{}
	if b.Len() > 0 {
		tags = append(tags, "#"+b.String())
	}
	return append(tags, "#DigitalDemocracy")
}
