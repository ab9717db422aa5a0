package studio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// --- MockGateway ---

type MockGateway struct {
	PlanCampaignFunc  func(ctx context.Context, prompt string) (CampaignPlan, error)
	GenerateAssetFunc func(ctx context.Context, description string, kind AssetKind, aspect AspectRatio) (GeneratedAsset, error)
	EditAssetFunc     func(ctx context.Context, asset GeneratedAsset, instruction string) (GeneratedAsset, error)

	mu          sync.Mutex
	planCalls   int
	assetCalls  int
	editCalls   int
	lastAspect  AspectRatio
	lastEditFor string
	imageSeq    int
	videoSeq    int
}

func (m *MockGateway) PlanCampaign(ctx context.Context, prompt string) (CampaignPlan, error) {
	m.mu.Lock()
	m.planCalls++
	m.mu.Unlock()
	if m.PlanCampaignFunc != nil {
		return m.PlanCampaignFunc(ctx, prompt)
	}
	return cleanWaterPlan(), nil
}

func (m *MockGateway) GenerateAsset(ctx context.Context, description string, kind AssetKind, aspect AspectRatio) (GeneratedAsset, error) {
	m.mu.Lock()
	m.assetCalls++
	m.lastAspect = aspect
	m.mu.Unlock()
	if m.GenerateAssetFunc != nil {
		return m.GenerateAssetFunc(ctx, description, kind, aspect)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == KindVideo {
		m.videoSeq++
		return GeneratedAsset{Kind: KindVideo, Locator: fmt.Sprintf("vid://%d", m.videoSeq)}, nil
	}
	m.imageSeq++
	return GeneratedAsset{Kind: KindImage, Locator: fmt.Sprintf("img://%d", m.imageSeq)}, nil
}

func (m *MockGateway) EditAsset(ctx context.Context, asset GeneratedAsset, instruction string) (GeneratedAsset, error) {
	m.mu.Lock()
	m.editCalls++
	m.lastEditFor = asset.Locator
	m.mu.Unlock()
	if m.EditAssetFunc != nil {
		return m.EditAssetFunc(ctx, asset, instruction)
	}
	return GeneratedAsset{Kind: KindImage, Locator: asset.Locator + "-edited"}, nil
}

func (m *MockGateway) calls() (plan, asset, edit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.planCalls, m.assetCalls, m.editCalls
}

// --- MockGate ---

type MockGate struct {
	EnsureReadyFunc func(ctx context.Context) bool
	RefreshFunc     func(ctx context.Context) bool

	ready        atomic.Bool
	ensureCalls  atomic.Int32
	resetCalls   atomic.Int32
	refreshCalls atomic.Int32
}

func (m *MockGate) IsReady() bool { return m.ready.Load() }

func (m *MockGate) EnsureReady(ctx context.Context) bool {
	m.ensureCalls.Add(1)
	if m.ready.Load() {
		return true
	}
	if m.EnsureReadyFunc != nil {
		ok := m.EnsureReadyFunc(ctx)
		if ok {
			m.ready.Store(true)
		}
		return ok
	}
	m.ready.Store(true)
	return true
}

func (m *MockGate) Reset() {
	m.resetCalls.Add(1)
	m.ready.Store(false)
}

func (m *MockGate) Refresh(ctx context.Context) bool {
	m.refreshCalls.Add(1)
	if m.RefreshFunc != nil {
		ok := m.RefreshFunc(ctx)
		if ok {
			m.ready.Store(true)
		}
		return ok
	}
	return m.ready.Load()
}

// --- fixtures ---

func cleanWaterPlan() CampaignPlan {
	return CampaignPlan{
		PostText: "Clean water for all.",
		Hashtags: []string{"#CleanWater", "#Action"},
		Visuals: []VisualSuggestion{
			{Description: "a river", Kind: KindImage},
			{Description: "people marching", Kind: KindVideo},
		},
	}
}

// blockingCall parks a gateway call until release is closed, signalling started first.
type blockingCall struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingCall() *blockingCall {
	return &blockingCall{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingCall) wait() {
	close(b.started)
	<-b.release
}
