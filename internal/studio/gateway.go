package studio

import "context"

// Gateway is the generative content service. Every call is long-running, resolves
// exactly once, and fails with a *GenerationError.
type Gateway interface {
	PlanCampaign(ctx context.Context, prompt string) (CampaignPlan, error)
	GenerateAsset(ctx context.Context, description string, kind AssetKind, aspect AspectRatio) (GeneratedAsset, error)
	EditAsset(ctx context.Context, asset GeneratedAsset, instruction string) (GeneratedAsset, error)
}

// CredentialGate guards video generation. Implemented by credential.Gate.
type CredentialGate interface {
	IsReady() bool
	EnsureReady(ctx context.Context) bool
	Reset()
}

// refresher is implemented by gates that can probe for an existing grant on open.
type refresher interface {
	Refresh(ctx context.Context) bool
}
