// Package studio implements the AI Creative Studio workflow: a session that turns a
// free-text idea into a finished post by planning a campaign, generating image and
// video assets, optionally editing images, and handing the selected result back to
// the composer.
//
// A Session is a state machine driven by one interactive user:
//
//	Idea --SubmitIdea--> Plan --RequestVisual--> Visuals --SelectAsset--> (closed)
//	  ^                    |  \                    |
//	  |                    |   BeginEdit/SubmitEdit (overlay on Plan/Visuals)
//	  +------Reset-------- Error <---- any failed generation call
//
// Generation calls go through a Gateway; video generation additionally requires a
// capability grant tracked by a CredentialGate.
package studio

import (
	"strings"
	"time"
)

// AssetKind is the media type of a visual.
type AssetKind string

const (
	KindImage AssetKind = "image"
	KindVideo AssetKind = "video"
)

// Valid reports whether k is a known kind.
func (k AssetKind) Valid() bool {
	return k == KindImage || k == KindVideo
}

// AspectRatio is a width:height ratio accepted by the generators.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectClassic   AspectRatio = "4:3"
	AspectTall      AspectRatio = "3:4"
)

var supportedAspects = map[AssetKind][]AspectRatio{
	KindImage: {AspectSquare, AspectLandscape, AspectPortrait, AspectClassic, AspectTall},
	KindVideo: {AspectLandscape, AspectPortrait},
}

// SupportsAspect reports whether assets of kind k can be generated at ratio a.
func (k AssetKind) SupportsAspect(a AspectRatio) bool {
	for _, v := range supportedAspects[k] {
		if v == a {
			return true
		}
	}
	return false
}

// PresetAspects returns the two ratios offered per suggestion in the studio:
// square and landscape for images, landscape and portrait for video.
func PresetAspects(kind AssetKind) []AspectRatio {
	if kind == KindVideo {
		return []AspectRatio{AspectLandscape, AspectPortrait}
	}
	return []AspectRatio{AspectSquare, AspectLandscape}
}

// Step is the session's position in the workflow.
type Step string

const (
	StepIdea    Step = "idea"
	StepPlan    Step = "plan"
	StepVisuals Step = "visuals"
	StepEdit    Step = "edit" // overlay; reported by Snapshot.View, never stored
	StepError   Step = "error"
)

// Source is a reference attached to generated content.
type Source struct {
	Title string `json:"title" yaml:"title"`
	URI   string `json:"uri" yaml:"uri"`
}

// VisualSuggestion is one visual proposed by a campaign plan.
type VisualSuggestion struct {
	Description string    `json:"description" yaml:"description"`
	Kind        AssetKind `json:"type" yaml:"type"`
}

// CampaignPlan is the text and visual plan produced from the user's idea.
type CampaignPlan struct {
	PostText string             `json:"postText" yaml:"post_text"`
	Hashtags []string           `json:"hashtags" yaml:"hashtags"`
	Visuals  []VisualSuggestion `json:"visuals" yaml:"visuals"`
	Sources  []Source           `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// PostBody is the post text followed by a blank line and the space-joined hashtags.
func (p CampaignPlan) PostBody() string {
	return p.PostText + "\n\n" + strings.Join(p.Hashtags, " ")
}

func (p CampaignPlan) clone() CampaignPlan {
	return CampaignPlan{
		PostText: p.PostText,
		Hashtags: append([]string(nil), p.Hashtags...),
		Visuals:  append([]VisualSuggestion(nil), p.Visuals...),
		Sources:  cloneSources(p.Sources),
	}
}

// GeneratedAsset is an image or video produced during the session.
// Locator is a URL or data: URI and identifies the asset within the session.
type GeneratedAsset struct {
	Kind         AssetKind `json:"type" yaml:"type"`
	Locator      string    `json:"url" yaml:"url"`
	SourcePrompt string    `json:"prompt" yaml:"prompt"`
	MIMEType     string    `json:"mimeType,omitempty" yaml:"mime_type,omitempty"`
	Sources      []Source  `json:"sources,omitempty" yaml:"sources,omitempty"`
}

func (a GeneratedAsset) clone() GeneratedAsset {
	a.Sources = cloneSources(a.Sources)
	return a
}

func cloneSources(src []Source) []Source {
	if src == nil {
		return nil
	}
	return append([]Source(nil), src...)
}

// Payload is handed to the composer when an asset is selected.
type Payload struct {
	Text     string   `json:"text" yaml:"text"`
	ImageURL string   `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
	VideoURL string   `json:"videoUrl,omitempty" yaml:"video_url,omitempty"`
	Sources  []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Snapshot is a point-in-time copy of a session's visible state.
type Snapshot struct {
	SessionID string
	Step      Step
	Prompt    string
	Plan      *CampaignPlan
	Assets    []GeneratedAsset
	Editing   *GeneratedAsset

	EditInstruction   string
	LastError         string
	CredentialFailure bool // LastError came from a rejected capability grant

	Busy        bool
	BusyMessage string
	Closed      bool
	OpenedAt    time.Time
}

// View is what the user sees: errors first, then the edit overlay, then the step.
func (s Snapshot) View() Step {
	if s.Step == StepError {
		return StepError
	}
	if s.Editing != nil {
		return StepEdit
	}
	return s.Step
}
