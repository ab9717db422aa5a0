package ui

import (
	"fmt"
	"strings"

	"digitaldemocracy/internal/studio"
)

type actionKind int

const (
	actGenerate actionKind = iota
	actSelect
	actEdit
	actNewKey
	actStartOver
)

// action is one selectable line in the plan/visuals list.
type action struct {
	kind   actionKind
	label  string
	visual studio.VisualSuggestion
	aspect studio.AspectRatio
	asset  studio.GeneratedAsset
}

// actionsFor lists what the user can do from snap. Generation is offered once per
// suggestion and preset aspect; each asset can be selected, and images edited.
func actionsFor(snap studio.Snapshot) []action {
	var out []action
	if snap.Step == studio.StepError {
		if snap.CredentialFailure {
			out = append(out, action{kind: actNewKey, label: "Select new API key"})
		}
		out = append(out, action{kind: actStartOver, label: "Start over"})
	}
	if snap.Plan == nil {
		return out
	}

	for _, v := range snap.Plan.Visuals {
		for _, a := range studio.PresetAspects(v.Kind) {
			out = append(out, action{
				kind:   actGenerate,
				label:  fmt.Sprintf("Generate %s %s: %s", v.Kind, a, shorten(v.Description, 60)),
				visual: v,
				aspect: a,
			})
		}
	}
	for i, asset := range snap.Assets {
		out = append(out, action{
			kind:  actSelect,
			label: fmt.Sprintf("Use %s #%d in post", asset.Kind, i+1),
			asset: asset,
		})
		if asset.Kind == studio.KindImage {
			out = append(out, action{
				kind:  actEdit,
				label: fmt.Sprintf("Edit image #%d", i+1),
				asset: asset,
			})
		}
	}
	return out
}

// planMarkdown renders a plan for glamour.
func planMarkdown(snap studio.Snapshot) string {
	if snap.Plan == nil {
		return ""
	}
	p := snap.Plan
	var b strings.Builder
	b.WriteString("## Your post\n\n")
	b.WriteString(p.PostText)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(p.Hashtags, " "))
	b.WriteString("\n\n### Visual ideas\n\n")
	for i, v := range p.Visuals {
		fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, v.Kind, v.Description)
	}
	if len(p.Sources) > 0 {
		b.WriteString("\n### Sources\n\n")
		for _, s := range p.Sources {
			fmt.Fprintf(&b, "- [%s](%s)\n", s.Title, s.URI)
		}
	}
	if len(snap.Assets) > 0 {
		b.WriteString("\n### Generated\n\n")
		for i, a := range snap.Assets {
			fmt.Fprintf(&b, "%d. %s `%s`\n", i+1, a.Kind, shorten(a.Locator, 48))
		}
	}
	return b.String()
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
