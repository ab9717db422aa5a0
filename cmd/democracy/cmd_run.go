package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"digitaldemocracy/internal/credential"
	"digitaldemocracy/internal/feed"
	"digitaldemocracy/internal/studio"
)

var (
	runVisual int
	runAspect string
	runEdit   string
	runFormat string
)

// runCmd drives one studio session without the TUI
var runCmd = &cobra.Command{
	Use:   "run [idea]",
	Short: "Turn an idea into a published post in one pass",
	Long: `Runs the creative studio non-interactively:
  1. Plan: post text, hashtags and visual ideas from your idea
  2. Visual: generate the chosen visual idea
  3. Edit: optionally apply an edit instruction (images only)
  4. Publish: select the asset and post it to the feed

If video generation needs an API key and none is configured, you are
prompted for one on stdin.

Example:
  democracy run "clean water campaign" --visual 2 --aspect 9:16`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().IntVar(&runVisual, "visual", 1, "Which suggested visual to generate (1-based)")
	runCmd.Flags().StringVar(&runAspect, "aspect", "", "Aspect ratio (default from config for the visual's kind)")
	runCmd.Flags().StringVar(&runEdit, "edit", "", "Edit instruction applied to the generated image")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "text", "Output format: text, json or yaml")
}

func promptGranter(in io.Reader, out io.Writer) granterFactory {
	return func(ring *credential.KeyRing, env credential.Granter) credential.Granter {
		return &credential.PromptGranter{In: in, Out: out, Ring: ring, Fallback: env}
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if err := validateFormat(runFormat); err != nil {
		return err
	}
	idea := strings.Join(args, " ")
	progress := cmd.ErrOrStderr()

	a, err := newApp(ctx, cfg, promptGranter(cmd.InOrStdin(), progress), 0)
	if err != nil {
		return err
	}
	sess := a.composer.OpenStudio(ctx)
	defer a.composer.CloseStudio()
	defer a.logUsage()

	fmt.Fprintln(progress, studio.BusyThinking)
	if err := sess.SubmitIdea(ctx, idea); err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	plan := sess.Snapshot().Plan
	fmt.Fprintf(progress, "Plan: %s\n", plan.PostBody())
	for i, v := range plan.Visuals {
		fmt.Fprintf(progress, "  %d. [%s] %s\n", i+1, v.Kind, v.Description)
	}

	if runVisual < 1 || runVisual > len(plan.Visuals) {
		return fmt.Errorf("--visual must be between 1 and %d", len(plan.Visuals))
	}
	visual := plan.Visuals[runVisual-1]
	aspect := studio.AspectRatio(runAspect)
	if aspect == "" {
		aspect = defaultAspect(visual.Kind)
	}

	asset, err := generateVisual(ctx, progress, sess, visual, aspect)
	if err != nil {
		return err
	}

	if runEdit != "" {
		if asset.Kind != studio.KindImage {
			return fmt.Errorf("--edit only applies to images, visual %d is a %s", runVisual, asset.Kind)
		}
		fmt.Fprintln(progress, studio.BusyEdit)
		if asset, err = editVisual(ctx, sess, asset, runEdit); err != nil {
			return err
		}
	}

	if _, err := sess.SelectAsset(asset); err != nil {
		return err
	}
	post, err := a.composer.LastPublished()
	if err != nil {
		return err
	}
	logger.Info("Post published", zap.String("id", post.ID), zap.String("kind", string(asset.Kind)))
	return writePost(cmd.OutOrStdout(), *post, runFormat)
}

// generateVisual requests one visual. A rejected video key gets one retry after
// asking for a new key.
func generateVisual(ctx context.Context, progress io.Writer, sess *studio.Session, v studio.VisualSuggestion, aspect studio.AspectRatio) (studio.GeneratedAsset, error) {
	for attempt := 0; attempt < 2; attempt++ {
		before := len(sess.Snapshot().Assets)
		if v.Kind == studio.KindVideo {
			fmt.Fprintln(progress, studio.BusyVideo)
		} else {
			fmt.Fprintln(progress, studio.BusyImage)
		}

		err := sess.RequestVisual(ctx, v, aspect)
		snap := sess.Snapshot()
		if err == nil {
			if len(snap.Assets) == before {
				return studio.GeneratedAsset{}, errors.New("video generation needs an API key; none was provided")
			}
			return snap.Assets[len(snap.Assets)-1], nil
		}
		if !snap.CredentialFailure || attempt > 0 {
			return studio.GeneratedAsset{}, fmt.Errorf("generation failed: %w", err)
		}

		fmt.Fprintf(progress, "Error: %s\n", snap.LastError)
		ok, rerr := sess.RetryGrant(ctx)
		if rerr != nil || !ok {
			return studio.GeneratedAsset{}, fmt.Errorf("generation failed: %w", err)
		}
	}
	return studio.GeneratedAsset{}, errors.New("generation failed")
}

// editVisual applies instruction to asset and returns the edited asset, which
// replaces the original at the same position.
func editVisual(ctx context.Context, sess *studio.Session, asset studio.GeneratedAsset, instruction string) (studio.GeneratedAsset, error) {
	idx := slices.IndexFunc(sess.Snapshot().Assets, func(a studio.GeneratedAsset) bool {
		return a.Locator == asset.Locator
	})
	if err := sess.BeginEdit(asset); err != nil {
		return studio.GeneratedAsset{}, err
	}
	if err := sess.SubmitEdit(ctx, instruction); err != nil {
		return studio.GeneratedAsset{}, fmt.Errorf("edit failed: %w", err)
	}
	return sess.Snapshot().Assets[idx], nil
}

func defaultAspect(kind studio.AssetKind) studio.AspectRatio {
	if kind == studio.KindVideo {
		return studio.AspectRatio(cfg.Studio.DefaultVideoAspect)
	}
	return studio.AspectRatio(cfg.Studio.DefaultImageAspect)
}

func validateFormat(f string) error {
	switch f {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", f)
}

func writePost(w io.Writer, p feed.Post, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "yaml":
		return writeYAML(w, p)
	}

	fmt.Fprintf(w, "Post %s by %s\n\n%s\n", p.ID, p.Author.Name, p.Text)
	if p.ImageURL != "" {
		fmt.Fprintf(w, "\nImage: %s\n", truncateLocator(p.ImageURL))
	}
	if p.VideoURL != "" {
		fmt.Fprintf(w, "\nVideo: %s\n", truncateLocator(p.VideoURL))
	}
	if len(p.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, s := range p.Sources {
			fmt.Fprintf(w, "  - %s (%s)\n", s.Title, s.URI)
		}
	}
	return nil
}

// truncateLocator keeps data: URLs readable in a terminal.
func truncateLocator(loc string) string {
	if strings.HasPrefix(loc, "data:") && len(loc) > 64 {
		return loc[:64] + fmt.Sprintf("... (%d bytes)", len(loc))
	}
	return loc
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
