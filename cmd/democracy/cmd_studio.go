package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"digitaldemocracy/cmd/democracy/ui"
	"digitaldemocracy/internal/credential"
)

// studioCmd opens the interactive creative studio
var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Open the interactive creative studio",
	Long: `Opens the creative studio in the terminal.

Type an idea, review the generated post and visual ideas, generate images
and videos in the offered aspect ratios, edit images, and pick the asset
to publish. Video generation asks for an API key when none is available.`,
	RunE: runStudio,
}

func runStudio(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	var granter *credential.InteractiveGranter
	interactive := func(ring *credential.KeyRing, env credential.Granter) credential.Granter {
		granter = credential.NewInteractiveGranter(ring, env)
		return granter
	}

	a, err := newApp(ctx, cfg, interactive, mockLatency)
	if err != nil {
		return err
	}

	styles := ui.DefaultStyles()
	switch cfg.Studio.Theme {
	case "dark":
		styles = ui.NewStyles(ui.DarkTheme())
	case "light":
		styles = ui.NewStyles(ui.LightTheme())
	}

	model := ui.NewStudioModel(ctx, a.composer, granter, styles)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	a.logUsage()
	if err != nil {
		return fmt.Errorf("studio: %w", err)
	}

	m, ok := final.(ui.StudioModel)
	if !ok {
		return nil
	}
	if m.Err() != nil {
		return m.Err()
	}
	post := m.Published()
	if post == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Studio closed without publishing.")
		return nil
	}
	logger.Info("Post published", zap.String("id", post.ID))
	return writePost(cmd.OutOrStdout(), *post, "text")
}
