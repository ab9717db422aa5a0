package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"digitaldemocracy/internal/credential"
	"digitaldemocracy/internal/feed"
)

var (
	feedPage   int
	feedFormat string
	feedHome   bool
)

// feedCmd prints the feed
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the feed",
	Long: `Prints a page of the feed, newest first.

With --home the candidates, featured users and trending topics are loaded
alongside the first page. Trending topics come from the generation backend
when available and fall back to a built-in list.`,
	RunE: showFeed,
}

func init() {
	feedCmd.Flags().IntVarP(&feedPage, "page", "p", 1, "Page number (1-based)")
	feedCmd.Flags().StringVarP(&feedFormat, "format", "f", "text", "Output format: text, html, json or yaml")
	feedCmd.Flags().BoolVar(&feedHome, "home", false, "Include candidates, featured users and trending topics")
}

// noPrompt never prompts; the feed never generates video.
func noPrompt(ring *credential.KeyRing, env credential.Granter) credential.Granter {
	return env
}

func showFeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	switch feedFormat {
	case "text", "html", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, html, json or yaml)", feedFormat)
	}

	a, err := newApp(ctx, cfg, noPrompt, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if feedHome {
		home, err := a.feed.LoadHome(ctx)
		if err != nil {
			return err
		}
		return writeHome(out, home, feedFormat)
	}

	page, err := a.feed.Posts(ctx, feedPage)
	if err != nil {
		return err
	}
	return writePage(out, page, feedFormat)
}

func writePage(w io.Writer, page feed.Page, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	case "yaml":
		return writeYAML(w, page)
	case "html":
		for _, p := range page.Posts {
			h, err := feed.RenderHTML(p)
			if err != nil {
				return err
			}
			fmt.Fprint(w, h)
		}
		return nil
	}

	fmt.Fprintf(w, "Page %d (%d posts total)\n", page.Number, page.Total)
	for _, p := range page.Posts {
		fmt.Fprintln(w, "----")
		if err := writePost(w, p, "text"); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d likes, %d comments, %d shares\n", p.Likes, len(p.Comments), p.Shares)
	}
	if page.HasMore {
		fmt.Fprintf(w, "---- more: --page %d\n", page.Number+1)
	}
	return nil
}

func writeHome(w io.Writer, home feed.Home, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(home)
	case "yaml":
		return writeYAML(w, home)
	}

	if err := writePage(w, home.Page, format); err != nil {
		return err
	}
	if format == "html" {
		return nil
	}

	fmt.Fprintln(w, "\nCandidates:")
	for _, c := range home.Candidates {
		fmt.Fprintf(w, "  %s (%s, %s) %d supporters\n", c.Name, c.Party, c.Governorate, c.Supporters)
	}
	fmt.Fprintln(w, "\nFeatured:")
	for _, u := range home.FeaturedUsers {
		fmt.Fprintf(w, "  %s\n", u.Name)
	}
	fmt.Fprintln(w, "\nTrending:")
	for _, t := range home.Trending {
		fmt.Fprintf(w, "  [%s] %s (%d posts)\n", t.Category, t.Topic, t.PostCount)
	}
	return nil
}
