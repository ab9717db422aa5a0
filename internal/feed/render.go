package feed

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

	hashtagRe = regexp.MustCompile(`(^|\s)#([\p{L}\p{N}_]+)`)
)

// RenderText converts post text to HTML. Hashtags become links to tag pages.
// Raw HTML in the text is dropped by the renderer.
func RenderText(text string) (string, error) {
	src := hashtagRe.ReplaceAllString(text, "$1[#$2](/tags/$2)")
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render post text: %w", err)
	}
	return buf.String(), nil
}

// RenderHTML renders a whole post card: author, text, media and sources.
func RenderHTML(p Post) (string, error) {
	body, err := RenderText(p.Text)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<article class=\"post\" id=\"%s\">\n", html.EscapeString(p.ID))
	fmt.Fprintf(&b, "<header><img class=\"avatar\" src=\"%s\" alt=\"\"> <strong>%s</strong> <time datetime=\"%s\">%s</time></header>\n",
		html.EscapeString(p.Author.AvatarURL), html.EscapeString(p.Author.Name),
		p.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), p.Timestamp.Format("Jan 2, 15:04"))
	b.WriteString(body)

	switch {
	case p.ImageURL != "":
		fmt.Fprintf(&b, "<img class=\"media\" src=\"%s\" alt=\"\">\n", html.EscapeString(p.ImageURL))
	case p.VideoURL != "":
		fmt.Fprintf(&b, "<video class=\"media\" src=\"%s\" controls></video>\n", html.EscapeString(p.VideoURL))
	}

	if len(p.Sources) > 0 {
		b.WriteString("<ul class=\"sources\">\n")
		for _, s := range p.Sources {
			fmt.Fprintf(&b, "<li><a href=\"%s\" rel=\"noopener\">%s</a></li>\n", html.EscapeString(s.URI), html.EscapeString(s.Title))
		}
		b.WriteString("</ul>\n")
	}

	fmt.Fprintf(&b, "<footer>%d likes · %d comments · %d shares</footer>\n", p.Likes, len(p.Comments), p.Shares)
	b.WriteString("</article>\n")
	return b.String(), nil
}
