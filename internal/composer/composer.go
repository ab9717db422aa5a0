// Package composer is the post composer. It opens the creative studio on request
// and publishes the studio's result, or hand-written text, to the feed.
package composer

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"digitaldemocracy/internal/feed"
	"digitaldemocracy/internal/logging"
	"digitaldemocracy/internal/studio"
)

// Publisher is the part of the feed the composer writes to.
type Publisher interface {
	AddPost(ctx context.Context, d feed.Draft) (feed.Post, error)
}

// Composer publishes posts as a single author.
type Composer struct {
	publisher Publisher
	author    feed.User
	studio    *studio.Studio

	mu        sync.Mutex
	lastPost  *feed.Post
	lastErr   error
	listeners []func(feed.Post)
}

// New creates a composer whose studio uses gw and gate. Extra studio options are
// applied after the composer's completion hook.
func New(pub Publisher, author feed.User, gw studio.Gateway, gate studio.CredentialGate, opts ...studio.Option) *Composer {
	c := &Composer{publisher: pub, author: author}
	all := append([]studio.Option{studio.WithCompletion(c.onSelected)}, opts...)
	c.studio = studio.New(gw, gate, all...)
	return c
}

// OnPublished registers fn to run after each studio post is published.
func (c *Composer) OnPublished(fn func(feed.Post)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// OpenStudio starts a fresh creative session, closing any previous one.
func (c *Composer) OpenStudio(ctx context.Context) *studio.Session {
	logging.Composer("Opening creative studio")
	return c.studio.Open(ctx)
}

// CloseStudio discards the open session without publishing.
func (c *Composer) CloseStudio() {
	c.studio.Close()
}

// Studio returns the underlying studio.
func (c *Composer) Studio() *studio.Studio { return c.studio }

// Post publishes hand-written text.
func (c *Composer) Post(ctx context.Context, text string) (feed.Post, error) {
	return c.publisher.AddPost(ctx, feed.Draft{Author: c.author, Text: text})
}

// Publish turns a studio payload into a feed post.
func (c *Composer) Publish(ctx context.Context, p studio.Payload) (feed.Post, error) {
	draft := feed.Draft{
		Author:   c.author,
		Text:     p.Text,
		ImageURL: p.ImageURL,
		VideoURL: p.VideoURL,
	}
	for _, s := range p.Sources {
		draft.Sources = append(draft.Sources, feed.Source{Title: s.Title, URI: s.URI})
	}

	post, err := c.publisher.AddPost(ctx, draft)
	if err != nil {
		return feed.Post{}, fmt.Errorf("publish studio result: %w", err)
	}
	logging.Composer("Published studio post %s", post.ID)
	return post, nil
}

// LastPublished returns the most recent studio post, or the error that prevented it.
func (c *Composer) LastPublished() (*feed.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPost, c.lastErr
}

func (c *Composer) onSelected(p studio.Payload) {
	post, err := c.Publish(context.Background(), p)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		logging.Get(logging.CategoryComposer).Error("Studio result not published: %v", err)
		return
	}
	c.lastPost = &post
	c.lastErr = nil
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(post)
	}
}
