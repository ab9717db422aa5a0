package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"digitaldemocracy/internal/composer"
	"digitaldemocracy/internal/config"
	"digitaldemocracy/internal/credential"
	"digitaldemocracy/internal/feed"
	"digitaldemocracy/internal/generation"
	"digitaldemocracy/internal/studio"
	"digitaldemocracy/internal/usage"
)

// mockLatency makes the offline backend feel like a real one in the TUI.
const mockLatency = 600 * time.Millisecond

// app wires the studio, feed and composer for one process.
type app struct {
	cfg      *config.Config
	ring     *credential.KeyRing
	gate     *credential.Gate
	gateway  studio.Gateway
	feed     *feed.Service
	composer *composer.Composer
	usage    *usage.Tracker
}

// granterFactory builds the grant flow for the surface in use (terminal prompt or TUI).
type granterFactory func(ring *credential.KeyRing, env credential.Granter) credential.Granter

func newApp(ctx context.Context, c *config.Config, newGranter granterFactory, latency time.Duration) (*app, error) {
	ring := &credential.KeyRing{}
	env := &credential.EnvGranter{Var: c.Credential.VideoKeyEnv, Ring: ring}
	gate := credential.NewGate(newGranter(ring, env))
	tracker := usage.NewTracker()

	var (
		gw       studio.Gateway
		feedOpts = []feed.Option{feed.WithPageSize(c.Feed.PageSize)}
	)
	switch c.Generation.Backend {
	case config.BackendMock:
		mock := generation.NewMockGateway(latency)
		mock.Usage = tracker
		gw = mock
	default:
		opts := generation.OptionsFromConfig(c)
		opts.Usage = tracker
		g, err := generation.NewGenAIGateway(ctx, opts, ring)
		if err != nil {
			return nil, fmt.Errorf("create generation gateway: %w", err)
		}
		gw = g
		feedOpts = append(feedOpts, feed.WithTopicSource(g))
	}

	svc := feed.NewService(feedOpts...)
	author := feed.User{ID: c.Feed.AuthorID, Name: c.Feed.AuthorName, AvatarURL: c.Feed.AuthorURL}
	comp := composer.New(svc, author, gw, gate, studio.WithCredentialMarker(c.Credential.InvalidMarker))

	if logger != nil {
		logger.Debug("App ready",
			zap.String("backend", c.Generation.Backend),
			zap.String("author", author.Name),
			zap.String("video_key_env", c.Credential.VideoKeyEnv))
	}

	return &app{
		cfg:      c,
		ring:     ring,
		gate:     gate,
		gateway:  gw,
		feed:     svc,
		composer: comp,
		usage:    tracker,
	}, nil
}

// logUsage reports what the process spent on generation.
func (a *app) logUsage() {
	s := a.usage.Stats()
	if s.Total.Calls == 0 || logger == nil {
		return
	}
	logger.Info("Generation usage",
		zap.Int64("calls", s.Total.Calls),
		zap.Int64("failures", s.Total.Failures),
		zap.Int64("input_tokens", s.Total.Input),
		zap.Int64("output_tokens", s.Total.Output))
}
