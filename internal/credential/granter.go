package credential

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// KeyRing holds the key granted for video generation.
type KeyRing struct {
	mu  sync.RWMutex
	key string
}

// Key returns the current key, empty if none was granted.
func (k *KeyRing) Key() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.key
}

// Set stores a granted key.
func (k *KeyRing) Set(key string) {
	k.mu.Lock()
	k.key = strings.TrimSpace(key)
	k.mu.Unlock()
}

// Clear forgets the key.
func (k *KeyRing) Clear() {
	k.Set("")
}

// EnvGranter grants from an environment variable.
type EnvGranter struct {
	Var  string
	Ring *KeyRing
}

// HasGrant reports whether the variable is set, storing its value.
func (e *EnvGranter) HasGrant(ctx context.Context) (bool, error) {
	key := os.Getenv(e.Var)
	if key == "" {
		return false, nil
	}
	e.Ring.Set(key)
	return true, nil
}

// RequestGrant re-reads the environment; there is nothing to prompt.
func (e *EnvGranter) RequestGrant(ctx context.Context) error {
	ok, _ := e.HasGrant(ctx)
	if !ok {
		return fmt.Errorf("%w: %s is not set", ErrGrantDismissed, e.Var)
	}
	return nil
}

// PromptGranter asks for a key on a line-oriented terminal.
type PromptGranter struct {
	In   io.Reader
	Out  io.Writer
	Ring *KeyRing

	// Fallback is probed before prompting (usually an EnvGranter).
	Fallback Granter

	once  sync.Once
	lines chan string // closed when In is exhausted
}

// HasGrant reports whether a key is already on the ring or available from Fallback.
func (p *PromptGranter) HasGrant(ctx context.Context) (bool, error) {
	if p.Ring.Key() != "" {
		return true, nil
	}
	if p.Fallback != nil {
		return p.Fallback.HasGrant(ctx)
	}
	return false, nil
}

// RequestGrant prompts for a key. An empty line dismisses the flow. A single reader
// owns In for the granter's lifetime, so a line typed after a cancelled request
// answers the next one.
func (p *PromptGranter) RequestGrant(ctx context.Context) error {
	p.once.Do(p.startReader)

	fmt.Fprint(p.Out, "Video generation needs an API key with video access.\nPaste key (empty to cancel): ")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case line, ok := <-p.lines:
		key := strings.TrimSpace(line)
		if !ok || key == "" {
			return ErrGrantDismissed
		}
		p.Ring.Set(key)
		return nil
	}
}

func (p *PromptGranter) startReader() {
	p.lines = make(chan string)
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(p.In)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
	}()
}

// GrantRequest is one pending key request from an InteractiveGranter. Exactly one of
// Grant or Dismiss must be called.
type GrantRequest struct {
	reply chan string
}

// Grant answers the request with key.
func (r GrantRequest) Grant(key string) { r.reply <- strings.TrimSpace(key) }

// Dismiss cancels the request.
func (r GrantRequest) Dismiss() { r.reply <- "" }

// InteractiveGranter hands key requests to a UI event loop through a channel.
type InteractiveGranter struct {
	Ring     *KeyRing
	Fallback Granter

	requests chan GrantRequest
}

// NewInteractiveGranter creates a granter storing keys on ring.
func NewInteractiveGranter(ring *KeyRing, fallback Granter) *InteractiveGranter {
	return &InteractiveGranter{Ring: ring, Fallback: fallback, requests: make(chan GrantRequest)}
}

// Requests delivers key requests to the UI.
func (g *InteractiveGranter) Requests() <-chan GrantRequest { return g.requests }

// HasGrant reports whether a key is already on the ring or available from Fallback.
func (g *InteractiveGranter) HasGrant(ctx context.Context) (bool, error) {
	if g.Ring.Key() != "" {
		return true, nil
	}
	if g.Fallback != nil {
		return g.Fallback.HasGrant(ctx)
	}
	return false, nil
}

// RequestGrant waits for the UI to answer a request.
func (g *InteractiveGranter) RequestGrant(ctx context.Context) error {
	req := GrantRequest{reply: make(chan string, 1)}
	select {
	case g.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case key := <-req.reply:
		if key == "" {
			return ErrGrantDismissed
		}
		g.Ring.Set(key)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
