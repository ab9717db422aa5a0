// Package credential gates video generation behind a one-time capability grant.
//
// The Gate caches readiness for the whole process: once a grant has been made,
// later sessions do not re-prompt. A failed downstream call is the only signal that
// the grant was bad, and the caller reports it with Reset so the next attempt goes
// through the grant flow again.
package credential

import (
	"context"
	"errors"
	"sync"

	"digitaldemocracy/internal/logging"
)

// ErrGrantDismissed is returned by a Granter when the user backed out of the grant flow.
var ErrGrantDismissed = errors.New("capability grant dismissed")

// Granter is the host environment's grant flow.
type Granter interface {
	// HasGrant reports, without prompting, whether a grant already exists.
	HasGrant(ctx context.Context) (bool, error)
	// RequestGrant runs the interactive grant flow and blocks until it completes.
	RequestGrant(ctx context.Context) error
}

// Gate tracks whether the video capability grant is satisfied.
type Gate struct {
	granter Granter

	mu          sync.RWMutex
	ready       bool
	invalidated bool // set by Reset; skips the HasGrant probe until a new grant is made

	grantMu sync.Mutex // one grant flow at a time
}

// NewGate creates a gate backed by the given grant flow.
func NewGate(granter Granter) *Gate {
	return &Gate{granter: granter}
}

// IsReady returns the cached readiness. Never blocks on the grant flow.
func (g *Gate) IsReady() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ready
}

// EnsureReady makes sure a grant exists, running the grant flow if needed.
// After the flow completes the gate is optimistically marked ready; it returns
// false only when the flow was dismissed, failed, or ctx ended.
func (g *Gate) EnsureReady(ctx context.Context) bool {
	if g.IsReady() {
		return true
	}

	g.grantMu.Lock()
	defer g.grantMu.Unlock()

	// Another caller may have finished a grant while we waited.
	if g.IsReady() {
		return true
	}

	if !g.isInvalidated() {
		if ok, err := g.granter.HasGrant(ctx); err == nil && ok {
			g.markReady()
			logging.Credential("Existing grant found")
			return true
		}
	}

	logging.Credential("Requesting capability grant")
	if err := g.granter.RequestGrant(ctx); err != nil {
		logging.CredentialWarn("Grant flow did not complete: %v", err)
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	g.markReady()
	logging.Audit().Log(logging.AuditEvent{EventType: logging.AuditCredentialGrant, Success: true})
	return true
}

// Refresh probes for an existing grant without prompting.
func (g *Gate) Refresh(ctx context.Context) bool {
	if g.IsReady() {
		return true
	}
	if g.isInvalidated() {
		return false
	}
	ok, err := g.granter.HasGrant(ctx)
	if err != nil || !ok {
		return false
	}
	g.markReady()
	return true
}

// Reset marks the grant as unusable so the next EnsureReady re-runs the grant flow.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.ready = false
	g.invalidated = true
	g.mu.Unlock()

	logging.CredentialWarn("Capability grant reset")
	logging.Audit().Log(logging.AuditEvent{EventType: logging.AuditCredentialReset, Success: true})
}

func (g *Gate) markReady() {
	g.mu.Lock()
	g.ready = true
	g.invalidated = false
	g.mu.Unlock()
}

func (g *Gate) isInvalidated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.invalidated
}
