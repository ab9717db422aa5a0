package studio

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"digitaldemocracy/internal/logging"
)

// Option configures a Studio.
type Option func(*Studio)

// WithCompletion sets the callback fired once when a session selects an asset.
func WithCompletion(fn func(Payload)) Option {
	return func(s *Studio) { s.complete = fn }
}

// WithCredentialMarker overrides the text that marks a rejected video key.
func WithCredentialMarker(marker string) Option {
	return func(s *Studio) {
		if marker != "" {
			s.marker = marker
		}
	}
}

// Studio owns the open/close lifecycle of creative sessions. At most one session is
// current; opening a new one closes the previous.
type Studio struct {
	gateway  Gateway
	gate     CredentialGate
	marker   string
	complete func(Payload)

	mu      sync.Mutex
	current *Session
}

// New creates a Studio over a gateway and the process-wide credential gate.
func New(gw Gateway, gate CredentialGate, opts ...Option) *Studio {
	s := &Studio{
		gateway: gw,
		gate:    gate,
		marker:  CredentialInvalidMarker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a fresh session in Idea. If the gate can probe for an existing grant
// it does so here, without prompting.
func (s *Studio) Open(ctx context.Context) *Session {
	s.mu.Lock()
	prev := s.current
	sess := newSession(uuid.NewString(), s.gateway, s.gate, s.marker, s.complete)
	s.current = sess
	s.mu.Unlock()

	if prev != nil {
		prev.close()
	}
	if r, ok := s.gate.(refresher); ok {
		r.Refresh(ctx)
	}

	sess.audit.Log(logging.AuditEvent{EventType: logging.AuditSessionOpen, Success: true})
	logging.Studio("Opened session %s (video ready=%v)", sess.id, s.gate.IsReady())
	return sess
}

// Close discards the current session. Results still in flight are dropped.
func (s *Studio) Close() {
	s.mu.Lock()
	sess := s.current
	s.current = nil
	s.mu.Unlock()

	if sess != nil {
		sess.close()
		logging.Studio("Closed session %s", sess.id)
	}
}

// Current returns the open session, or nil.
func (s *Studio) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Snapshot().Closed {
		return nil
	}
	return s.current
}
