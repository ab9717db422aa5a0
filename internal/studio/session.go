package studio

import (
	"context"
	"strings"
	"sync"
	"time"

	"digitaldemocracy/internal/logging"
)

// Operation names used in logs, audit events and transition errors.
const (
	opSubmitIdea    = "submit_idea"
	opRequestVisual = "request_visual"
	opBeginEdit     = "begin_edit"
	opSubmitEdit    = "submit_edit"
	opCancelEdit    = "cancel_edit"
	opSelectAsset   = "select_asset"
	opRetryGrant    = "retry_grant"
	opReset         = "reset"
)

// Busy messages shown while a call is in flight.
const (
	BusyThinking = "Thinking..."
	BusyImage    = "Generating high-quality image..."
	BusyVideo    = "Directing your video... this can take a few minutes."
	BusyEdit     = "Applying edits..."
	BusyGrant    = "Waiting for API key selection..."
)

// Session is one run of the creative studio. All methods are safe for concurrent
// use, but only one generation call may be in flight: a second transition while
// busy fails with ErrBusy instead of queueing. CancelEdit and Reset are always
// accepted.
type Session struct {
	id       string
	gateway  Gateway
	gate     CredentialGate
	marker   string
	complete func(Payload)
	audit    *logging.AuditLogger
	openedAt time.Time

	mu sync.Mutex
	// epoch changes on Reset and close; a call started in an older epoch
	// has its result discarded.
	epoch    uint64
	closed   bool
	inflight string

	step              Step
	prompt            string
	plan              *CampaignPlan
	assets            []GeneratedAsset
	editing           *GeneratedAsset
	editInstruction   string
	lastError         string
	failedOp          string
	credentialFailure bool
	busy              bool
	busyMessage       string
}

func newSession(id string, gw Gateway, gate CredentialGate, marker string, complete func(Payload)) *Session {
	return &Session{
		id:       id,
		gateway:  gw,
		gate:     gate,
		marker:   marker,
		complete: complete,
		audit:    logging.AuditWithSession(id),
		openedAt: time.Now(),
		step:     StepIdea,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:         s.id,
		Step:              s.step,
		Prompt:            s.prompt,
		EditInstruction:   s.editInstruction,
		LastError:         s.lastError,
		CredentialFailure: s.credentialFailure,
		Busy:              s.busy,
		BusyMessage:       s.busyMessage,
		Closed:            s.closed,
		OpenedAt:          s.openedAt,
	}
	if s.plan != nil {
		p := s.plan.clone()
		snap.Plan = &p
	}
	if len(s.assets) > 0 {
		snap.Assets = make([]GeneratedAsset, len(s.assets))
		for i, a := range s.assets {
			snap.Assets[i] = a.clone()
		}
	}
	if s.editing != nil {
		e := s.editing.clone()
		snap.Editing = &e
	}
	return snap
}

// SubmitIdea plans a campaign from prompt. Allowed from Idea, or from Error when no
// plan exists yet (a retry). On failure the session moves to Error with no plan.
func (s *Session) SubmitIdea(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return &ValidationError{Field: "prompt", Reason: "must not be empty"}
	}

	epoch, err := s.enter(opSubmitIdea, BusyThinking, func() error {
		if s.plan != nil || (s.step != StepIdea && s.step != StepError) {
			return invalidTransition(opSubmitIdea, s.step)
		}
		s.prompt = prompt
		return nil
	})
	if err != nil {
		return err
	}

	logging.Studio("[%s] Planning campaign (%d chars)", s.id, len(prompt))
	start := time.Now()
	plan, callErr := s.gateway.PlanCampaign(ctx, prompt)
	s.audit.Generation("plan_campaign", time.Since(start), callErr)

	return s.finish(epoch, func() error {
		if callErr != nil {
			s.fail(opSubmitIdea, callErr, false)
			return callErr
		}
		p := plan.clone()
		s.plan = &p
		s.moveTo(opSubmitIdea, StepPlan)
		return nil
	})
}

// RequestVisual generates an asset for a suggestion and appends it to the session.
//
// Video first needs the capability grant: if the gate cannot be made ready the call
// returns nil without changing any state, and the user has to ask again. A failure
// that rejects the grant also resets the gate so the next attempt re-runs the grant
// flow.
func (s *Session) RequestVisual(ctx context.Context, v VisualSuggestion, aspect AspectRatio) error {
	v.Description = strings.TrimSpace(v.Description)
	if v.Description == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if !v.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "must be image or video"}
	}
	if !v.Kind.SupportsAspect(aspect) {
		return &ValidationError{Field: "aspect", Reason: string(aspect) + " is not available for " + string(v.Kind)}
	}

	msg := BusyImage
	if v.Kind == KindVideo {
		msg = BusyVideo
	}
	epoch, err := s.enter(opRequestVisual, msg, func() error {
		if s.plan == nil {
			return invalidTransition(opRequestVisual, s.step)
		}
		switch s.step {
		case StepPlan, StepVisuals, StepError:
			return nil
		default:
			return invalidTransition(opRequestVisual, s.step)
		}
	})
	if err != nil {
		return err
	}

	if v.Kind == KindVideo && !s.gate.EnsureReady(ctx) {
		logging.Studio("[%s] Video request skipped: capability grant not ready", s.id)
		return s.finish(epoch, func() error { return nil })
	}

	logging.Studio("[%s] Generating %s at %s", s.id, v.Kind, aspect)
	start := time.Now()
	asset, callErr := s.gateway.GenerateAsset(ctx, v.Description, v.Kind, aspect)
	s.audit.Generation("generate_asset", time.Since(start), callErr)

	// Only video runs behind the grant; image failures stay recoverable.
	credInvalid := v.Kind == KindVideo && IsCredentialInvalid(callErr, s.marker)
	if credInvalid {
		// The grant is process-wide, so reset it even if this session is gone.
		s.gate.Reset()
	}

	return s.finish(epoch, func() error {
		if callErr != nil {
			s.fail(opRequestVisual, callErr, credInvalid)
			return callErr
		}
		if asset.Kind == "" {
			asset.Kind = v.Kind
		}
		asset.SourcePrompt = v.Description
		asset.Sources = cloneSources(s.plan.Sources)
		s.assets = append(s.assets, asset)
		s.moveTo(opRequestVisual, StepVisuals)
		return nil
	})
}

// BeginEdit opens the edit overlay for an image asset of this session.
func (s *Session) BeginEdit(asset GeneratedAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.busy {
		return ErrBusy
	}
	if s.plan == nil {
		return invalidTransition(opBeginEdit, s.step)
	}
	if asset.Kind != KindImage {
		return &ValidationError{Field: "asset", Reason: "only images can be edited"}
	}
	idx := s.indexOf(asset.Locator)
	if idx < 0 {
		return &ValidationError{Field: "asset", Reason: "not generated in this session"}
	}

	e := s.assets[idx].clone()
	s.editing = &e
	s.editInstruction = ""
	logging.StudioDebug("[%s] Editing asset %d", s.id, idx)
	return nil
}

// SubmitEdit applies instruction to the asset being edited. On success the edited
// asset replaces the original in place. On failure the session moves to Error but
// keeps the edit overlay so the error stays in context.
func (s *Session) SubmitEdit(ctx context.Context, instruction string) error {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return &ValidationError{Field: "instruction", Reason: "must not be empty"}
	}

	var target GeneratedAsset
	epoch, err := s.enter(opSubmitEdit, BusyEdit, func() error {
		if s.editing == nil {
			return invalidTransition(opSubmitEdit, s.step)
		}
		target = s.editing.clone()
		s.editInstruction = instruction
		return nil
	})
	if err != nil {
		return err
	}

	logging.Studio("[%s] Editing image", s.id)
	start := time.Now()
	edited, callErr := s.gateway.EditAsset(ctx, target, instruction)
	s.audit.Generation("edit_asset", time.Since(start), callErr)

	return s.finish(epoch, func() error {
		if callErr != nil {
			s.fail(opSubmitEdit, callErr, false)
			return callErr
		}
		idx := s.indexOf(target.Locator)
		if idx < 0 {
			return ErrSuperseded
		}
		edited.Kind = target.Kind
		edited.SourcePrompt = target.SourcePrompt
		edited.Sources = cloneSources(target.Sources)
		s.assets[idx] = edited
		s.editing = nil
		s.editInstruction = ""
		s.moveTo(opSubmitEdit, StepVisuals)
		return nil
	})
}

// CancelEdit closes the edit overlay. An edit still in flight is discarded.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.busy && s.inflight == opSubmitEdit {
		s.epoch++
		s.clearBusy()
	}
	s.editing = nil
	s.editInstruction = ""
	if s.step == StepError && s.failedOp == opSubmitEdit {
		s.moveTo(opCancelEdit, s.resumeStep())
	}
}

// SelectAsset finishes the session with asset and hands the payload to the
// composer. The session is closed afterwards.
func (s *Session) SelectAsset(asset GeneratedAsset) (Payload, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Payload{}, ErrSessionClosed
	}
	if s.busy {
		s.mu.Unlock()
		return Payload{}, ErrBusy
	}
	if s.plan == nil {
		step := s.step
		s.mu.Unlock()
		return Payload{}, invalidTransition(opSelectAsset, step)
	}
	idx := s.indexOf(asset.Locator)
	if idx < 0 {
		s.mu.Unlock()
		return Payload{}, &ValidationError{Field: "asset", Reason: "not generated in this session"}
	}

	chosen := s.assets[idx]
	payload := Payload{
		Text:    s.plan.PostBody(),
		Sources: cloneSources(chosen.Sources),
	}
	switch chosen.Kind {
	case KindImage:
		payload.ImageURL = chosen.Locator
	case KindVideo:
		payload.VideoURL = chosen.Locator
	}

	s.closed = true
	s.epoch++
	complete := s.complete
	s.mu.Unlock()

	logging.Studio("[%s] Selected %s asset %d", s.id, chosen.Kind, idx)
	s.audit.Log(logging.AuditEvent{EventType: logging.AuditSessionClose, Operation: opSelectAsset, Success: true})
	if complete != nil {
		complete(payload)
	}
	return payload, nil
}

// RetryGrant re-runs the grant flow after a credential failure. On success the
// session leaves Error so the failed request can be made again.
func (s *Session) RetryGrant(ctx context.Context) (bool, error) {
	epoch, err := s.enter(opRetryGrant, BusyGrant, func() error {
		if s.step != StepError || !s.credentialFailure {
			return invalidTransition(opRetryGrant, s.step)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	ok := s.gate.EnsureReady(ctx)
	err = s.finish(epoch, func() error {
		if ok {
			s.credentialFailure = false
			s.lastError = ""
			s.failedOp = ""
			s.moveTo(opRetryGrant, s.resumeStep())
		}
		return nil
	})
	return ok, err
}

// Reset returns the session to Idea with everything cleared. Credentials are left
// alone. Any call in flight has its result discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	from := s.step
	s.epoch++
	s.clearState()
	s.audit.Transition(opReset, string(from), string(StepIdea))
	logging.Studio("[%s] Reset to idea", s.id)
}

// close invalidates the session. Late results are discarded.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.epoch++
	s.clearBusy()
	s.audit.Log(logging.AuditEvent{EventType: logging.AuditSessionClose, Success: false})
}

// enter claims the session for op. guard runs under the lock and may mutate state.
func (s *Session) enter(op, busyMessage string, guard func() error) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}
	if s.busy {
		return 0, ErrBusy
	}
	if err := guard(); err != nil {
		return 0, err
	}

	s.busy = true
	s.busyMessage = busyMessage
	s.inflight = op
	return s.epoch, nil
}

// finish applies the outcome of a call started in epoch, unless the session was
// closed or reset in the meantime.
func (s *Session) finish(epoch uint64, apply func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.audit.Log(logging.AuditEvent{EventType: logging.AuditResultDiscarded, Operation: s.inflight})
		return ErrSessionClosed
	}
	if epoch != s.epoch {
		s.audit.Log(logging.AuditEvent{EventType: logging.AuditResultDiscarded})
		return ErrSuperseded
	}

	defer s.clearBusy()
	return apply()
}

func (s *Session) fail(op string, err error, credInvalid bool) {
	from := s.step
	s.lastError = err.Error()
	s.failedOp = op
	s.credentialFailure = credInvalid
	s.step = StepError
	s.audit.Transition(op, string(from), string(StepError))
	logging.StudioWarn("[%s] %s failed: %v", s.id, op, err)
}

func (s *Session) moveTo(op string, to Step) {
	from := s.step
	s.step = to
	s.lastError = ""
	s.failedOp = ""
	s.credentialFailure = false
	if from != to {
		s.audit.Transition(op, string(from), string(to))
	}
}

// resumeStep is where a recovered session continues.
func (s *Session) resumeStep() Step {
	switch {
	case len(s.assets) > 0:
		return StepVisuals
	case s.plan != nil:
		return StepPlan
	default:
		return StepIdea
	}
}

func (s *Session) clearBusy() {
	s.busy = false
	s.busyMessage = ""
	s.inflight = ""
}

func (s *Session) clearState() {
	s.step = StepIdea
	s.prompt = ""
	s.plan = nil
	s.assets = nil
	s.editing = nil
	s.editInstruction = ""
	s.lastError = ""
	s.failedOp = ""
	s.credentialFailure = false
	s.clearBusy()
}

func (s *Session) indexOf(locator string) int {
	for i, a := range s.assets {
		if a.Locator == locator {
			return i
		}
	}
	return -1
}
