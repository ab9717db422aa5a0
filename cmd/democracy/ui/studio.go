package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"digitaldemocracy/internal/credential"
	"digitaldemocracy/internal/feed"
	"digitaldemocracy/internal/logging"
	"digitaldemocracy/internal/studio"
)

// Host is what the studio screen needs from the composer.
type Host interface {
	OpenStudio(ctx context.Context) *studio.Session
	CloseStudio()
	LastPublished() (*feed.Post, error)
}

// GrantSource delivers key requests raised by the credential gate.
type GrantSource interface {
	Requests() <-chan credential.GrantRequest
}

// opDoneMsg reports that a session call returned.
type opDoneMsg struct {
	op  string
	err error
}

// grantMsg carries a pending key request into the event loop.
type grantMsg struct {
	req credential.GrantRequest
}

// publishedMsg is sent after an asset was selected and handed to the composer.
type publishedMsg struct {
	post *feed.Post
	err  error
}

// StudioModel is the interactive creative studio screen.
type StudioModel struct {
	ctx    context.Context
	cancel context.CancelFunc

	host   Host
	grants GrantSource
	sess   *studio.Session
	snap   studio.Snapshot

	styles   Styles
	input    textinput.Model
	keyInput textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	rendered string // markdown last handed to the viewport

	cursor    int
	working   bool
	grant     *credential.GrantRequest
	status    string
	published *feed.Post
	err       error
	width     int
	height    int
}

// NewStudioModel opens a studio session on host. grants may be nil when video keys
// never need to be entered interactively.
func NewStudioModel(ctx context.Context, host Host, grants GrantSource, styles Styles) StudioModel {
	ctx, cancel := context.WithCancel(ctx)

	ti := textinput.New()
	ti.Placeholder = "Describe your idea, e.g. a clean water campaign for our village"
	ti.Prompt = "│ "
	ti.CharLimit = 1024
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.Focus()

	ki := textinput.New()
	ki.Placeholder = "Paste an API key with video access"
	ki.Prompt = "🔑 "
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '•'
	ki.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 12)

	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(76),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(76),
		)
	}

	m := StudioModel{
		ctx:      ctx,
		cancel:   cancel,
		host:     host,
		grants:   grants,
		sess:     host.OpenStudio(ctx),
		styles:   styles,
		input:    ti,
		keyInput: ki,
		spinner:  sp,
		viewport: vp,
		renderer: renderer,
	}
	m.refresh()
	return m
}

// Published returns the post created when the user selected an asset, if any.
func (m StudioModel) Published() *feed.Post { return m.published }

// Err returns the error that ended the screen, if any.
func (m StudioModel) Err() error { return m.err }

// Init starts the spinner and the key request listener.
func (m StudioModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForGrant())
}

func (m StudioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height/2, 6)
		m.input.Width = msg.Width - 6
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case opDoneMsg:
		m.working = false
		m.refresh()
		if msg.err != nil {
			logging.UI("%s ended with: %v", msg.op, msg.err)
		}
		switch {
		case errors.Is(msg.err, studio.ErrSessionClosed), errors.Is(msg.err, studio.ErrSuperseded):
			m.status = ""
		case msg.err != nil && m.snap.LastError == "":
			m.status = msg.err.Error()
		default:
			m.status = ""
		}
		if m.snap.View() == studio.StepIdea || m.snap.View() == studio.StepEdit {
			m.input.Focus()
		}
		return m, nil

	case grantMsg:
		logging.UI("Key entry requested")
		req := msg.req
		m.grant = &req
		m.keyInput.Reset()
		m.keyInput.Focus()
		m.input.Blur()
		return m, nil

	case publishedMsg:
		m.published, m.err = msg.post, msg.err
		m.cancel()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.working {
			m.refresh()
		}
		return m, cmd
	}
	return m, nil
}

func (m StudioModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.grant != nil {
		return m.handleGrantKey(msg)
	}

	view := m.snap.View()
	switch {
	case view == studio.StepEdit:
		return m.handleEditKey(msg)
	case m.snap.Plan == nil && view != studio.StepError:
		return m.handleIdeaKey(msg)
	}
	return m.handleListKey(msg)
}

func (m StudioModel) handleGrantKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.grant.Dismiss()
		m.grant = nil
		m.keyInput.Blur()
		return m, m.waitForGrant()
	case tea.KeyEnter:
		key := strings.TrimSpace(m.keyInput.Value())
		if key == "" {
			return m, nil
		}
		m.grant.Grant(key)
		m.grant = nil
		m.keyInput.Reset()
		m.keyInput.Blur()
		return m, m.waitForGrant()
	}
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m StudioModel) handleIdeaKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.quit()
	case tea.KeyEnter:
		if m.working {
			return m, nil
		}
		idea := strings.TrimSpace(m.input.Value())
		if idea == "" {
			m.status = "Please enter an idea first."
			return m, nil
		}
		m.input.Reset()
		return m.dispatch(studio.BusyThinking, func(ctx context.Context, s *studio.Session) error {
			return s.SubmitIdea(ctx, idea)
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m StudioModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.sess.CancelEdit()
		m.working = false
		m.input.Reset()
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		if m.working {
			return m, nil
		}
		instr := strings.TrimSpace(m.input.Value())
		if instr == "" {
			m.status = "Describe the edit first."
			return m, nil
		}
		m.input.Reset()
		return m.dispatch(studio.BusyEdit, func(ctx context.Context, s *studio.Session) error {
			return s.SubmitEdit(ctx, instr)
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m StudioModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	acts := actionsFor(m.snap)
	switch msg.String() {
	case "esc":
		if m.snap.Editing != nil {
			m.sess.CancelEdit()
			m.refresh()
			return m, nil
		}
		return m.quit()
	case "q":
		return m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(acts)-1 {
			m.cursor++
		}
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "r":
		if m.working {
			return m, nil
		}
		return m.startOver(), nil
	case "enter":
		if m.working || m.cursor >= len(acts) {
			return m, nil
		}
		return m.perform(acts[m.cursor])
	}
	return m, nil
}

func (m StudioModel) perform(a action) (tea.Model, tea.Cmd) {
	switch a.kind {
	case actGenerate:
		busy := studio.BusyImage
		if a.visual.Kind == studio.KindVideo {
			busy = studio.BusyVideo
		}
		return m.dispatch(busy, func(ctx context.Context, s *studio.Session) error {
			return s.RequestVisual(ctx, a.visual, a.aspect)
		})

	case actEdit:
		if err := m.sess.BeginEdit(a.asset); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.input.Reset()
		m.input.Placeholder = "Describe the change, e.g. add a retro filter"
		m.input.Focus()
		m.refresh()
		return m, nil

	case actSelect:
		sess, host, asset := m.sess, m.host, a.asset
		m.working = true
		return m, func() tea.Msg {
			if _, err := sess.SelectAsset(asset); err != nil {
				return opDoneMsg{op: "select", err: err}
			}
			post, err := host.LastPublished()
			return publishedMsg{post: post, err: err}
		}

	case actNewKey:
		return m.dispatch(studio.BusyGrant, func(ctx context.Context, s *studio.Session) error {
			_, err := s.RetryGrant(ctx)
			return err
		})

	case actStartOver:
		return m.startOver(), nil
	}
	return m, nil
}

// dispatch runs fn off the event loop and reports back with opDoneMsg.
func (m StudioModel) dispatch(busy string, fn func(context.Context, *studio.Session) error) (tea.Model, tea.Cmd) {
	m.working = true
	m.status = ""
	m.snap.BusyMessage = busy
	ctx, sess := m.ctx, m.sess
	return m, func() tea.Msg {
		return opDoneMsg{op: busy, err: fn(ctx, sess)}
	}
}

func (m StudioModel) startOver() StudioModel {
	m.sess.Reset()
	m.working = false
	m.cursor = 0
	m.status = ""
	m.input.Reset()
	m.input.Placeholder = "Describe your idea, e.g. a clean water campaign for our village"
	m.input.Focus()
	m.refresh()
	return m
}

func (m StudioModel) quit() (tea.Model, tea.Cmd) {
	if m.grant != nil {
		m.grant.Dismiss()
		m.grant = nil
	}
	m.host.CloseStudio()
	m.cancel()
	return m, tea.Quit
}

// waitForGrant blocks until the gate asks for a key or the screen closes.
func (m StudioModel) waitForGrant() tea.Cmd {
	if m.grants == nil {
		return nil
	}
	ctx, reqs := m.ctx, m.grants.Requests()
	return func() tea.Msg {
		select {
		case req := <-reqs:
			return grantMsg{req: req}
		case <-ctx.Done():
			return nil
		}
	}
}

// refresh re-reads the session and re-renders the plan when it changed.
func (m *StudioModel) refresh() {
	m.snap = m.sess.Snapshot()
	if n := len(actionsFor(m.snap)); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}

	md := planMarkdown(m.snap)
	if md == m.rendered {
		return
	}
	m.rendered = md
	out := md
	if m.renderer != nil && md != "" {
		if r, err := m.renderer.Render(md); err == nil {
			out = r
		}
	}
	m.viewport.SetContent(out)
}

func (m StudioModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("Digital Democracy · Creative Studio"))
	b.WriteString("\n\n")

	if m.grant != nil {
		b.WriteString(m.styles.Title.Render("API key required"))
		b.WriteString("\n")
		b.WriteString(m.styles.Body.Render("Video generation needs a key from a billing-enabled project."))
		b.WriteString("\n\n")
		b.WriteString(m.keyInput.View())
		b.WriteString("\n\n")
		b.WriteString(m.styles.Footer.Render("enter: use key · esc: cancel"))
		return b.String()
	}

	view := m.snap.View()
	if view == studio.StepError {
		b.WriteString(m.styles.Error.Render("Error: " + m.snap.LastError))
		b.WriteString("\n\n")
	}

	switch {
	case view == studio.StepEdit:
		b.WriteString(m.styles.Title.Render("Edit image"))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(truncateLocator(m.snap.Editing.Locator)))
		b.WriteString("\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case m.snap.Plan == nil && view != studio.StepError:
		b.WriteString(m.styles.Title.Render("What do you want to say?"))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	default:
		if m.snap.Plan != nil {
			b.WriteString(m.styles.Card.Render(m.viewport.View()))
			b.WriteString("\n")
		}
		for i, a := range actionsFor(m.snap) {
			if i == m.cursor {
				b.WriteString(m.styles.Selected.Render("› " + a.label))
			} else {
				b.WriteString(m.styles.Item.Render(a.label))
			}
			b.WriteString("\n")
		}
	}

	if m.working {
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.styles.Info.Render(m.snap.BusyMessage))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Warning.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(m.help(view)))
	return lipgloss.NewStyle().MaxWidth(max(m.width, 80)).Render(b.String())
}

func (m StudioModel) help(view studio.Step) string {
	switch {
	case view == studio.StepEdit:
		return "enter: apply edit · esc: cancel edit"
	case m.snap.Plan == nil && view != studio.StepError:
		return "enter: plan post · esc: quit"
	}
	return "↑/↓: choose · enter: run · pgup/pgdn: scroll plan · r: start over · q: quit"
}

func truncateLocator(loc string) string {
	if strings.HasPrefix(loc, "data:") && len(loc) > 48 {
		return fmt.Sprintf("%s... (%d bytes)", loc[:48], len(loc))
	}
	return loc
}
