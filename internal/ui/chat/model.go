// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/pulsechat-tui/internal/api"
	"github.com/jeranaias/pulsechat-tui/internal/chatstate"
	"github.com/jeranaias/pulsechat-tui/internal/model"
	"github.com/jeranaias/pulsechat-tui/internal/ui/components"
	"github.com/jeranaias/pulsechat-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for one open conversation.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	engine   *chatstate.Engine
	pipeline *chatstate.SendPipeline
	client   *api.Client
	user     model.Participant

	chatID  string
	conv    model.Conversation
	hasConv bool

	viewport viewport.Model
	input    textarea.Model
	spinner  components.Spinner
	typing   components.TypingIndicator

	coalescer *Coalescer
	streaming bool
	ticking   bool

	replyTo          *model.Message
	lastFailedTempID string

	// Markdown renderer for AI message bodies. Nil when glamour could not
	// initialize; bodies then render as plain text.
	renderer      *glamour.TermRenderer
	markdownWidth int

	width  int
	height int
}

// New creates a chat model for the given chat ID. The conversation itself
// is fetched by the Load command.
func New(theme *styles.Theme, engine *chatstate.Engine, pipeline *chatstate.SendPipeline, client *api.Client, user model.Participant, chatID string, markdownWidth int) *Model {
	input := textarea.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	input.SetHeight(3)
	input.ShowLineNumbers = false
	// Enter submits; newline needs the explicit chord.
	input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	input.Focus()

	vp := viewport.New(80, 20)

	if markdownWidth <= 0 {
		markdownWidth = 80
	}

	m := &Model{
		theme:         theme,
		keys:          DefaultKeyMap(),
		engine:        engine,
		pipeline:      pipeline,
		client:        client,
		user:          user,
		chatID:        chatID,
		viewport:      vp,
		input:         input,
		spinner:       components.NewSpinner("Loading conversation"),
		coalescer:     NewCoalescer(),
		markdownWidth: markdownWidth,
	}
	m.rebuildRenderer()
	return m
}

// Init starts the loading spinner and the conversation fetch.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Start(),
		loadConversationCmd(m.client, m.chatID),
	)
}

// ChatID returns the chat this model displays.
func (m *Model) ChatID() string {
	return m.chatID
}

// Streaming reports whether an AI reply is currently being received.
func (m *Model) Streaming() bool {
	return m.streaming
}

// SetSize updates the layout for a new terminal size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	inputHeight := m.input.Height() + 2
	vpHeight := height - inputHeight - headerHeight - 1
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.SetWidth(width - 4)

	m.rebuildRenderer()
	if m.hasConv {
		m.refreshViewport(true)
	}
}

// rebuildRenderer recreates the markdown renderer for the current width.
func (m *Model) rebuildRenderer() {
	wrap := m.markdownWidth
	if m.width > 0 && m.width-8 < wrap {
		wrap = m.width - 8
	}
	if wrap < 20 {
		wrap = 20
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// applySnapshot installs a conversation snapshot and re-renders the
// transcript, keeping the viewport pinned to the bottom when it was there.
func (m *Model) applySnapshot(conv model.Conversation) {
	wasAtBottom := m.viewport.AtBottom() || !m.hasConv
	m.conv = conv
	m.hasConv = true
	m.refreshViewport(wasAtBottom)
}

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport(gotoBottom bool) {
	m.viewport.SetContent(m.renderMessages())
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}
