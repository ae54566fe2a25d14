// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubble Tea messages for the chat view.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConversationLoadedMsg:
		m.spinner.Stop()
		m.engine.SetActive(msg.Conversation)
		m.applySnapshot(msg.Conversation)
		return m, nil

	case ConversationErrMsg:
		m.spinner.Stop()
		return m, nil

	case SnapshotMsg:
		return m.handleSnapshot(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case SendConfirmedMsg:
		// Engine reconciliation happens inside Confirm; the snapshot
		// subscription delivers the visual update.
		_ = m.pipeline.Confirm(msg.TempID, msg.Final)
		if msg.TempID == m.lastFailedTempID {
			m.lastFailedTempID = ""
		}
		if msg.AIStreaming {
			cmds = append(cmds, m.typing.Start())
		}
		return m, tea.Batch(cmds...)

	case SendFailedMsg:
		_ = m.pipeline.Fail(msg.TempID)
		m.lastFailedTempID = msg.TempID
		return m, nil
	}

	// Spinner and typing animations consume their own tick messages.
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	m.typing, cmd = m.typing.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey routes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		if m.replyTo != nil {
			m.replyTo = nil
			return m, nil
		}
		return m, backCmd()

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Reply):
		if m.hasConv {
			if last := m.conv.LastMessage(); last != nil {
				r := *last
				m.replyTo = &r
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		return m.retry()

	case key.Matches(msg, m.keys.PageUp),
		key.Matches(msg, m.keys.PageDown),
		key.Matches(msg, m.keys.Top),
		key.Matches(msg, m.keys.Bottom),
		key.Matches(msg, m.keys.Up),
		key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit begins an optimistic send for the current input.
func (m *Model) submit() (*Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || !m.hasConv {
		return m, nil
	}

	msg, err := m.pipeline.Begin(m.chatID, content, "", m.replyTo, m.user)
	if err != nil {
		return m, nil
	}

	m.input.Reset()
	m.replyTo = nil
	return m, sendMessageCmd(m.client, msg, m.conv.Chat.IsAIChat)
}

// RetryLastFailed re-sends the last failed placeholder. Exposed so the
// toast stack's retry action can reach the same path as the key binding.
func (m *Model) RetryLastFailed() (*Model, tea.Cmd) {
	return m.retry()
}

// retry re-sends the last failed placeholder.
func (m *Model) retry() (*Model, tea.Cmd) {
	if m.lastFailedTempID == "" {
		return m, nil
	}
	msg, err := m.pipeline.Retry(m.lastFailedTempID)
	if err != nil {
		m.lastFailedTempID = ""
		return m, nil
	}
	return m, sendMessageCmd(m.client, msg, m.hasConv && m.conv.Chat.IsAIChat)
}

// handleSnapshot routes an engine snapshot through the coalescer while a
// stream is active, or applies it immediately otherwise.
func (m *Model) handleSnapshot(msg SnapshotMsg) (*Model, tea.Cmd) {
	last := msg.Conversation.LastMessage()
	streaming := last != nil && last.Streaming

	if streaming {
		// First chunk replaces the typing indicator.
		m.typing.Stop()
		m.streaming = true
		m.coalescer.Offer(msg.Conversation)
		if !m.ticking {
			m.ticking = true
			return m, streamTickCmd()
		}
		return m, nil
	}

	if m.streaming {
		// Stream just completed; render the final content immediately.
		m.streaming = false
		m.coalescer.Reset()
	}
	m.applySnapshot(msg.Conversation)
	return m, nil
}

// handleStreamTick drains at most one coalesced snapshot per frame.
func (m *Model) handleStreamTick() (*Model, tea.Cmd) {
	if conv, ok := m.coalescer.Take(); ok {
		m.applySnapshot(conv)
	}
	if m.streaming {
		return m, streamTickCmd()
	}
	m.ticking = false
	if conv, ok := m.coalescer.Force(); ok {
		m.applySnapshot(conv)
	}
	return m, nil
}
