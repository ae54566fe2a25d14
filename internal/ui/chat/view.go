// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pulsechat-tui/internal/model"
	"github.com/jeranaias/pulsechat-tui/internal/util"
)

// headerHeight is the fixed height of the chat header.
const headerHeight = 2

// View renders the chat: header, transcript, typing indicator, input.
func (m *Model) View() string {
	if !m.hasConv {
		if m.spinner.IsActive() {
			return m.theme.Container.Render(m.spinner.View())
		}
		return m.theme.Container.Render(
			m.theme.ChatItemPreview.Render("Could not load this conversation. Esc to go back."))
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.typing.IsActive() {
		b.WriteString(m.typing.View())
		b.WriteString("\n")
	}
	if m.replyTo != nil {
		b.WriteString(m.renderReplyBanner())
		b.WriteString("\n")
	}
	b.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(m.input.View()))
	return b.String()
}

// renderHeader renders the peer name and presence line.
func (m *Model) renderHeader() string {
	info := m.conv.Chat.Display(m.user.ID, m.engine.IsOnline)

	title := m.theme.HeaderTitle.Render(util.TruncateWidth(info.Name, m.width-20))
	var status string
	if info.IsOnline {
		status = m.theme.PresenceOnlineBadge.Render("* " + info.Subheading)
	} else {
		status = m.theme.HeaderSubtitle.Render(info.Subheading)
	}
	return m.theme.Header.Width(m.width).Render(title + "  " + status)
}

// renderReplyBanner shows what the next send replies to.
func (m *Model) renderReplyBanner() string {
	preview := m.replyTo.Preview(60)
	return m.theme.ReplyQuote.Render(
		"Replying to " + m.replyTo.Sender.Name + ": " + preview +
			"  (Esc to cancel)")
}

// renderMessages renders the whole transcript for the viewport.
func (m *Model) renderMessages() string {
	if len(m.conv.Messages) == 0 {
		return m.theme.ChatItemPreview.Render("No messages yet. Say hello!")
	}

	parts := make([]string, 0, len(m.conv.Messages))
	for i := range m.conv.Messages {
		parts = append(parts, m.renderMessage(&m.conv.Messages[i]))
	}
	return strings.Join(parts, "\n")
}

// renderMessage renders one timeline entry as a bubble with meta line.
func (m *Model) renderMessage(msg *model.Message) string {
	own := msg.Sender.ID == m.user.ID

	bubbleWidth := m.width * 2 / 3
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	var bubble lipgloss.Style
	switch {
	case own:
		bubble = m.theme.OwnBubble
	case msg.Sender.IsAI:
		bubble = m.theme.AIBubble
	default:
		bubble = m.theme.PeerBubble
	}

	body := m.renderBody(msg)

	var meta []string
	if !own {
		meta = append(meta, m.theme.SenderName.Render(msg.Sender.Name))
	}
	if !msg.CreatedAt.IsZero() {
		meta = append(meta, m.theme.Timestamp.Render(msg.CreatedAt.Local().Format("15:04")))
	}
	switch {
	case msg.Streaming:
		meta = append(meta, m.theme.SendingStatus.Render("typing"))
	case msg.Status == model.StatusSending:
		meta = append(meta, m.theme.SendingStatus.Render("sending"))
	case msg.Status == model.StatusFailed:
		meta = append(meta, m.theme.FailedStatus.Render("failed - C-t to retry"))
	}

	var quoted string
	if msg.ReplyTo != nil {
		quoted = m.theme.ReplyQuote.Render(
			msg.ReplyTo.Sender.Name+": "+msg.ReplyTo.Preview(50)) + "\n"
	}

	block := strings.Join(meta, " ") + "\n" + quoted +
		bubble.MaxWidth(bubbleWidth).Render(body)

	if own {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, block)
	}
	return block
}

// renderBody renders message content. AI bodies go through the markdown
// renderer unless a stream is still appending to them; partial markdown
// renders badly mid-stream, so streaming text stays plain.
func (m *Model) renderBody(msg *model.Message) string {
	content := msg.Content
	if content == "" && msg.Image != "" {
		content = "[image] " + msg.Image
	}

	if msg.Sender.IsAI && !msg.Streaming && m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			return strings.TrimRight(rendered, "\n")
		}
	}
	return content
}
