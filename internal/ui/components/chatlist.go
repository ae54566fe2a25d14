// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pulsechat-tui/internal/model"
	"github.com/jeranaias/pulsechat-tui/internal/ui/styles"
	"github.com/jeranaias/pulsechat-tui/internal/util"
)

// =============================================================================
// CHAT LIST COMPONENT
// =============================================================================

// ChatList renders the scrollable list of conversations. It is a pure view
// over the engine's chat slice: navigation mutates only the cursor, and the
// caller re-supplies chats whenever the engine reorders them.
type ChatList struct {
	chats  []model.Chat
	cursor int
	offset int

	userID string
	online func(string) bool

	width  int
	height int
	theme  *styles.Theme
}

// NewChatList creates a chat list for the signed-in user. online reports
// real-time presence for a user ID and may be nil.
func NewChatList(theme *styles.Theme, userID string, online func(string) bool) *ChatList {
	return &ChatList{
		userID: userID,
		online: online,
		width:  80,
		height: 24,
		theme:  theme,
	}
}

// SetSize updates the render dimensions.
func (l *ChatList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.clampScroll()
}

// SetChats replaces the backing slice, keeping the cursor on the same chat
// when it survives the update.
func (l *ChatList) SetChats(chats []model.Chat) {
	var selectedID string
	if l.cursor >= 0 && l.cursor < len(l.chats) {
		selectedID = l.chats[l.cursor].ID
	}

	l.chats = chats
	if selectedID != "" {
		for i := range chats {
			if chats[i].ID == selectedID {
				l.cursor = i
				l.clampScroll()
				return
			}
		}
	}
	if l.cursor >= len(chats) {
		l.cursor = len(chats) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.clampScroll()
}

// Selected returns the chat under the cursor, or nil when the list is empty.
func (l *ChatList) Selected() *model.Chat {
	if l.cursor < 0 || l.cursor >= len(l.chats) {
		return nil
	}
	return &l.chats[l.cursor]
}

// Len returns the number of chats.
func (l *ChatList) Len() int {
	return len(l.chats)
}

// CursorUp moves the selection up one row.
func (l *ChatList) CursorUp() {
	if l.cursor > 0 {
		l.cursor--
	}
	l.clampScroll()
}

// CursorDown moves the selection down one row.
func (l *ChatList) CursorDown() {
	if l.cursor < len(l.chats)-1 {
		l.cursor++
	}
	l.clampScroll()
}

// CursorTop jumps to the first chat.
func (l *ChatList) CursorTop() {
	l.cursor = 0
	l.clampScroll()
}

// CursorBottom jumps to the last chat.
func (l *ChatList) CursorBottom() {
	if len(l.chats) > 0 {
		l.cursor = len(l.chats) - 1
	}
	l.clampScroll()
}

// rowsPerChat is 2 in normal layout (name line + preview line), 1 in narrow.
func (l *ChatList) rowsPerChat() int {
	if l.width < 60 {
		return 1
	}
	return 2
}

// visibleChats returns how many chats fit on screen.
func (l *ChatList) visibleChats() int {
	n := l.height / l.rowsPerChat()
	if n < 1 {
		n = 1
	}
	return n
}

// clampScroll keeps the cursor inside the visible window.
func (l *ChatList) clampScroll() {
	visible := l.visibleChats()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+visible {
		l.offset = l.cursor - visible + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the visible window of the list.
func (l *ChatList) View() string {
	if len(l.chats) == 0 {
		return l.theme.ChatList.Render(
			lipgloss.NewStyle().Foreground(styles.TextMuted).Render("No conversations yet"))
	}

	visible := l.visibleChats()
	end := l.offset + visible
	if end > len(l.chats) {
		end = len(l.chats)
	}

	rows := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		rows = append(rows, l.renderRow(&l.chats[i], i == l.cursor))
	}
	return strings.Join(rows, "\n")
}

// renderRow renders one chat entry.
func (l *ChatList) renderRow(chat *model.Chat, selected bool) string {
	info := chat.Display(l.userID, l.online)

	rowStyle := l.theme.ChatItem
	if selected {
		rowStyle = l.theme.ChatItemSelected
	}

	badge := l.presenceBadge(info)
	timeStr := ""
	if chat.LastMessage != nil {
		timeStr = l.theme.ChatItemTime.Render(relativeTime(chat.LastMessage.CreatedAt))
	}

	// Name line: badge, name, right-aligned timestamp.
	inner := l.width - 4
	if inner < 10 {
		inner = 10
	}
	nameWidth := inner - lipgloss.Width(badge) - 1 - lipgloss.Width(timeStr) - 1
	if nameWidth < 4 {
		nameWidth = 4
	}
	name := l.theme.ChatItemName.Render(util.PadWidth(info.Name, nameWidth))
	nameLine := badge + " " + name + " " + timeStr

	if l.rowsPerChat() == 1 {
		return rowStyle.Width(l.width).Render(nameLine)
	}

	preview := info.Subheading
	if chat.LastMessage != nil {
		preview = previewLine(chat.LastMessage, l.userID)
	}
	previewRow := l.theme.ChatItemPreview.Render(
		"  " + util.TruncateWidth(preview, inner-2))

	return rowStyle.Width(l.width).Render(nameLine + "\n" + previewRow)
}

// presenceBadge renders the online dot for a chat row.
func (l *ChatList) presenceBadge(info model.DisplayInfo) string {
	if info.IsGroup {
		return l.theme.ChatItemTime.Render("+")
	}
	if info.IsOnline {
		return l.theme.PresenceOnlineBadge.Render("*")
	}
	return l.theme.PresenceOfflineBadge.Render("o")
}

// previewLine formats the last-message preview, prefixing own messages.
func previewLine(msg *model.Message, userID string) string {
	prefix := ""
	switch {
	case msg.Sender.ID == userID:
		prefix = "You: "
	case msg.Sender.IsAI:
		prefix = msg.Sender.Name + ": "
	}
	if msg.Content == "" && msg.Image != "" {
		return prefix + "[image]"
	}
	return prefix + msg.Preview(200)
}

// relativeTime renders a compact age for list rows.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return util.IntToString(int(d.Minutes())) + "m"
	case d < 24*time.Hour:
		return util.IntToString(int(d.Hours())) + "h"
	case d < 7*24*time.Hour:
		return util.IntToString(int(d.Hours()/24)) + "d"
	default:
		return t.Format("Jan 2")
	}
}
