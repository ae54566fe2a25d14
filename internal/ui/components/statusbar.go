// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pulsechat-tui/internal/ui/styles"
	"github.com/jeranaias/pulsechat-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// ConnState is the socket connection state shown in the status bar.
type ConnState int

const (
	ConnDisconnected ConnState = iota
	ConnConnecting
	ConnConnected
	ConnReconnecting
)

// String returns the display string for the connection state.
func (c ConnState) String() string {
	switch c {
	case ConnConnected:
		return "Connected"
	case ConnConnecting:
		return "Connecting..."
	case ConnReconnecting:
		return "Reconnecting..."
	default:
		return "Offline"
	}
}

// Icon returns a shape indicator so the state reads without color.
func (c ConnState) Icon() string {
	switch c {
	case ConnConnected:
		return styles.StatusIndicators.Success
	case ConnConnecting, ConnReconnecting:
		return styles.StatusIndicators.Pending
	default:
		return styles.StatusIndicators.Error
	}
}

// Shortcut is one keyboard hint rendered on the right side of the bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar renders the bottom bar: connection state on the left, the
// signed-in user in the middle, shortcuts on the right.
type StatusBar struct {
	Conn        ConnState
	UserName    string
	OnlineCount int
	Shortcuts   []Shortcut
	Width       int

	theme *styles.Theme
}

// NewStatusBar creates a status bar using the given theme.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Conn:  ConnDisconnected,
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the available width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetConn updates the connection state.
func (s *StatusBar) SetConn(state ConnState) {
	s.Conn = state
}

// SetUser updates the signed-in user's display name.
func (s *StatusBar) SetUser(name string) {
	s.UserName = name
}

// SetOnlineCount updates the number of contacts currently online.
func (s *StatusBar) SetOnlineCount(n int) {
	s.OnlineCount = n
}

// SetShortcuts replaces the shortcut hints.
func (s *StatusBar) SetShortcuts(shortcuts []Shortcut) {
	s.Shortcuts = shortcuts
}

// View renders the status bar for the current width.
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	return s.viewWide()
}

// viewNarrow renders just the connection icon and state.
func (s *StatusBar) viewNarrow() string {
	content := s.connStyle().Render(s.Conn.Icon() + " " + s.Conn.String())
	return s.theme.StatusBar.Width(s.Width).Render(content)
}

// viewWide renders connection, user, presence summary, and shortcuts.
func (s *StatusBar) viewWide() string {
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	left := []string{s.connStyle().Render(s.Conn.Icon() + " " + s.Conn.String())}
	if s.UserName != "" {
		left = append(left, s.theme.HeaderSubtitle.Render(util.TruncateWidth(s.UserName, 20)))
	}
	if s.OnlineCount > 0 {
		left = append(left, s.theme.PresenceOnlineBadge.Render(
			util.IntToString(s.OnlineCount)+" online"))
	}
	leftSection := strings.Join(left, sep)

	rightSection := s.renderShortcuts()

	gap := s.Width - lipgloss.Width(leftSection) - lipgloss.Width(rightSection) - 2
	if gap < 1 {
		gap = 1
	}

	return s.theme.StatusBar.Width(s.Width).Render(
		leftSection + strings.Repeat(" ", gap) + rightSection)
}

// renderShortcuts renders the keyboard hints.
func (s *StatusBar) renderShortcuts() string {
	if len(s.Shortcuts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		parts = append(parts,
			s.theme.ShortcutKey.Render(sc.Key)+s.theme.ShortcutDesc.Render(" "+sc.Desc))
	}
	return strings.Join(parts, "  ")
}

// connStyle returns the style for the current connection state.
func (s *StatusBar) connStyle() lipgloss.Style {
	switch s.Conn {
	case ConnConnected:
		return s.theme.Connected
	case ConnConnecting, ConnReconnecting:
		return s.theme.Reconnecting
	default:
		return s.theme.Disconnected
	}
}
