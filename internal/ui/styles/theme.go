// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// CHAT LIST STYLES
	// ==========================================================================

	ChatList             lipgloss.Style
	ChatItem             lipgloss.Style
	ChatItemSelected     lipgloss.Style
	ChatItemName         lipgloss.Style
	ChatItemPreview      lipgloss.Style
	ChatItemTime         lipgloss.Style
	PresenceOnlineBadge  lipgloss.Style
	PresenceOfflineBadge lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	OwnBubble     lipgloss.Style
	PeerBubble    lipgloss.Style
	AIBubble      lipgloss.Style
	SenderName    lipgloss.Style
	Timestamp     lipgloss.Style
	SendingStatus lipgloss.Style
	FailedStatus  lipgloss.Style
	ReplyQuote    lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	Connected    lipgloss.Style
	Reconnecting lipgloss.Style
	Disconnected lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// TOAST STYLES
	// ==========================================================================

	ToastError   lipgloss.Style
	ToastWarning lipgloss.Style
	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style

	// ==========================================================================
	// MISC
	// ==========================================================================

	Spinner     lipgloss.Style
	TypingText  lipgloss.Style
	LoginBox    lipgloss.Style
	LoginLabel  lipgloss.Style
	LoginButton lipgloss.Style
}

// NewTheme creates a theme sized for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.HasTrueColor = t.ColorProfile == termenv.TrueColor
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Container = lipgloss.NewStyle().
		Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Chat list
	t.ChatList = lipgloss.NewStyle().
		Padding(0, 1)
	t.ChatItem = lipgloss.NewStyle().
		Padding(0, 1)
	t.ChatItemSelected = lipgloss.NewStyle().
		Padding(0, 1).
		Background(SurfaceBright).
		Bold(true)
	t.ChatItemName = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)
	t.ChatItemPreview = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.ChatItemTime = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.PresenceOnlineBadge = lipgloss.NewStyle().
		Foreground(PresenceOnline)
	t.PresenceOfflineBadge = lipgloss.NewStyle().
		Foreground(PresenceOffline)

	// Message bubbles
	t.OwnBubble = lipgloss.NewStyle().
		Foreground(OwnBubbleFg).
		Background(OwnBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(OwnBubbleBorder).
		Padding(0, 1)
	t.PeerBubble = lipgloss.NewStyle().
		Foreground(PeerBubbleFg).
		Background(PeerBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(PeerBubbleBorder).
		Padding(0, 1)
	t.AIBubble = lipgloss.NewStyle().
		Foreground(AIBubbleFg).
		Background(AIBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AIBubbleBorder).
		Padding(0, 1)
	t.SenderName = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.SendingStatus = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)
	t.FailedStatus = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
	t.ReplyQuote = lipgloss.NewStyle().
		Foreground(TextMuted).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.Connected = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)
	t.Reconnecting = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
	t.Disconnected = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Toasts
	toast := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Bold(true)
	t.ToastError = toast.
		Foreground(Rose).
		BorderForeground(Rose)
	t.ToastWarning = toast.
		Foreground(Amber).
		BorderForeground(Amber)
	t.ToastInfo = toast.
		Foreground(Cyan).
		BorderForeground(Cyan)
	t.ToastSuccess = toast.
		Foreground(Emerald).
		BorderForeground(Emerald)

	// Misc
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)
	t.TypingText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.LoginBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 3)
	t.LoginLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.LoginButton = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 2).
		Bold(true)
}

// SetSize updates the layout dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// LayoutMode describes how much room the terminal gives us.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota
	LayoutNormal
	LayoutWide
)

// GetLayoutMode returns the layout mode for the current width.
func (t *Theme) GetLayoutMode() LayoutMode {
	switch {
	case t.Width < 60:
		return LayoutNarrow
	case t.Width < 120:
		return LayoutNormal
	default:
		return LayoutWide
	}
}
