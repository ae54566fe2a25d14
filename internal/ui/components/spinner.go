// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pulsechat-tui/internal/ui/styles"
	"github.com/jeranaias/pulsechat-tui/internal/util"
)

// =============================================================================
// SPINNER
// =============================================================================

// Spinner is a loading spinner with a message, used while chats or a
// conversation history are being fetched.
type Spinner struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	active    bool
	showTimer bool
}

// NewSpinner creates an ASCII-safe line spinner.
func NewSpinner(message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	return Spinner{
		spinner: s,
		message: message,
	}
}

// SetMessage sets the text displayed next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.message = msg
}

// SetShowTimer enables the elapsed time suffix.
func (s *Spinner) SetShowTimer(show bool) {
	s.showTimer = show
}

// Start activates the spinner and records the start time.
func (s *Spinner) Start() tea.Cmd {
	s.active = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.active = false
}

// IsActive returns whether the spinner is currently running.
func (s *Spinner) IsActive() bool {
	return s.active
}

// Elapsed returns the duration since the spinner started.
func (s *Spinner) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Update handles spinner tick messages.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.active {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner with its message.
func (s Spinner) View() string {
	if !s.active {
		return ""
	}

	frame := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Render(s.spinner.View())
	message := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(s.message)

	result := frame + " " + message

	if s.showTimer && !s.startTime.IsZero() {
		result += lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(" (" + formatElapsed(s.Elapsed()) + ")")
	}
	return result
}

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// TypingIndicator is shown in place of the assistant's reply bubble between
// the user's send and the first streamed chunk.
type TypingIndicator struct {
	spinner Spinner
	name    string
}

// NewTypingIndicator creates a typing indicator for the named sender.
func NewTypingIndicator(name string) TypingIndicator {
	if name == "" {
		name = "Assistant"
	}
	return TypingIndicator{
		spinner: NewSpinner(name + " is typing..."),
		name:    name,
	}
}

// Start begins the animation.
func (t *TypingIndicator) Start() tea.Cmd {
	return t.spinner.Start()
}

// Stop ends the animation.
func (t *TypingIndicator) Stop() {
	t.spinner.Stop()
}

// IsActive returns whether the indicator is visible.
func (t *TypingIndicator) IsActive() bool {
	return t.spinner.IsActive()
}

// Update handles messages.
func (t TypingIndicator) Update(msg tea.Msg) (TypingIndicator, tea.Cmd) {
	var cmd tea.Cmd
	t.spinner, cmd = t.spinner.Update(msg)
	return t, cmd
}

// View renders the indicator.
func (t TypingIndicator) View() string {
	if !t.spinner.IsActive() {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render(t.spinner.View())
}

// formatElapsed formats a duration for spinner display.
func formatElapsed(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return util.IntToString(seconds) + "s"
	}
	return util.IntToString(seconds/60) + "m " + util.IntToString(seconds%60) + "s"
}
