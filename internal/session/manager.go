// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pulsechat-tui/internal/model"
	"github.com/jeranaias/pulsechat-tui/internal/util"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks the authenticated session and its idle state.
type Manager struct {
	mu sync.Mutex

	user      model.Participant
	token     string
	signedIn  bool
	startTime time.Time

	// Idle tracking
	lastActivity time.Time
	idleTimeout  time.Duration // 0 = auto-signout disabled
	warningBefore time.Duration
	warningShown bool

	// persist saves the token whenever it changes. Nil = in-memory only.
	persist func(token string) error

	onWarning func(remaining time.Duration)
	onSignOut func()
}

// Config holds configuration for the session manager.
type Config struct {
	// IdleTimeout signs the user out after this much inactivity.
	// Zero disables auto-signout.
	IdleTimeout time.Duration

	// WarningBefore is how long before sign-out to warn (default: 1 minute).
	WarningBefore time.Duration

	// Persist is called with the new token on sign-in and with "" on
	// sign-out so credentials survive restarts.
	Persist func(token string) error
}

// NewManager creates a session manager. The session starts signed out.
func NewManager(cfg Config) *Manager {
	warn := cfg.WarningBefore
	if warn == 0 {
		warn = time.Minute
	}
	now := time.Now()
	return &Manager{
		startTime:     now,
		lastActivity:  now,
		idleTimeout:   cfg.IdleTimeout,
		warningBefore: warn,
		persist:       cfg.Persist,
	}
}

// =============================================================================
// AUTH STATE
// =============================================================================

// SignIn records the authenticated user and persists the token.
func (m *Manager) SignIn(user model.Participant, token string) error {
	m.mu.Lock()
	m.user = user
	m.token = token
	m.signedIn = true
	m.lastActivity = time.Now()
	m.warningShown = false
	persist := m.persist
	m.mu.Unlock()

	if persist != nil {
		return persist(token)
	}
	return nil
}

// SignOut clears the session and the persisted token.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	m.user = model.Participant{}
	m.token = ""
	m.signedIn = false
	persist := m.persist
	m.mu.Unlock()

	if persist != nil {
		return persist("")
	}
	return nil
}

// Resume restores a session from a persisted token without re-persisting
// it. The user is filled in once a profile fetch confirms the token.
func (m *Manager) Resume(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.signedIn = token != ""
	m.lastActivity = time.Now()
}

// SetUser updates the user record (e.g. after an avatar upload).
func (m *Manager) SetUser(user model.Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
}

// User returns the signed-in user.
func (m *Manager) User() model.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Token returns the current bearer token ("" when signed out).
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// SignedIn reports whether a user is authenticated.
func (m *Manager) SignedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signedIn
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// RecordActivity updates the last activity timestamp. Call on user input.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
	m.warningShown = false
}

// IdleTime returns how long since last activity.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActivity)
}

// RemainingTime returns time until auto-signout (0 when disabled or due).
func (m *Manager) RemainingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idleTimeout == 0 {
		return 0
	}
	remaining := m.idleTimeout - time.Since(m.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired returns true if the idle timeout has elapsed.
func (m *Manager) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiredLocked()
}

func (m *Manager) expiredLocked() bool {
	if m.idleTimeout == 0 || !m.signedIn {
		return false
	}
	return time.Since(m.lastActivity) >= m.idleTimeout
}

// =============================================================================
// CALLBACKS
// =============================================================================

// SetWarningCallback sets the function called when sign-out approaches.
func (m *Manager) SetWarningCallback(fn func(remaining time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWarning = fn
}

// SetSignOutCallback sets the function called on idle sign-out.
func (m *Manager) SetSignOutCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSignOut = fn
}

// Check evaluates idle state and triggers callbacks. Returns true while
// the session is still valid.
func (m *Manager) Check() bool {
	m.mu.Lock()
	expired := m.expiredLocked()

	shouldWarn := false
	var remaining time.Duration
	if m.idleTimeout > 0 && m.signedIn && !m.warningShown && !expired {
		idle := time.Since(m.lastActivity)
		if idle >= m.idleTimeout-m.warningBefore {
			shouldWarn = true
			remaining = m.idleTimeout - idle
			m.warningShown = true
		}
	}
	onWarning := m.onWarning
	onSignOut := m.onSignOut
	m.mu.Unlock()

	// Callbacks run outside the lock.
	if shouldWarn && onWarning != nil {
		onWarning(remaining)
	}
	if expired {
		m.SignOut()
		if onSignOut != nil {
			onSignOut()
		}
	}
	return !expired
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// TickMsg is sent periodically to check session state.
type TickMsg struct {
	Time time.Time
}

// IdleWarningMsg indicates auto-signout is approaching.
type IdleWarningMsg struct {
	Remaining time.Duration
}

// SignedOutMsg indicates the session ended due to inactivity.
type SignedOutMsg struct{}

// TickCmd returns a command that ticks once per second.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// HandleTick processes a tick and emits idle-state messages.
func (m *Manager) HandleTick() tea.Cmd {
	var cmds []tea.Cmd

	m.mu.Lock()
	expired := m.expiredLocked()
	shouldWarn := false
	var remaining time.Duration
	if m.idleTimeout > 0 && m.signedIn && !m.warningShown && !expired {
		idle := time.Since(m.lastActivity)
		if idle >= m.idleTimeout-m.warningBefore {
			shouldWarn = true
			remaining = m.idleTimeout - idle
			m.warningShown = true
		}
	}
	m.mu.Unlock()

	if shouldWarn {
		cmds = append(cmds, func() tea.Msg {
			return IdleWarningMsg{Remaining: remaining}
		})
	}
	if expired {
		m.SignOut()
		cmds = append(cmds, func() tea.Msg {
			return SignedOutMsg{}
		})
	}

	cmds = append(cmds, TickCmd())
	return tea.Batch(cmds...)
}

// =============================================================================
// STATUS
// =============================================================================

// Status is a point-in-time view for the status bar.
type Status struct {
	User          model.Participant
	SignedIn      bool
	Duration      time.Duration
	IdleTime      time.Duration
	RemainingTime time.Duration
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var remaining time.Duration
	if m.idleTimeout > 0 {
		remaining = m.idleTimeout - now.Sub(m.lastActivity)
		if remaining < 0 {
			remaining = 0
		}
	}
	return Status{
		User:          m.user,
		SignedIn:      m.signedIn,
		Duration:      now.Sub(m.startTime),
		IdleTime:      now.Sub(m.lastActivity),
		RemainingTime: remaining,
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return util.IntToString(int(d.Seconds())) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToString(mins) + "m"
	}
	return util.IntToString(mins) + "m " + util.IntToString(secs) + "s"
}
