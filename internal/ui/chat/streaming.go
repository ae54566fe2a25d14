// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// =============================================================================
// SNAPSHOT COALESCER
// =============================================================================

// maxFPS caps how often a streaming conversation redraws. 30fps is smooth
// on every terminal tested and keeps CPU flat during fast generations.
const maxFPS = 30

// frameInterval is the tick period derived from maxFPS.
const frameInterval = time.Second / maxFPS

// Coalescer keeps only the newest conversation snapshot between frames.
//
// The engine publishes a snapshot per chunk, which during a fast AI stream
// can mean hundreds of updates per second. Writes land here from the socket
// goroutine; the Bubble Tea loop drains at most one snapshot per frame tick.
//
// Thread-safety: Offer and Take run on different goroutines.
type Coalescer struct {
	mu        sync.Mutex
	latest    model.Conversation
	dirty     bool
	lastDrain time.Time
}

// NewCoalescer creates an empty coalescer.
func NewCoalescer() *Coalescer {
	return &Coalescer{lastDrain: time.Now()}
}

// Offer stores a snapshot, overwriting any undrained one.
func (c *Coalescer) Offer(conv model.Conversation) {
	c.mu.Lock()
	c.latest = conv
	c.dirty = true
	c.mu.Unlock()
}

// Take returns the pending snapshot if the frame interval has elapsed since
// the last drain. The second return is false when there is nothing new or
// the frame budget is not yet spent.
func (c *Coalescer) Take() (model.Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty || time.Since(c.lastDrain) < frameInterval {
		return model.Conversation{}, false
	}
	c.dirty = false
	c.lastDrain = time.Now()
	return c.latest, true
}

// Force returns the pending snapshot regardless of the frame budget. Used
// when a stream completes so the final content renders immediately.
func (c *Coalescer) Force() (model.Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return model.Conversation{}, false
	}
	c.dirty = false
	c.lastDrain = time.Now()
	return c.latest, true
}

// Pending reports whether an undrained snapshot exists.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Reset drops any pending snapshot.
func (c *Coalescer) Reset() {
	c.mu.Lock()
	c.dirty = false
	c.lastDrain = time.Now()
	c.mu.Unlock()
}

// streamTickCmd schedules the next frame tick.
func streamTickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
