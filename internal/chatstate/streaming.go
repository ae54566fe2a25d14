// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstate

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// =============================================================================
// STREAMING ACCUMULATOR
// =============================================================================

// Accumulator folds incremental AI-generation chunks into the last message
// of the active chat until a completion event supplies the final persisted
// message.
//
// PERFORMANCE: strings.Builder avoids quadratic allocations as chunks
// concatenate.
//
// One accumulation is active per chat at a time; chunks for a non-active
// chat never touch the running buffer because the engine's active-chat
// guard rejects the upsert before the buffer is advanced.
type Accumulator struct {
	mu     sync.Mutex
	engine *Engine
	buf    strings.Builder

	// chatID of the stream currently being folded; "" when idle.
	chatID string
}

// NewAccumulator creates an accumulator bound to the given engine.
func NewAccumulator(engine *Engine) *Accumulator {
	return &Accumulator{engine: engine}
}

// Chunk folds one generation chunk into the active chat's last message and
// republishes it with Streaming set. A chunk for a chat that is not active
// is ignored. A chunk arriving while the sequence is empty has no
// placeholder to fold into; it is dropped and counted as an anomaly.
func (a *Accumulator) Chunk(chatID, text string) {
	if text == "" {
		return
	}
	if a.engine.ActiveChatID() != chatID {
		return
	}

	snap, ok := a.engine.Snapshot()
	if !ok {
		return
	}
	last := snap.LastMessage()
	if last == nil {
		a.engine.noteDroppedChunk()
		log.Printf("chatstate: dropped stream chunk for chat %s: empty sequence", chatID)
		return
	}

	a.mu.Lock()
	if a.chatID != chatID {
		// New stream for a freshly opened chat; any leftover buffer belongs
		// to a chat that is no longer active.
		a.buf.Reset()
		a.chatID = chatID
	}
	a.buf.WriteString(text)
	content := a.buf.String()
	a.mu.Unlock()

	updated := *last
	updated.Content = content
	updated.Streaming = true
	updated.UpdatedAt = time.Now()
	a.engine.Upsert(chatID, updated, last.ID)
}

// Done installs the authoritative final message, replacing the in-progress
// entity wholesale, and resets the running buffer.
func (a *Accumulator) Done(chatID string, final model.Message) {
	final.Streaming = false
	if final.Status == "" {
		final.Status = model.StatusSent
	}
	a.engine.Upsert(chatID, final, final.ID)

	a.mu.Lock()
	a.buf.Reset()
	a.chatID = ""
	a.mu.Unlock()
}

// Reset drops any partial buffer. Called when the user leaves a chat so a
// later stream starts clean.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.buf.Reset()
	a.chatID = ""
	a.mu.Unlock()
}

// Pending returns the current buffered content, for status display.
func (a *Accumulator) Pending() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.String()
}
