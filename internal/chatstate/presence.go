// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstate

import "sync"

// =============================================================================
// PRESENCE SET
// =============================================================================

// Presence tracks which user IDs are currently connected to the real-time
// channel. It is written only from socket events: a full snapshot replaces
// the set on connect, individual online/offline events adjust it, and a
// disconnect clears it.
//
// Read by many components, so it carries its own lock rather than borrowing
// the engine's.
type Presence struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

// NewPresence creates an empty presence set.
func NewPresence() *Presence {
	return &Presence{set: make(map[string]struct{})}
}

// Online reports whether userID is currently connected. An empty ID is
// never online.
func (p *Presence) Online(userID string) bool {
	if userID == "" {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.set[userID]
	return ok
}

// Replace installs a full presence snapshot, discarding the previous set.
// Used for the state event delivered on connect and after reconnects.
func (p *Presence) Replace(userIDs []string) {
	next := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			next[id] = struct{}{}
		}
	}
	p.mu.Lock()
	p.set = next
	p.mu.Unlock()
}

// Add marks a user as online.
func (p *Presence) Add(userID string) {
	if userID == "" {
		return
	}
	p.mu.Lock()
	p.set[userID] = struct{}{}
	p.mu.Unlock()
}

// Remove marks a user as offline.
func (p *Presence) Remove(userID string) {
	p.mu.Lock()
	delete(p.set, userID)
	p.mu.Unlock()
}

// Clear empties the set. Called when the socket connection drops, since
// stale presence is worse than none.
func (p *Presence) Clear() {
	p.mu.Lock()
	p.set = make(map[string]struct{})
	p.mu.Unlock()
}

// Count returns the number of online users.
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.set)
}
