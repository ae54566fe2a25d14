// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstate

import (
	"sort"
	"sync"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Unsubscribe removes a subscription registered with Engine.Subscribe.
// Safe to call more than once.
type Unsubscribe func()

// subscriber is one registered snapshot consumer, scoped to a chat ID.
type subscriber struct {
	chatID string
	fn     func(model.Conversation)
}

// =============================================================================
// RECONCILIATION ENGINE
// =============================================================================

// Engine owns the conversation state for the currently open chat plus the
// chat list and user directory. It is the only writer of that state.
//
// Mutations are serialized by an internal mutex: socket callbacks arrive on
// their own goroutine before the Bubble Tea loop bridges them, so the engine
// cannot rely on the UI thread alone for atomicity.
type Engine struct {
	mu sync.Mutex

	// Active conversation; nil when no chat is open.
	active *model.Conversation

	// Chat list and user directory, as fetched from the backend.
	chats []model.Chat
	users []model.Participant

	// Presence oracle, shared with the socket layer.
	presence *Presence

	subscribers map[int]subscriber
	nextSubID   int

	// droppedChunks counts streaming chunks that arrived with no placeholder
	// message to fold into (an anomaly, not an error).
	droppedChunks int
}

// NewEngine creates a reconciliation engine bound to the given presence set.
// A nil presence is replaced with an empty one.
func NewEngine(presence *Presence) *Engine {
	if presence == nil {
		presence = NewPresence()
	}
	return &Engine{
		presence:    presence,
		subscribers: make(map[int]subscriber),
	}
}

// Presence returns the engine's presence oracle.
func (e *Engine) Presence() *Presence {
	return e.presence
}

// =============================================================================
// ACTIVE CONVERSATION LIFECYCLE
// =============================================================================

// SetActive installs a freshly fetched conversation as the active one,
// replacing whatever was open before. The engine takes ownership of the
// value; callers must not retain references into it.
func (e *Engine) SetActive(conv model.Conversation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sortMessages(&conv)
	e.active = &conv
	e.publishLocked()
}

// ClearActive closes the open chat. Subsequent Upsert/AppendIncoming calls
// for its chat ID become no-ops, which is how in-flight events for a chat
// the user has left are cancelled.
func (e *Engine) ClearActive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = nil
}

// ActiveChatID returns the open chat's ID, or "" when none is open.
func (e *Engine) ActiveChatID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return ""
	}
	return e.active.Chat.ID
}

// Snapshot returns a copy of the active conversation. The second return is
// false when no chat is open.
func (e *Engine) Snapshot() (model.Conversation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return model.Conversation{}, false
	}
	return e.active.Clone(), true
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Upsert merges one message into the active conversation.
//
// If tempID is non-empty and an entry with that ID exists, the entry is
// replaced in place — unless the final ID already landed via another path
// (the socket push of the same send), in which case the placeholder is
// removed instead so msg.ID stays unique. If tempID is non-empty but absent
// (the confirmation outran the placeholder), msg is appended only when its
// own ID is not already present. With no tempID, the engine replaces by
// msg.ID when found and appends otherwise.
//
// Calls for a chat other than the active one are no-ops. After any change
// the sequence is re-sorted ascending by CreatedAt and a fresh snapshot is
// published to subscribers.
func (e *Engine) Upsert(chatID string, msg model.Message, tempID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil || e.active.Chat.ID != chatID {
		return
	}

	if tempID != "" {
		if i := e.active.MessageByID(tempID); i >= 0 {
			if msg.ID != tempID && e.active.HasMessage(msg.ID) {
				// The socket copy of this send settled first; replacing the
				// placeholder would leave two entries with the final ID.
				e.active.Messages = append(e.active.Messages[:i], e.active.Messages[i+1:]...)
			} else {
				e.active.Messages[i] = msg
			}
		} else if !e.active.HasMessage(msg.ID) {
			e.active.Messages = append(e.active.Messages, msg)
		} else {
			// Confirmation already reconciled via another path; nothing to do,
			// but fall through so the snapshot still publishes the latest state.
			e.sortMessages(e.active)
			e.publishLocked()
			return
		}
	} else {
		if i := e.active.MessageByID(msg.ID); i >= 0 {
			e.active.Messages[i] = msg
		} else {
			e.active.Messages = append(e.active.Messages, msg)
		}
	}

	e.sortMessages(e.active)
	e.publishLocked()
}

// AppendIncoming adds a server-pushed message carrying a final ID. It is a
// no-op when the chat is not active or when an entry with that ID already
// exists — the same send may arrive via both the REST response and a socket
// push, and ID equality is the single dedup criterion regardless of which
// lands first.
func (e *Engine) AppendIncoming(chatID string, msg model.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil || e.active.Chat.ID != chatID {
		return
	}
	if e.active.HasMessage(msg.ID) {
		return
	}

	e.active.Messages = append(e.active.Messages, msg)
	e.sortMessages(e.active)
	e.publishLocked()
}

// sortMessages restores the ascending-by-CreatedAt invariant. Stable so
// equal timestamps keep arrival order.
func (e *Engine) sortMessages(conv *model.Conversation) {
	sort.SliceStable(conv.Messages, func(i, j int) bool {
		return conv.Messages[i].CreatedAt.Before(conv.Messages[j].CreatedAt)
	})
}

// =============================================================================
// CHAT LIST / USER DIRECTORY
// =============================================================================

// SetChats replaces the chat list (fetch result).
func (e *Engine) SetChats(chats []model.Chat) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chats = append([]model.Chat(nil), chats...)
}

// Chats returns a copy of the chat list.
func (e *Engine) Chats() []model.Chat {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Chat(nil), e.chats...)
}

// AddChat prepends a newly created chat. Duplicate IDs are ignored.
func (e *Engine) AddChat(chat model.Chat) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.chats {
		if e.chats[i].ID == chat.ID {
			return
		}
	}
	e.chats = append([]model.Chat{chat}, e.chats...)
}

// UpdateLastMessage updates the preview message on a chat-list entry.
func (e *Engine) UpdateLastMessage(chatID string, msg model.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.chats {
		if e.chats[i].ID == chatID {
			m := msg
			e.chats[i].LastMessage = &m
			return
		}
	}
}

// SetUsers replaces the user directory (fetch result).
func (e *Engine) SetUsers(users []model.Participant) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.users = append([]model.Participant(nil), users...)
}

// Users returns a copy of the user directory.
func (e *Engine) Users() []model.Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Participant(nil), e.users...)
}

// =============================================================================
// PRESENCE-DERIVED STATUS
// =============================================================================

// IsOnline reports whether the given user should display as online. An AI
// participant of the active chat is always online; everyone else is looked
// up in the presence set.
func (e *Engine) IsOnline(userID string) bool {
	e.mu.Lock()
	if e.active != nil {
		for i := range e.active.Chat.Participants {
			p := &e.active.Chat.Participants[i]
			if p.ID == userID && p.IsAI {
				e.mu.Unlock()
				return true
			}
		}
	}
	e.mu.Unlock()
	return e.presence.Online(userID)
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to receive a conversation snapshot after every
// mutation of the given chat while it is active. The returned Unsubscribe
// stops delivery; it is idempotent.
//
// Callbacks run synchronously on the mutating goroutine and receive a copy,
// so they may hand the value to another goroutine (e.g. a tea.Program.Send)
// but must not block for long.
func (e *Engine) Subscribe(chatID string, fn func(model.Conversation)) Unsubscribe {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = subscriber{chatID: chatID, fn: fn}
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subscribers, id)
			e.mu.Unlock()
		})
	}
}

// publishLocked delivers a fresh snapshot to subscribers of the active chat.
// Caller holds e.mu. The snapshot is cloned once and shared; it is a copy,
// so subscribers cannot corrupt engine state.
func (e *Engine) publishLocked() {
	if e.active == nil || len(e.subscribers) == 0 {
		return
	}
	var snap model.Conversation
	cloned := false
	for _, sub := range e.subscribers {
		if sub.chatID != e.active.Chat.ID {
			continue
		}
		if !cloned {
			snap = e.active.Clone()
			cloned = true
		}
		sub.fn(snap)
	}
}

// DroppedChunks returns how many streaming chunks were discarded because no
// placeholder message existed to fold them into.
func (e *Engine) DroppedChunks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.droppedChunks
}

// noteDroppedChunk records a discarded streaming chunk.
func (e *Engine) noteDroppedChunk() {
	e.mu.Lock()
	e.droppedChunks++
	e.mu.Unlock()
}
