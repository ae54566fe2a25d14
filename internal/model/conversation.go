// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the open chat plus its ordered message timeline.
//
// The reconciliation engine owns the live instance; everything handed to the
// UI is a copy produced by Clone, so components can render freely without
// racing the engine.
type Conversation struct {
	Chat     Chat      `json:"chat"`
	Messages []Message `json:"messages"`
}

// LastMessage returns a pointer to the most recent message, or nil if the
// timeline is empty. The pointer is into the receiver's slice.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// MessageByID returns the index of the message with the given id, or -1.
func (c *Conversation) MessageByID(id string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// HasMessage reports whether a message with the given id is present.
func (c *Conversation) HasMessage(id string) bool {
	return c.MessageByID(id) >= 0
}

// Clone returns a deep enough copy for read-only consumers: the message
// slice is copied, so appends and in-place replacements in the engine do
// not show through. ReplyTo pointers still reference shared immutable
// snapshots of earlier messages.
func (c *Conversation) Clone() Conversation {
	clone := Conversation{Chat: c.Chat}
	clone.Chat.Participants = append([]Participant(nil), c.Chat.Participants...)
	clone.Messages = append([]Message(nil), c.Messages...)
	return clone
}
