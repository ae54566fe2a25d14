// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MESSAGE STATUS
// =============================================================================

// Status represents the delivery state of a message from this client's
// point of view.
type Status string

const (
	// StatusSending marks an optimistic entry awaiting server confirmation.
	StatusSending Status = "sending"
	// StatusSent marks a server-confirmed message.
	StatusSent Status = "sent"
	// StatusFailed marks an optimistic entry whose send was rejected.
	// The entry stays visible so the user can retry or delete it.
	StatusFailed Status = "failed"
)

// tempIDPrefix marks client-generated identifiers that exist only until the
// server confirms the send.
const tempIDPrefix = "tmp_"

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a chat's timeline.
//
// ID is either a server-assigned stable identifier or a client-generated
// temporary identifier (see NewTempID). Within one chat at most one entry
// carries a given temp ID, and the temp ID is replaced, never duplicated,
// once the server confirms the send.
type Message struct {
	ID      string `json:"id"`
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`

	Sender  Participant `json:"sender"`
	ReplyTo *Message    `json:"replyTo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Status Status `json:"status,omitempty"`

	// Streaming is true while an AI reply is still being generated for this
	// entry. A completion event replaces the entity wholesale and clears it.
	Streaming bool `json:"streaming,omitempty"`
}

// NewTempID generates a client-side temporary message identifier.
func NewTempID() string {
	return tempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id is a client-generated temporary identifier.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// NewOptimisticMessage builds the placeholder entry shown immediately when
// the user sends, before the server has confirmed anything.
func NewOptimisticMessage(chatID, content, image string, sender Participant, replyTo *Message) Message {
	now := time.Now()
	return Message{
		ID:        NewTempID(),
		ChatID:    chatID,
		Content:   content,
		Image:     image,
		Sender:    sender,
		ReplyTo:   replyTo,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusSending,
	}
}

// IsPending reports whether this entry is still awaiting confirmation.
func (m *Message) IsPending() bool {
	return m.Status == StatusSending
}

// Preview returns a truncated, single-line preview of the message content.
// Rune-based so multi-byte text truncates cleanly.
func (m *Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.Content, "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
