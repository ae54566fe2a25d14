// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// ConversationLoadedMsg carries the fetched conversation after opening a
// chat (or refetching it on reconnect).
type ConversationLoadedMsg struct {
	Conversation model.Conversation
}

// ConversationErrMsg reports a failed conversation fetch.
type ConversationErrMsg struct {
	ChatID string
	Err    error
}

// SnapshotMsg carries a fresh conversation snapshot published by the
// reconciliation engine. Bridged from the engine subscription callback.
type SnapshotMsg struct {
	Conversation model.Conversation
}

// SendConfirmedMsg reports a successful send. TempID is the placeholder
// being resolved; AIStreaming is true when the chat is an AI chat and a
// streamed reply should be expected next.
type SendConfirmedMsg struct {
	TempID      string
	Final       model.Message
	AIStreaming bool
}

// SendFailedMsg reports a rejected or errored send. The placeholder stays
// in the timeline with a failed status until retried.
type SendFailedMsg struct {
	TempID string
	Err    error
}

// StreamTickMsg drives the render coalescer while a stream is active.
type StreamTickMsg struct {
	Time time.Time
}

// BackMsg asks the root model to return to the chat list.
type BackMsg struct{}
