// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package socket

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/pulsechat-tui/internal/model"
)

// =============================================================================
// WIRE FORMAT
// =============================================================================

// frame is the envelope every websocket message travels in, both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Server-to-client event names.
const (
	evNewMessage      = "newMessage"
	evAIStream        = "chat:ai"
	evPresenceState   = "presence:state"
	evPresenceOnline  = "presence:online"
	evPresenceOffline = "presence:offline"
)

// Client-to-server event names.
const (
	evJoin  = "join"
	evLeave = "leave"
)

// aiPayload is the body of a chat:ai frame. Exactly one of Chunk or
// Message is meaningful: chunks arrive while Done is false, and the final
// frame carries Done plus the complete persisted message.
type aiPayload struct {
	ChatID  string         `json:"chatId"`
	Chunk   string         `json:"chunk,omitempty"`
	Done    bool           `json:"done,omitempty"`
	Message *model.Message `json:"message,omitempty"`
}

// presencePayload is the body of presence:online / presence:offline.
type presencePayload struct {
	UserID string `json:"userId"`
}

// presenceStatePayload is the full roster snapshot sent once on connect.
type presenceStatePayload struct {
	UserIDs []string `json:"userIds"`
}

// roomPayload is the body of join / leave frames.
type roomPayload struct {
	ChatID string `json:"chatId"`
}

// =============================================================================
// DECODED EVENTS
// =============================================================================

// Kind discriminates the events the client surfaces.
type Kind int

const (
	// KindNewMessage carries a persisted message from another participant.
	KindNewMessage Kind = iota
	// KindAIChunk carries one streaming fragment of an AI reply.
	KindAIChunk
	// KindAIDone carries the complete AI reply; it supersedes all chunks.
	KindAIDone
	// KindPresenceState carries the full online roster (sent on connect).
	KindPresenceState
	// KindPresenceOnline and KindPresenceOffline carry single-user deltas.
	KindPresenceOnline
	KindPresenceOffline
	// KindConnected fires after the first successful dial.
	KindConnected
	// KindReconnected fires after the channel is re-established; the UI
	// must refetch the open chat since events were lost in the gap.
	KindReconnected
	// KindDisconnected fires when the channel drops and redialing begins.
	KindDisconnected
)

// String returns the event name for logs.
func (k Kind) String() string {
	switch k {
	case KindNewMessage:
		return "newMessage"
	case KindAIChunk:
		return "aiChunk"
	case KindAIDone:
		return "aiDone"
	case KindPresenceState:
		return "presenceState"
	case KindPresenceOnline:
		return "presenceOnline"
	case KindPresenceOffline:
		return "presenceOffline"
	case KindConnected:
		return "connected"
	case KindReconnected:
		return "reconnected"
	case KindDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Event is one decoded occurrence on the realtime channel. Which fields
// are set depends on Kind.
type Event struct {
	Kind    Kind
	ChatID  string
	Chunk   string
	Message *model.Message
	UserID  string
	UserIDs []string
}

// decodeFrame turns a raw wire frame into an Event. Unknown event names
// return (Event{}, false, nil) so the read pump can skip them without
// tearing the connection down.
func decodeFrame(raw []byte) (Event, bool, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Event{}, false, fmt.Errorf("socket: bad frame: %w", err)
	}

	switch f.Event {
	case evNewMessage:
		var msg model.Message
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			return Event{}, false, fmt.Errorf("socket: bad %s payload: %w", f.Event, err)
		}
		return Event{Kind: KindNewMessage, ChatID: msg.ChatID, Message: &msg}, true, nil

	case evAIStream:
		var p aiPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return Event{}, false, fmt.Errorf("socket: bad %s payload: %w", f.Event, err)
		}
		if p.Done {
			return Event{Kind: KindAIDone, ChatID: p.ChatID, Message: p.Message}, true, nil
		}
		return Event{Kind: KindAIChunk, ChatID: p.ChatID, Chunk: p.Chunk}, true, nil

	case evPresenceState:
		var p presenceStatePayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return Event{}, false, fmt.Errorf("socket: bad %s payload: %w", f.Event, err)
		}
		return Event{Kind: KindPresenceState, UserIDs: p.UserIDs}, true, nil

	case evPresenceOnline, evPresenceOffline:
		var p presencePayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return Event{}, false, fmt.Errorf("socket: bad %s payload: %w", f.Event, err)
		}
		kind := KindPresenceOnline
		if f.Event == evPresenceOffline {
			kind = KindPresenceOffline
		}
		return Event{Kind: kind, UserID: p.UserID}, true, nil
	}

	return Event{}, false, nil
}

// encodeRoomFrame builds a join or leave frame for the given chat.
func encodeRoomFrame(event, chatID string) ([]byte, error) {
	data, err := json.Marshal(roomPayload{ChatID: chatID})
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Event: event, Data: data})
}
