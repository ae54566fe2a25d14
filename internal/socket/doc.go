// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package socket maintains the realtime channel to the chat backend.
//
// A single Client owns the websocket connection and two pump goroutines.
// Decoded events (new messages, AI stream chunks, presence changes) are
// delivered on the Events channel; the UI drains it and feeds the state
// engine. The connection self-heals: on any read/write failure the client
// redials with capped exponential backoff and emits KindReconnected so the
// UI can refetch whatever it has open.
package socket
