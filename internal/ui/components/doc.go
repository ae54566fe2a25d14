// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the pulsechat TUI.
//
// Everything here is presentation only: components take state in, render
// strings out, and never talk to the network or the chat engine directly.
// The toast stack is the error surface for the whole app - failures from
// the REST client, the socket, and the cache all land here as
// non-blocking notifications.
package components
