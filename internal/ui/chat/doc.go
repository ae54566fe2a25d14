// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the single-chat view for the pulsechat TUI.
//
// The view renders whatever conversation snapshot the reconciliation engine
// last published; it never mutates timeline state itself. User actions
// (send, retry, reply) go through the send pipeline and the REST client,
// and the results come back as Bubble Tea messages.
//
// During AI streaming, snapshots can arrive far faster than the terminal
// can usefully redraw. A coalescer keeps only the newest snapshot and a
// 30fps tick drains it, so a fast stream costs one render per frame
// instead of one per chunk.
package chat
