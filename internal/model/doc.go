// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared between the state layer
// and the UI: messages, chats, participants, and the per-chat conversation
// snapshot.
//
// Types in this package are plain data. Mutation rules (ordering, dedup,
// temp-ID resolution) live in internal/chatstate; the UI only ever receives
// copies.
package model
