// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the REST client for the chat backend.
//
// The backend is an external collaborator; this package only reproduces its
// interface: chats, messages, users, avatar upload, and the auth endpoints
// needed to hold a bearer token. Transient failures (5xx, 429) are retried
// with exponential backoff; everything else surfaces as a typed error the
// UI can toast without corrupting conversation state.
package api
