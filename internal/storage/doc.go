// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local chat cache for pulsechat.
//
// The cache is a small sqlite database under ~/.pulsechat. It exists so a
// reopened chat paints instantly from local history while the authoritative
// refetch is still in flight; the server always wins once it answers.
// Rows store the JSON form of the model types, so schema churn in the
// backend never needs a cache migration - stale rows just fail to decode
// and are dropped.
package storage
