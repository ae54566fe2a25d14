// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the signed-in user across the program lifetime.
//
// The Manager owns the current user, the bearer token, and an optional
// idle timeout: when the user goes quiet for long enough a warning fires,
// and then an automatic sign-out. Token persistence is delegated to a
// callback so this package stays independent of the config layer.
package session
