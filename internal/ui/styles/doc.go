// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the pulsechat TUI.
//
// The palette is a fixed set of lipgloss.AdaptiveColor values so every
// component renders correctly on both light and dark terminals. Theme
// bundles the palette into ready-to-use lipgloss styles; construct one
// with NewTheme at startup and share it across components.
package styles
