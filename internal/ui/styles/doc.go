// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the restitution TUI.
//
// All colors are Lip Gloss adaptive pairs so the interface stays readable on
// both light and dark terminals. The Theme detects the terminal's color
// profile through termenv once at startup and hands pre-built styles to the
// chat view; nothing here re-detects per frame.
package styles
