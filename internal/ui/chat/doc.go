// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation view of the restitution TUI.
//
// The Bubble Tea model here is deliberately thin: transcript and exchange
// state live in the session controller, transport events arrive as
// messages, and the view renders whatever the controller's conversation
// currently holds. Completed assistant replies go through Glamour for
// terminal markdown rendering; text still revealing is shown raw so the
// prefix grows without re-layout jumps.
//
// # Layout
//
//	┌ header ──────────────────────────────┐
//	│ sidebar │ transcript viewport        │
//	│         │                            │
//	│         ├ input area ────────────────┤
//	└ status bar ──────────────────────────┘
//
// The sidebar lists the user's conversations; in export mode it lists the
// transcript entries instead, with space toggling selection and enter
// writing the document. The prompt picker reuses the same surface to offer
// the recommended questionnaire treatments, composed against one of the
// documents already stored for the agent.
package chat
