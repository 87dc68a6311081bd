// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// The restitution backend owns all transcripts; these types mirror what the
// API returns plus the transient client-side state (optimistic entries,
// pending placeholders) that exists between a prompt submission and the
// next transcript refresh.
//
// # Key Types
//
//   - Message: a single exchange entry, ordered by its numeric ID
//   - Conversation: an ordered transcript plus the server-side identifiers
//
// # Message Identity
//
// Client-created entries use millisecond timestamps as IDs so they sort
// after everything the server already returned. Server IDs replace them on
// the next transcript refresh. Ordering is always ascending by ID.
package model
