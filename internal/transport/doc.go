// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport delivers assistant replies over the restitution API.
//
// Two delivery strategies exist behind one interface: an SSE stream that
// emits deltas as the backend produces them, and a submit-then-poll
// fallback for deployments where the streaming endpoint is unavailable.
// Both are normalized to the same event vocabulary so nothing above this
// package knows which one ran.
//
// # Key Types
//
//   - Event: normalized unit (partial, done, error)
//   - Strategy: one-reply delivery contract
//   - Session: a cancellable in-flight delivery with an event channel
//   - StreamStrategy: SSE over POST
//   - PollStrategy: submit then poll at a fixed interval
//
// # Event Contract
//
// A delivery emits zero or more partial events followed by exactly one
// terminal event (done or error). A done event carries the full reply
// text; a truncated stream still produces a done event, flagged
// Incomplete, carrying whatever arrived. After Session.Cancel nothing
// further is emitted.
//
// # Usage
//
//	sess := transport.Open(ctx, strategy, transport.Request{
//	    Message:        prompt,
//	    ConversationID: conv.ConversationID,
//	    ProjectName:    projectName,
//	})
//	for ev := range sess.Events() {
//	    // handle ev
//	}
package transport
