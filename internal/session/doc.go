// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates one prompt/reply exchange at a time.
//
// The Controller owns the exchange state machine: it records the optimistic
// user entry and the pending assistant placeholder, opens a transport
// delivery, folds the normalized events back into the transcript, and hands
// the finished reply to a reveal session. The UI layer stays a thin shell:
// it forwards events and ticks and renders whatever the transcript holds.
//
// # State Machine
//
//	Idle -> Sending -> AwaitingReply -> Revealing -> Idle
//
// An error or a user stop short-circuits back to Idle from any state. A
// generation counter stamps each exchange so events and ticks from a
// superseded exchange are dropped instead of corrupting the next one.
//
// # Key Types
//
//   - Controller: the exchange state machine
//   - State: lifecycle position
//
// # Usage
//
//	ctl := session.NewController(session.Config{Strategy: strat})
//	ctl.SelectConversation(conv)
//	sess, gen := ctl.SubmitPrompt(ctx, "Synthèse des entretiens")
//	for ev := range sess.Events() {
//		ctl.HandleEvent(gen, ev)
//	}
//	for ctl.Tick(gen) {
//	}
package session
