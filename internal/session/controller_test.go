// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/restitution-tui/internal/model"
	"github.com/jeranaias/restitution-tui/internal/reveal"
	"github.com/jeranaias/restitution-tui/internal/transport"
)

// =============================================================================
// TEST STRATEGIES
// =============================================================================

// scriptedStrategy replays a fixed event sequence.
type scriptedStrategy struct {
	name   string
	events []transport.Event
}

func (s *scriptedStrategy) Name() string { return s.name }

func (s *scriptedStrategy) Deliver(_ context.Context, _ transport.Request, emit func(transport.Event)) {
	for _, ev := range s.events {
		emit(ev)
	}
}

// blockingStrategy holds the delivery open until released or cancelled.
type blockingStrategy struct {
	release chan struct{}
}

func (b *blockingStrategy) Name() string { return "blocking" }

func (b *blockingStrategy) Deliver(ctx context.Context, _ transport.Request, emit func(transport.Event)) {
	select {
	case <-b.release:
		emit(transport.Event{Kind: transport.EventDone, Text: "ok"})
	case <-ctx.Done():
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func fastReveal() reveal.Config {
	return reveal.Config{Interval: time.Millisecond, Chunk: 4, Policy: reveal.PolicyTick}
}

func newTestController(strat transport.Strategy) (*Controller, *model.Conversation) {
	c := NewController(Config{Strategy: strat, Reveal: fastReveal(), ProjectName: "restitution"})
	conv := model.NewConversation(1, "conv-abc")
	c.SelectConversation(conv)
	return c, conv
}

// runExchange drains the delivery's events and ticks the reveal to its end.
func runExchange(t *testing.T, c *Controller, sess *transport.Session, gen uint64) {
	t.Helper()
	require.NotNil(t, sess)
	for ev := range sess.Events() {
		c.HandleEvent(gen, ev)
	}
	for c.Tick(gen) {
	}
}

func transcript(conv *model.Conversation) []string {
	out := make([]string, 0, conv.Len())
	for _, m := range conv.Messages {
		out = append(out, m.Role.String()+": "+m.DisplayText())
	}
	return out
}

// =============================================================================
// TESTS
// =============================================================================

func TestSubmitPromptGuards(t *testing.T) {
	strat := &blockingStrategy{release: make(chan struct{})}
	c, _ := newTestController(strat)

	sess, gen := c.SubmitPrompt(context.Background(), "   \n  ")
	assert.Nil(t, sess, "blank prompt must be a no-op")
	assert.Zero(t, gen)

	noConv := NewController(Config{Strategy: strat, Reveal: fastReveal()})
	sess, _ = noConv.SubmitPrompt(context.Background(), "Bonjour")
	assert.Nil(t, sess, "no conversation selected must be a no-op")

	first, firstGen := c.SubmitPrompt(context.Background(), "Première question")
	require.NotNil(t, first)
	require.Equal(t, StateAwaitingReply, c.State())

	second, _ := c.SubmitPrompt(context.Background(), "Deuxième question")
	assert.Nil(t, second, "submit while in flight must be a no-op")

	close(strat.release)
	runExchange(t, c, first, firstGen)
	assert.Equal(t, StateIdle, c.State())
}

func TestExchangeDeliversReply(t *testing.T) {
	strat := &scriptedStrategy{name: "stream", events: []transport.Event{
		{Kind: transport.EventPartial, Text: "Salut"},
		{Kind: transport.EventPartial, Text: " toi"},
		{Kind: transport.EventDone, Text: "Salut toi"},
	}}
	c, conv := newTestController(strat)

	sess, gen := c.SubmitPrompt(context.Background(), "Dis bonjour")
	runExchange(t, c, sess, gen)

	require.Equal(t, 2, conv.Len())
	user, reply := conv.Messages[0], conv.Messages[1]
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "Dis bonjour", user.Prompt)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, "Salut toi", reply.Content)
	assert.False(t, reply.Pending)

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Notice())
	assert.True(t, c.ConsumeRefresh(), "completed reveal flags a transcript refresh")
	assert.False(t, c.ConsumeRefresh(), "refresh flag is consumed once")
}

func TestStrategiesProduceSameTranscript(t *testing.T) {
	// A stream delivers deltas then the full text; a poll delivers the
	// full text once then done. The transcript must not depend on which.
	streamed := &scriptedStrategy{name: "stream", events: []transport.Event{
		{Kind: transport.EventPartial, Text: "Voici "},
		{Kind: transport.EventPartial, Text: "la synthèse."},
		{Kind: transport.EventDone, Text: "Voici la synthèse."},
	}}
	polled := &scriptedStrategy{name: "poll", events: []transport.Event{
		{Kind: transport.EventPartial, Text: "Voici la synthèse."},
		{Kind: transport.EventDone, Text: "Voici la synthèse."},
	}}

	c1, conv1 := newTestController(streamed)
	sess, gen := c1.SubmitPrompt(context.Background(), "Synthèse")
	runExchange(t, c1, sess, gen)

	c2, conv2 := newTestController(polled)
	sess, gen = c2.SubmitPrompt(context.Background(), "Synthèse")
	runExchange(t, c2, sess, gen)

	got1 := transcript(conv1)
	got2 := transcript(conv2)
	// Client-side IDs are timestamps, so compare roles and text only.
	assert.Equal(t, got1, got2)
	assert.Equal(t, []string{"user: Synthèse", "assistant: Voici la synthèse."}, got1)
}

func TestErrorKeepsPartialText(t *testing.T) {
	strat := &scriptedStrategy{events: []transport.Event{
		{Kind: transport.EventPartial, Text: "Salut"},
		{Kind: transport.EventError, Err: errors.New("panne serveur")},
	}}
	c, conv := newTestController(strat)

	sess, gen := c.SubmitPrompt(context.Background(), "Dis bonjour")
	runExchange(t, c, sess, gen)

	require.Equal(t, 1, conv.Len(), "the unacknowledged prompt is discarded, the partial reply stays")
	reply := conv.LastAssistant()
	require.NotNil(t, reply)
	assert.Equal(t, "Salut", reply.Content)
	assert.False(t, reply.Pending)
	assert.Equal(t, "panne serveur", c.Notice())
	assert.Equal(t, StateIdle, c.State())

	// Nothing is retried on its own; the next submission is a fresh one.
	again, _ := c.SubmitPrompt(context.Background(), "Dis bonjour")
	require.NotNil(t, again, "the controller must accept a resubmission after an error")
}

func TestErrorBeforeContentRemovesBothEntries(t *testing.T) {
	strat := &scriptedStrategy{events: []transport.Event{
		{Kind: transport.EventError, Err: transport.ErrSubmitRejected},
	}}
	c, conv := newTestController(strat)

	sess, gen := c.SubmitPrompt(context.Background(), "Dis bonjour")
	runExchange(t, c, sess, gen)

	assert.Equal(t, 0, conv.Len(), "prompt and empty placeholder are both removed")
	assert.Equal(t, transport.ErrSubmitRejected.Error(), c.Notice())
	assert.Equal(t, StateIdle, c.State())
}

func TestStopFreezesRevealPrefix(t *testing.T) {
	strat := &scriptedStrategy{events: []transport.Event{
		{Kind: transport.EventDone, Text: "Bonjour, voici la synthèse."},
	}}
	c, conv := newTestController(strat)

	sess, gen := c.SubmitPrompt(context.Background(), "Synthèse")
	require.NotNil(t, sess)
	for ev := range sess.Events() {
		c.HandleEvent(gen, ev)
	}
	require.Equal(t, StateRevealing, c.State())

	require.True(t, c.Tick(gen), "reveal needs more ticks")
	reply := conv.LastAssistant()
	require.NotNil(t, reply)
	require.Equal(t, "Bonj", reply.Content)

	c.Stop()

	assert.Equal(t, "Bonj", reply.Content, "revealed prefix is frozen")
	assert.False(t, reply.Pending)
	assert.Equal(t, 2, conv.Len(), "an acknowledged prompt stays with its frozen reply")
	assert.Equal(t, NoticeStopped, c.Notice())
	assert.Equal(t, StateIdle, c.State())

	assert.False(t, c.Tick(gen), "ticks after Stop are dropped")
	assert.Equal(t, "Bonj", reply.Content)
}

func TestStopBeforeReplyDiscardsPrompt(t *testing.T) {
	strat := &blockingStrategy{release: make(chan struct{})}
	c, conv := newTestController(strat)

	sess, gen := c.SubmitPrompt(context.Background(), "Synthèse")
	require.NotNil(t, sess)
	require.Equal(t, StateAwaitingReply, c.State())

	c.Stop()

	assert.Equal(t, 0, conv.Len(), "the unacknowledged prompt and its placeholder are discarded")
	assert.Equal(t, NoticeStopped, c.Notice())
	assert.Equal(t, StateIdle, c.State())

	// The cancelled delivery's channel closes without events reaching us.
	for ev := range sess.Events() {
		c.HandleEvent(gen, ev)
	}
	assert.Equal(t, 0, conv.Len())
}

func TestIncompleteReplyNotice(t *testing.T) {
	strat := &scriptedStrategy{events: []transport.Event{
		{Kind: transport.EventPartial, Text: "Début de rép"},
		{Kind: transport.EventDone, Text: "Début de rép", Incomplete: true},
	}}
	c, conv := newTestController(strat)

	sess, gen := c.SubmitPrompt(context.Background(), "Synthèse")
	runExchange(t, c, sess, gen)

	reply := conv.LastAssistant()
	require.NotNil(t, reply)
	assert.Equal(t, "Début de rép", reply.Content)
	assert.Equal(t, NoticeIncomplete, c.Notice())
	assert.Equal(t, StateIdle, c.State())
}

func TestStaleEventsDropped(t *testing.T) {
	strat := &blockingStrategy{release: make(chan struct{})}
	c, conv := newTestController(strat)

	sess, gen := c.SubmitPrompt(context.Background(), "Première")
	require.NotNil(t, sess)
	c.Stop()
	before := transcript(conv)

	c.HandleEvent(gen, transport.Event{Kind: transport.EventPartial, Text: "fantôme"})
	c.HandleEvent(gen, transport.Event{Kind: transport.EventDone, Text: "fantôme"})
	assert.False(t, c.Tick(gen))

	assert.Equal(t, before, transcript(conv), "superseded events must not touch the transcript")
	assert.Equal(t, StateIdle, c.State())
}

func TestSelectConversationAbandonsExchange(t *testing.T) {
	strat := &blockingStrategy{release: make(chan struct{})}
	c, first := newTestController(strat)

	sess, _ := c.SubmitPrompt(context.Background(), "Première question")
	require.NotNil(t, sess)

	second := model.NewConversation(2, "conv-def")
	c.SelectConversation(second)

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Notice())
	assert.Same(t, second, c.Conversation())
	assert.Equal(t, 0, first.Len(), "the abandoned exchange leaves no trace in the old transcript")

	done := &scriptedStrategy{events: []transport.Event{
		{Kind: transport.EventDone, Text: "Réponse."},
	}}
	c2 := NewController(Config{Strategy: done, Reveal: fastReveal()})
	c2.SelectConversation(second)
	sess2, gen2 := c2.SubmitPrompt(context.Background(), "Nouvelle question")
	runExchange(t, c2, sess2, gen2)
	assert.Equal(t, "Réponse.", second.LastAssistant().Content)
}

func TestEmptyReplyCompletesImmediately(t *testing.T) {
	strat := &scriptedStrategy{events: []transport.Event{
		{Kind: transport.EventDone, Text: ""},
	}}
	c, conv := newTestController(strat)

	sess, gen := c.SubmitPrompt(context.Background(), "Synthèse")
	runExchange(t, c, sess, gen)

	assert.Equal(t, StateIdle, c.State())
	reply := conv.LastAssistant()
	require.NotNil(t, reply)
	assert.False(t, reply.Pending)
	assert.Empty(t, reply.Content)
}
