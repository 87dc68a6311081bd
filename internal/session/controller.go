// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/restitution-tui/internal/model"
	"github.com/jeranaias/restitution-tui/internal/reveal"
	"github.com/jeranaias/restitution-tui/internal/transport"
)

// =============================================================================
// NOTICES
// =============================================================================

const (
	// NoticeStopped is shown after the user interrupts a generation.
	NoticeStopped = "Génération arrêtée."

	// NoticeIncomplete is shown when a stream died mid-reply and the
	// accumulated partial text was kept as the answer.
	NoticeIncomplete = "Réponse incomplète (flux interrompu)."
)

// =============================================================================
// STATE
// =============================================================================

// State is the controller's position in the exchange lifecycle.
type State int

const (
	// StateIdle accepts new prompts.
	StateIdle State = iota
	// StateSending covers the window between accepting a prompt and the
	// transport delivery being open.
	StateSending
	// StateAwaitingReply means a delivery is in flight.
	StateAwaitingReply
	// StateRevealing means the reply arrived and is being revealed.
	StateRevealing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateRevealing:
		return "revealing"
	default:
		return "unknown"
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Config assembles a Controller's collaborators.
type Config struct {
	// Strategy delivers replies. Required.
	Strategy transport.Strategy

	// Reveal paces how finished replies appear. Zero values are normalized
	// to the defaults.
	Reveal reveal.Config

	// ProjectName is sent with every submission.
	ProjectName string
}

// Controller drives one conversation's exchanges. All methods are safe for
// concurrent use; in practice the UI event loop is the only caller except
// for the transport goroutine feeding HandleEvent.
type Controller struct {
	mu          sync.Mutex
	strategy    transport.Strategy
	revealCfg   reveal.Config
	projectName string

	conv       *model.Conversation
	state      State
	notice     string
	generation uint64

	active     *transport.Session
	rev        *reveal.Session
	optimistic *model.Message
	pending    *model.Message

	refreshNeeded bool
}

// NewController creates a controller with no conversation selected.
func NewController(cfg Config) *Controller {
	return &Controller{
		strategy:    cfg.Strategy,
		revealCfg:   cfg.Reveal,
		projectName: cfg.ProjectName,
	}
}

// State returns the lifecycle position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Conversation returns the selected conversation, or nil.
func (c *Controller) Conversation() *model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv
}

// Notice returns the current user-facing notice, empty when there is none.
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// ClearNotice resets the notice line.
func (c *Controller) ClearNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = ""
}

// Generation returns the stamp of the current exchange.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// RevealInterval returns the tick cadence the UI should schedule at.
func (c *Controller) RevealInterval() time.Duration {
	if c.revealCfg.Interval > 0 {
		return c.revealCfg.Interval
	}
	return reveal.DefaultInterval
}

// ConsumeRefresh reports whether a transcript refresh is due and clears the
// flag. Set when a reveal completes and the server copy becomes
// authoritative.
func (c *Controller) ConsumeRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	due := c.refreshNeeded
	c.refreshNeeded = false
	return due
}

// SelectConversation switches the active conversation. Any in-flight
// exchange is abandoned and its remaining events invalidated.
func (c *Controller) SelectConversation(conv *model.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked()
	c.conv = conv
	c.notice = ""
	c.refreshNeeded = false
}

// =============================================================================
// EXCHANGE LIFECYCLE
// =============================================================================

// SubmitPrompt starts an exchange for the given text. Returns the opened
// transport session and the generation stamping its events. A blank prompt,
// a missing conversation or an exchange already in flight makes this a
// silent no-op returning (nil, 0).
func (c *Controller) SubmitPrompt(ctx context.Context, text string) (*transport.Session, uint64) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if text == "" || c.conv == nil || c.state != StateIdle {
		return nil, 0
	}

	c.notice = ""
	c.state = StateSending
	c.generation++
	gen := c.generation

	user := model.NewUserMessage(text)
	pending := model.NewPendingAssistantMessage(user.ID)
	c.conv.Append(user)
	c.conv.Append(pending)
	c.optimistic = user
	c.pending = pending

	c.active = transport.Open(ctx, c.strategy, transport.Request{
		Message:        text,
		ConversationID: c.conv.ConversationID,
		ProjectName:    c.projectName,
	})
	c.state = StateAwaitingReply

	return c.active, gen
}

// HandleEvent folds one transport event into the exchange. Events stamped
// with a superseded generation are dropped.
func (c *Controller) HandleEvent(gen uint64, ev transport.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}

	switch ev.Kind {
	case transport.EventPartial:
		// Live preview while the stream runs. The reveal rewrites this
		// from scratch once the reply is complete.
		if c.pending != nil {
			c.pending.Content += ev.Text
		}

	case transport.EventDone:
		c.active = nil
		c.optimistic = nil
		if ev.Incomplete {
			c.notice = NoticeIncomplete
		}
		if c.pending == nil {
			c.state = StateIdle
			return
		}
		c.pending.Content = ""
		c.rev = reveal.NewSession(c.revealCfg)
		c.rev.Start(ev.Text)
		c.state = StateRevealing

	case transport.EventError:
		c.active = nil
		// The server never acknowledged the prompt: drop the optimistic
		// entry so the transcript does not show an unanswered question.
		// The user resubmits explicitly; there is no automatic retry.
		if c.optimistic != nil {
			c.conv.Remove(c.optimistic.ID)
			c.optimistic = nil
		}
		if c.pending != nil {
			if strings.TrimSpace(c.pending.Content) == "" {
				c.conv.Remove(c.pending.ID)
			} else {
				// Keep whatever partial text made it through.
				c.pending.Pending = false
			}
			c.pending = nil
		}
		if ev.Err != nil {
			c.notice = ev.Err.Error()
		}
		c.state = StateIdle
	}
}

// Tick advances the reveal one step and reports whether another tick should
// be scheduled. Ticks from a superseded generation are dropped.
func (c *Controller) Tick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StateRevealing || c.rev == nil {
		return false
	}

	text, done := c.rev.Advance()
	if c.pending != nil {
		c.pending.Content = text
	}
	if done {
		c.finishRevealLocked()
		return false
	}
	return true
}

// Stop interrupts the in-flight exchange. An unacknowledged prompt is
// discarded along with its placeholder; once the reply has arrived the
// revealed prefix is frozen as the assistant's text. No-op when nothing is
// in flight.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return
	}
	c.abandonLocked()
	c.notice = NoticeStopped
}

// =============================================================================
// INTERNALS
// =============================================================================

// finishRevealLocked ends a completed reveal: the placeholder becomes a
// plain assistant entry and a transcript refresh is flagged.
func (c *Controller) finishRevealLocked() {
	if c.pending != nil {
		c.pending.Pending = false
		c.pending = nil
	}
	c.rev = nil
	c.state = StateIdle
	c.refreshNeeded = true
}

// abandonLocked cancels the delivery and reveal of the current exchange and
// invalidates their remaining events. The caller holds c.mu.
func (c *Controller) abandonLocked() {
	if c.active != nil {
		c.active.Cancel()
		c.active = nil
	}
	if c.rev != nil {
		prefix := c.rev.Cancel()
		if c.pending != nil {
			c.pending.Content = prefix
		}
		c.rev = nil
	}
	if c.pending != nil {
		if c.conv != nil && strings.TrimSpace(c.pending.Content) == "" {
			c.conv.Remove(c.pending.ID)
		} else {
			c.pending.Pending = false
		}
		c.pending = nil
	}
	// Still set while no terminal event arrived, meaning the server never
	// acknowledged the prompt. Discard it like the error path does.
	if c.optimistic != nil {
		if c.conv != nil {
			c.conv.Remove(c.optimistic.ID)
		}
		c.optimistic = nil
	}
	c.generation++
	c.state = StateIdle
}
