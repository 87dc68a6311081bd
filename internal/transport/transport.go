// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrStreamTruncated reports a stream that ended before any reply
	// content arrived.
	ErrStreamTruncated = errors.New("flux interrompu avant la réponse")

	// ErrSubmitRejected reports a poll submission the server refused.
	ErrSubmitRejected = errors.New("la soumission du message a été refusée")

	// ErrPollTimeout reports a poll that never saw the reply become ready.
	ErrPollTimeout = errors.New("délai d'attente de la réponse dépassé")
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventKind discriminates transport events.
type EventKind int

const (
	// EventPartial carries a delta of reply text.
	EventPartial EventKind = iota
	// EventDone terminates a delivery with the full reply text.
	EventDone
	// EventError terminates a delivery with no usable reply.
	EventError
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventPartial:
		return "partial"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the normalized unit both strategies emit.
type Event struct {
	Kind EventKind

	// Text is the delta for partial events and the full accumulated
	// reply for done events.
	Text string

	// Incomplete marks a done event built from a truncated stream: the
	// text is best-effort, not the server's final answer.
	Incomplete bool

	// Err is set on error events only.
	Err error
}

// Terminal reports whether the event ends the delivery.
func (e Event) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// Request identifies one prompt submission.
type Request struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	ProjectName    string `json:"projet_name"`
}

// Strategy delivers one reply for one request, emitting normalized events.
// Implementations return once a terminal event has been emitted or the
// context is cancelled.
type Strategy interface {
	// Name identifies the strategy for configuration and logging.
	Name() string

	// Deliver runs the exchange, calling emit for each event.
	Deliver(ctx context.Context, req Request, emit func(Event))
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one cancellable in-flight delivery.
type Session struct {
	id     string
	events chan Event
	cancel context.CancelFunc
	once   sync.Once
}

// Open starts a delivery on the given strategy. The returned session's
// event channel closes after the terminal event or after Cancel.
func Open(ctx context.Context, strategy Strategy, req Request) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:     uuid.NewString(),
		events: make(chan Event, 64),
		cancel: cancel,
	}

	go func() {
		defer cancel()
		defer close(s.events)
		strategy.Deliver(ctx, req, func(ev Event) {
			if ctx.Err() != nil {
				return
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
			}
		})
	}()

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Events returns the delivery's event channel.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Cancel aborts the delivery. Idempotent; no events are emitted after it
// returns.
func (s *Session) Cancel() {
	s.once.Do(s.cancel)
}
