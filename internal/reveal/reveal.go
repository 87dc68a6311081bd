// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultInterval is the tick cadence.
	DefaultInterval = 30 * time.Millisecond

	// DefaultChunk is the number of runes revealed per tick.
	DefaultChunk = 24
)

// =============================================================================
// POLICY AND PHASE
// =============================================================================

// Policy selects how a reveal progresses.
type Policy int

const (
	// PolicyTick reveals a chunk of runes per tick.
	PolicyTick Policy = iota
	// PolicyInstant shows the whole text on the first tick. Used when the
	// client cannot or should not animate (suspended terminal, scripting).
	PolicyInstant
)

// ParsePolicy converts a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "tick":
		return PolicyTick, nil
	case "instant":
		return PolicyInstant, nil
	default:
		return PolicyTick, fmt.Errorf("politique de révélation inconnue: %q", s)
	}
}

// Phase is the reveal lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRevealing
	PhaseCompleted
	PhaseCancelled
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRevealing:
		return "revealing"
	case PhaseCompleted:
		return "completed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Config holds reveal pacing parameters.
type Config struct {
	Interval time.Duration
	Chunk    int
	Policy   Policy
}

// DefaultConfig returns the production cadence.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Chunk:    DefaultChunk,
		Policy:   PolicyTick,
	}
}

// Session reveals one reply. Safe for concurrent use; in practice the UI
// event loop is the only caller.
type Session struct {
	mu     sync.Mutex
	cfg    Config
	target []rune
	shown  int
	phase  Phase
}

// NewSession creates a reveal session, normalizing zero config values.
func NewSession(cfg Config) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Chunk <= 0 {
		cfg.Chunk = DefaultChunk
	}
	return &Session{cfg: cfg}
}

// Start begins revealing the given text from an empty prefix, replacing
// any reveal already in progress.
func (s *Session) Start(full string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = []rune(full)
	s.shown = 0
	s.phase = PhaseRevealing
	if len(s.target) == 0 {
		s.phase = PhaseCompleted
	}
}

// Advance performs one tick: the visible prefix grows by the configured
// chunk, clamped to the target length, and is returned in full. The done
// flag reports that no further ticks are needed.
func (s *Session) Advance() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRevealing {
		return string(s.target[:s.shown]), true
	}

	if s.cfg.Policy == PolicyInstant {
		s.shown = len(s.target)
	} else {
		s.shown += s.cfg.Chunk
		if s.shown > len(s.target) {
			s.shown = len(s.target)
		}
	}

	if s.shown == len(s.target) {
		s.phase = PhaseCompleted
	}
	return string(s.target[:s.shown]), s.phase == PhaseCompleted
}

// Cancel freezes the current prefix permanently and returns it.
func (s *Session) Cancel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseRevealing {
		s.phase = PhaseCancelled
	}
	return string(s.target[:s.shown])
}

// Text returns the currently visible prefix.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.target[:s.shown])
}

// Phase returns the lifecycle state.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Active reports whether ticks should keep coming.
func (s *Session) Active() bool {
	return s.Phase() == PhaseRevealing
}

// Interval returns the configured tick cadence.
func (s *Session) Interval() time.Duration {
	return s.cfg.Interval
}

// =============================================================================
// BUBBLE TEA GLUE
// =============================================================================

// TickMsg drives one reveal step. Generation lets the UI drop ticks from
// a reveal that has since been replaced.
type TickMsg struct {
	Generation uint64
}

// TickCmd schedules the next reveal tick.
func TickCmd(interval time.Duration, generation uint64) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return TickMsg{Generation: generation}
	})
}
