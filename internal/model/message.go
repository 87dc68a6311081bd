// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/jeranaias/restitution-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "Vous"
	case RoleAssistant:
		return "Agent"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single entry in a conversation transcript.
//
// User entries carry their text in Prompt, assistant entries in Content.
// The split mirrors the transcript rows the backend returns, where a single
// row can hold both the prompt and the reply it produced.
type Message struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`

	// Prompt is the user-side text of the entry.
	Prompt string `json:"prompt,omitempty"`

	// Content is the assistant-side text of the entry.
	Content string `json:"content,omitempty"`

	// Optimistic marks a user entry recorded locally before the server
	// acknowledged it. Cleared (by replacement) on transcript refresh.
	Optimistic bool `json:"-"`

	// Pending marks the empty assistant placeholder that exists while a
	// reply is in flight or being revealed.
	Pending bool `json:"-"`
}

// NewUserMessage creates an optimistic user entry with a timestamp ID.
func NewUserMessage(prompt string) *Message {
	return &Message{
		ID:         time.Now().UnixMilli(),
		Role:       RoleUser,
		Prompt:     prompt,
		Optimistic: true,
	}
}

// NewPendingAssistantMessage creates the empty placeholder that will hold
// the reply as it streams or reveals. Its ID is one past the user entry so
// the pair stays adjacent under ID ordering.
func NewPendingAssistantMessage(afterID int64) *Message {
	return &Message{
		ID:      afterID + 1,
		Role:    RoleAssistant,
		Pending: true,
	}
}

// DisplayText returns the text to render for this entry.
func (m *Message) DisplayText() string {
	if m.Role == RoleUser {
		return m.Prompt
	}
	return m.Content
}

// IsEmpty reports whether the entry has no text on either side.
func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.Prompt) == "" && strings.TrimSpace(m.Content) == ""
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle accented characters correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.DisplayText(), maxLen)
}
