// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an ordered transcript tied to a server-side conversation.
//
// ID is the backend's internal numeric row ID (used by GraphQL transcript
// queries); ConversationID is the external identifier used when submitting
// prompts. Messages stay sorted ascending by ID.
type Conversation struct {
	ID             int64      `json:"id"`
	ConversationID string     `json:"conversation_id"`
	Messages       []*Message `json:"messages"`
}

// NewConversation creates an empty conversation for the given identifiers.
func NewConversation(id int64, conversationID string) *Conversation {
	return &Conversation{
		ID:             id,
		ConversationID: conversationID,
	}
}

// Append adds a message and restores ID ordering.
func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.Sort()
}

// Remove deletes the message with the given ID, if present.
func (c *Conversation) Remove(id int64) {
	for i, m := range c.Messages {
		if m.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			return
		}
	}
}

// ReplaceAll swaps the transcript for a freshly fetched one. Used after a
// reveal completes, when the server copy becomes authoritative again.
func (c *Conversation) ReplaceAll(msgs []*Message) {
	c.Messages = msgs
	c.Sort()
}

// Sort orders messages ascending by ID.
func (c *Conversation) Sort() {
	sort.SliceStable(c.Messages, func(i, j int) bool {
		return c.Messages[i].ID < c.Messages[j].ID
	})
}

// Find returns the message with the given ID, or nil.
func (c *Conversation) Find(id int64) *Message {
	for _, m := range c.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Len returns the number of messages in the transcript.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// LastAssistant returns the most recent assistant entry, or nil.
func (c *Conversation) LastAssistant() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// Title derives a sidebar label from the first user prompt.
func (c *Conversation) Title(maxLen int) string {
	for _, m := range c.Messages {
		if m.Role == RoleUser && strings.TrimSpace(m.Prompt) != "" {
			return m.Preview(maxLen)
		}
	}
	return "Conversation " + c.ConversationID
}
