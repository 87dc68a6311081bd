// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrConversationRefused is returned when the server declines to create a
// conversation.
var ErrConversationRefused = errors.New("création de conversation refusée")

// CreateConversation asks the backend for a fresh conversation in the
// active project and returns its external identifier.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	if !c.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}

	payload := struct {
		ProjectName string `json:"projet_name"`
	}{ProjectName: c.ProjectName()}

	var resp struct {
		Success        bool   `json:"success"`
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/createConversation_ined", payload, &resp); err != nil {
		return "", err
	}

	if !resp.Success || resp.ConversationID == "" {
		if resp.Message != "" {
			return "", fmt.Errorf("%w : %s", ErrConversationRefused, resp.Message)
		}
		return "", ErrConversationRefused
	}
	return resp.ConversationID, nil
}
