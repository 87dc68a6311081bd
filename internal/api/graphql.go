// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jeranaias/restitution-tui/internal/model"
)

// =============================================================================
// READ MODELS
// =============================================================================

// Project is a selectable workspace.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"nom_projet"`
}

// ConversationRef identifies one conversation of the logged-in user.
type ConversationRef struct {
	ID             int64  `json:"id"`
	ConversationID string `json:"conversation_id"`
}

// RemoteMessage is one transcript row. A row can hold the prompt, the
// reply it produced, or both.
type RemoteMessage struct {
	ID      int64  `json:"id"`
	Prompt  string `json:"prompt"`
	Content string `json:"content"`
	Role    string `json:"role"`
}

// StoredFile is a document available to the restitution agent.
type StoredFile struct {
	ID       int64  `json:"id"`
	Filename string `json:"nom_fichier"`
}

// =============================================================================
// QUERIES
// =============================================================================

// Projects lists the selectable projects. Available before login.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var data struct {
		Projects []Project `json:"projets"`
	}
	query := "{projets{id,nom_projet}}"
	if err := c.graphql(ctx, query, &data); err != nil {
		return nil, err
	}
	return data.Projects, nil
}

// Conversations lists the logged-in user's conversations for the active
// project.
func (c *Client) Conversations(ctx context.Context) ([]ConversationRef, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var data struct {
		Conversations []ConversationRef `json:"conversation_ineds"`
	}
	query := fmt.Sprintf("{conversation_ineds(user_id:%d,projet_id:%d){id,conversation_id}}",
		c.UserID(), c.ProjectID())
	if err := c.graphql(ctx, query, &data); err != nil {
		return nil, err
	}
	return data.Conversations, nil
}

// Messages fetches the transcript rows of one conversation by its internal
// numeric ID.
func (c *Client) Messages(ctx context.Context, conversationInedID int64) ([]RemoteMessage, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var data struct {
		Messages []RemoteMessage `json:"message_ineds"`
	}
	query := fmt.Sprintf("{message_ineds(conversation_ined_id:%d){id,prompt,content,role}}",
		conversationInedID)
	if err := c.graphql(ctx, query, &data); err != nil {
		return nil, err
	}
	return data.Messages, nil
}

// VectorStores lists the documents uploaded for the active project.
func (c *Client) VectorStores(ctx context.Context) ([]StoredFile, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var data struct {
		Files []StoredFile `json:"vector_stores"`
	}
	query := fmt.Sprintf("{vector_stores(projet_id:%d){id,nom_fichier}}", c.ProjectID())
	if err := c.graphql(ctx, query, &data); err != nil {
		return nil, err
	}
	return data.Files, nil
}

// graphql runs a query over GET and decodes the data envelope.
func (c *Client) graphql(ctx context.Context, query string, out any) error {
	endpoint := c.baseURL + "/graphql?query=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("création de la requête: %w", err)
	}
	c.setAuthHeader(req)

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := c.do(req, &envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("erreur graphql: %s", envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 {
		return ErrBadResponse
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// =============================================================================
// TRANSCRIPT CONVERSION
// =============================================================================

// TranscriptMessages fans transcript rows out into display entries. A row
// holding both a prompt and a reply becomes two adjacent entries; the
// doubled IDs keep row order and leave the user side first.
func TranscriptMessages(rows []RemoteMessage) []*model.Message {
	msgs := make([]*model.Message, 0, len(rows)*2)
	for _, row := range rows {
		if row.Prompt != "" {
			msgs = append(msgs, &model.Message{
				ID:     row.ID * 2,
				Role:   model.RoleUser,
				Prompt: row.Prompt,
			})
		}
		if row.Content != "" {
			msgs = append(msgs, &model.Message{
				ID:      row.ID*2 + 1,
				Role:    model.RoleAssistant,
				Content: row.Content,
			})
		}
	}
	return msgs
}
