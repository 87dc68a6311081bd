// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/restitution-tui/internal/api"
	"github.com/jeranaias/restitution-tui/internal/export"
	"github.com/jeranaias/restitution-tui/internal/model"
	"github.com/jeranaias/restitution-tui/internal/transport"
)

// =============================================================================
// ASYNC COMMANDS
// =============================================================================

// waitForEvent blocks on the delivery's channel and forwards one event.
// Re-issued from Update after each non-terminal event.
func waitForEvent(sess *transport.Session, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sess.Events()
		if !ok {
			return deliveryClosedMsg{deliveryID: sess.ID()}
		}
		return transportEventMsg{deliveryID: sess.ID(), gen: gen, ev: ev}
	}
}

// loadConversations fetches the sidebar list.
func loadConversations(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		refs, err := client.Conversations(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return conversationsLoadedMsg{refs: refs}
	}
}

// loadTranscript fetches the server copy of one conversation.
func loadTranscript(client *api.Client, conversationID int64) tea.Cmd {
	return func() tea.Msg {
		rows, err := client.Messages(context.Background(), conversationID)
		if err != nil {
			return errMsg{err}
		}
		return transcriptLoadedMsg{
			conversationID: conversationID,
			messages:       api.TranscriptMessages(rows),
		}
	}
}

// loadStoredFiles fetches the documents the recommended prompts can target.
func loadStoredFiles(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		files, err := client.VectorStores(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return storedFilesLoadedMsg{files: files}
	}
}

// createConversation asks the server for a fresh conversation.
func createConversation(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		id, err := client.CreateConversation(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return conversationCreatedMsg{conversationID: id}
	}
}

// exportSelection writes the selected messages to disk.
func exportSelection(builder *export.Builder, msgs []*model.Message, opts export.Options) tea.Cmd {
	return func() tea.Msg {
		path, err := builder.WriteFile(msgs, opts)
		if err != nil {
			return errMsg{err}
		}
		return exportDoneMsg{path: path}
	}
}
