// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/restitution-tui/internal/api"
	"github.com/jeranaias/restitution-tui/internal/model"
	"github.com/jeranaias/restitution-tui/internal/transport"
)

// =============================================================================
// TEA MESSAGES
// =============================================================================

// transportEventMsg carries one normalized delivery event into the loop,
// stamped with the delivery it came from so events outliving their delivery
// are recognized and dropped.
type transportEventMsg struct {
	deliveryID string
	gen        uint64
	ev         transport.Event
}

// deliveryClosedMsg signals the delivery channel closed, usually after a
// cancel with no terminal event.
type deliveryClosedMsg struct {
	deliveryID string
}

// conversationsLoadedMsg delivers the sidebar's conversation list.
type conversationsLoadedMsg struct {
	refs []api.ConversationRef
}

// transcriptLoadedMsg delivers a freshly fetched transcript.
type transcriptLoadedMsg struct {
	conversationID int64
	messages       []*model.Message
}

// storedFilesLoadedMsg delivers the documents available to the agent.
type storedFilesLoadedMsg struct {
	files []api.StoredFile
}

// conversationCreatedMsg reports a new conversation on the server.
type conversationCreatedMsg struct {
	conversationID string
}

// exportDoneMsg reports where the export document landed.
type exportDoneMsg struct {
	path string
}

// errMsg carries any asynchronous failure into the loop.
type errMsg struct {
	err error
}
