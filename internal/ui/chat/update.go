// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/restitution-tui/internal/model"
	"github.com/jeranaias/restitution-tui/internal/reveal"
	"github.com/jeranaias/restitution-tui/internal/session"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update is the Bubble Tea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.ctl.State() == session.StateAwaitingReply || m.ctl.State() == session.StateSending {
			return m, cmd
		}
		return m, nil

	case conversationsLoadedMsg:
		return m.handleConversationsLoaded(msg)

	case transcriptLoadedMsg:
		return m.handleTranscriptLoaded(msg)

	case conversationCreatedMsg:
		m.pendingSelect = msg.conversationID
		return m, loadConversations(m.client)

	case storedFilesLoadedMsg:
		m.storedFiles = msg.files
		if m.promptFile >= len(m.storedFiles) {
			m.promptFile = 0
		}
		return m, nil

	case transportEventMsg:
		return m.handleTransportEvent(msg)

	case deliveryClosedMsg:
		if m.sess != nil && m.sess.ID() == msg.deliveryID {
			m.sess = nil
		}
		m.refreshViewport()
		return m, nil

	case reveal.TickMsg:
		more := m.ctl.Tick(msg.Generation)
		m.refreshViewport()
		if more {
			return m, reveal.TickCmd(m.ctl.RevealInterval(), msg.Generation)
		}
		if m.ctl.ConsumeRefresh() {
			if conv := m.current(); conv != nil {
				return m, loadTranscript(m.client, conv.ID)
			}
		}
		return m, nil

	case exportDoneMsg:
		m.exportMode = false
		m.notice = "Document exporté : " + msg.path
		return m, nil

	case errMsg:
		m.errText = msg.err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	sidebar := m.sidebarWidth()
	contentWidth := msg.Width - sidebar - 2
	if contentWidth < 20 {
		contentWidth = 20
	}

	// Header, input area and status bar take fixed rows.
	contentHeight := msg.Height - m.textarea.Height() - 4
	if contentHeight < 3 {
		contentHeight = 3
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = contentHeight
	m.textarea.SetWidth(contentWidth)
	m.rebuildRenderer(contentWidth - 4)
	m.ready = true
	m.refreshViewport()
	return m
}

func (m Model) handleConversationsLoaded(msg conversationsLoadedMsg) (tea.Model, tea.Cmd) {
	// Keep already fetched transcripts when the list is reloaded.
	existing := make(map[string]*model.Conversation, len(m.conversations))
	for _, c := range m.conversations {
		existing[c.ConversationID] = c
	}

	m.conversations = m.conversations[:0]
	for _, ref := range msg.refs {
		if prev, ok := existing[ref.ConversationID]; ok {
			m.conversations = append(m.conversations, prev)
			continue
		}
		m.conversations = append(m.conversations, model.NewConversation(ref.ID, ref.ConversationID))
	}

	m.selected = 0
	if m.pendingSelect != "" {
		for i, c := range m.conversations {
			if c.ConversationID == m.pendingSelect {
				m.selected = i
				break
			}
		}
		m.pendingSelect = ""
	}

	conv := m.current()
	m.ctl.SelectConversation(conv)
	m.refreshViewport()
	if conv == nil {
		return m, nil
	}
	return m, loadTranscript(m.client, conv.ID)
}

func (m Model) handleTranscriptLoaded(msg transcriptLoadedMsg) (tea.Model, tea.Cmd) {
	conv := m.current()
	if conv == nil || conv.ID != msg.conversationID {
		return m, nil
	}
	// Never clobber optimistic entries while an exchange runs.
	if m.ctl.State() != session.StateIdle {
		return m, nil
	}
	conv.ReplaceAll(msg.messages)
	m.refreshViewport()
	return m, nil
}

func (m Model) handleTransportEvent(msg transportEventMsg) (tea.Model, tea.Cmd) {
	// Events from a delivery that was since cancelled or replaced carry a
	// stale identifier and must not reach the controller.
	if m.sess == nil || m.sess.ID() != msg.deliveryID {
		return m, nil
	}

	m.ctl.HandleEvent(msg.gen, msg.ev)
	m.refreshViewport()

	if !msg.ev.Terminal() {
		return m, waitForEvent(m.sess, msg.gen)
	}

	m.sess = nil
	if m.ctl.State() == session.StateRevealing {
		return m, reveal.TickCmd(m.ctl.RevealInterval(), msg.gen)
	}
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.ctl.Stop()
		return m, tea.Quit
	}

	if m.exportMode {
		return m.handleExportKey(msg)
	}
	if m.promptMode {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Stop):
		if m.ctl.State() != session.StateIdle {
			m.ctl.Stop()
			m.refreshViewport()
			return m, nil
		}
		m.notice = ""
		m.errText = ""
		m.ctl.ClearNotice()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitPrompt()

	case key.Matches(msg, m.keys.NextConv):
		return m.switchConversation(m.selected + 1)

	case key.Matches(msg, m.keys.PrevConv):
		return m.switchConversation(m.selected - 1)

	case key.Matches(msg, m.keys.NewConv):
		return m, createConversation(m.client)

	case key.Matches(msg, m.keys.ExportMode):
		if conv := m.current(); conv != nil && conv.Len() > 0 {
			m.exportMode = true
			m.exportCursor = 0
			m.exportSel = make(map[int64]bool)
		}
		return m, nil

	case key.Matches(msg, m.keys.Prompts):
		if m.current() == nil {
			return m, nil
		}
		m.promptMode = true
		m.promptCursor = 0
		m.promptFile = 0
		return m, loadStoredFiles(m.client)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// handleExportKey drives the selection overlay: space toggles, enter
// exports, escape leaves without writing anything.
func (m Model) handleExportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	conv := m.current()
	if conv == nil {
		m.exportMode = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Stop):
		m.exportMode = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.exportCursor > 0 {
			m.exportCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.exportCursor < conv.Len()-1 {
			m.exportCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if m.exportCursor < conv.Len() {
			id := conv.Messages[m.exportCursor].ID
			if m.exportSel[id] {
				delete(m.exportSel, id)
			} else {
				m.exportSel[id] = true
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		selected := m.selectedMessages()
		if len(selected) == 0 {
			return m, nil
		}
		return m, exportSelection(m.exporter, selected, m.exportOpts)
	}

	return m, nil
}

// handlePromptKey drives the recommended-prompt picker: up/down chooses the
// treatment, tab cycles the target document, enter fills the input area and
// leaves submission to the user.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Stop):
		m.promptMode = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.promptCursor > 0 {
			m.promptCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.promptCursor < len(defaultPromptTemplates)-1 {
			m.promptCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.NextConv):
		if len(m.storedFiles) > 0 {
			m.promptFile = (m.promptFile + 1) % len(m.storedFiles)
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		// Every treatment references a stored document by name.
		if len(m.storedFiles) == 0 {
			return m, nil
		}
		m.textarea.SetValue(composePrompt(
			defaultPromptTemplates[m.promptCursor], m.storedFiles[m.promptFile]))
		m.promptMode = false
		return m, nil
	}

	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submitPrompt() (tea.Model, tea.Cmd) {
	sess, gen := m.ctl.SubmitPrompt(context.Background(), m.textarea.Value())
	if sess == nil {
		return m, nil
	}
	m.sess = sess
	m.notice = ""
	m.errText = ""
	m.textarea.Reset()
	m.refreshViewport()
	return m, tea.Batch(waitForEvent(sess, gen), m.spinner.Tick)
}

func (m Model) switchConversation(index int) (tea.Model, tea.Cmd) {
	if len(m.conversations) == 0 {
		return m, nil
	}
	// Wrap around at either end.
	if index < 0 {
		index = len(m.conversations) - 1
	}
	if index >= len(m.conversations) {
		index = 0
	}
	if index == m.selected {
		return m, nil
	}

	m.selected = index
	m.sess = nil
	conv := m.current()
	m.ctl.SelectConversation(conv)
	m.refreshViewport()
	return m, loadTranscript(m.client, conv.ID)
}

// selectedMessages returns the export selection in transcript order.
func (m *Model) selectedMessages() []*model.Message {
	conv := m.current()
	if conv == nil {
		return nil
	}
	out := make([]*model.Message, 0, len(m.exportSel))
	for _, msg := range conv.Messages {
		if m.exportSel[msg.ID] {
			out = append(out, msg)
		}
	}
	return out
}
