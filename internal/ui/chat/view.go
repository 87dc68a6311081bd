// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/restitution-tui/internal/model"
	"github.com/jeranaias/restitution-tui/internal/session"
	"github.com/jeranaias/restitution-tui/internal/ui/styles"
	"github.com/jeranaias/restitution-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole interface.
func (m Model) View() string {
	if !m.ready {
		return "Initialisation..."
	}

	header := m.theme.Header.Width(m.width).Render(m.headerText())

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.inputView(),
	)

	body := main
	if w := m.sidebarWidth(); w > 0 {
		sidebar := m.theme.Sidebar.Width(w).Height(m.viewport.Height + m.textarea.Height() + 1).
			Render(m.sidebarView(w))
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.statusView())
}

func (m Model) headerText() string {
	title := "Restitution"
	if p := m.client.ProjectName(); p != "" {
		title += " — " + p
	}
	if u := m.client.UserName(); u != "" {
		title += "  ·  " + u
	}
	return title
}

// sidebarWidth returns 0 when the terminal is too narrow for a sidebar.
func (m Model) sidebarWidth() int {
	switch m.theme.GetLayoutMode() {
	case styles.LayoutNarrow:
		return 0
	case styles.LayoutMedium:
		return 24
	default:
		return 32
	}
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) sidebarView(width int) string {
	if m.exportMode {
		return m.exportSidebar(width)
	}
	if m.promptMode {
		return m.promptSidebar(width)
	}

	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n")
	for i, conv := range m.conversations {
		label := util.TruncateRunes(conv.Title(width-4), width-4)
		if i == m.selected {
			b.WriteString(m.theme.SidebarItemSelected.Render(label))
		} else {
			b.WriteString(m.theme.SidebarItem.Render(label))
		}
		b.WriteString("\n")
	}
	if len(m.conversations) == 0 {
		b.WriteString(m.theme.SidebarItem.Render("(aucune)"))
	}
	return b.String()
}

// exportSidebar lists transcript entries with their selection state.
func (m Model) exportSidebar(width int) string {
	conv := m.current()
	if conv == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Export : sélection"))
	b.WriteString("\n")
	for i, msg := range conv.Messages {
		mark := "[ ]"
		if m.exportSel[msg.ID] {
			mark = "[x]"
		}
		label := fmt.Sprintf("%s %s %s", mark, msg.Role.DisplayName(), msg.Preview(width-12))
		switch {
		case i == m.exportCursor:
			b.WriteString(m.theme.SidebarItemSelected.Render(label))
		case m.exportSel[msg.ID]:
			b.WriteString(m.theme.SidebarItemExportSel.Render(label))
		default:
			b.WriteString(m.theme.SidebarItem.Render(label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// promptSidebar lists the recommended treatments and the document they will
// be applied to.
func (m Model) promptSidebar(width int) string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Prompts recommandés"))
	b.WriteString("\n")

	if len(m.storedFiles) == 0 {
		b.WriteString(m.theme.SidebarItem.Render("Aucun fichier disponible"))
	} else {
		name := util.TruncateRunes(m.storedFiles[m.promptFile].Filename, width-12)
		b.WriteString(m.theme.SidebarItem.Render("Fichier : " + name))
	}
	b.WriteString("\n")

	for i, tpl := range defaultPromptTemplates {
		label := util.TruncateRunes(tpl.Label, width-4)
		if i == m.promptCursor {
			b.WriteString(m.theme.SidebarItemSelected.Render(label))
		} else {
			b.WriteString(m.theme.SidebarItem.Render(label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the transcript and pins the view to the end.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	conv := m.ctl.Conversation()
	if conv == nil {
		return "Aucune conversation sélectionnée. C-n pour en créer une."
	}

	bubbleWidth := m.viewport.Width - 8
	if bubbleWidth < 16 {
		bubbleWidth = 16
	}

	var b strings.Builder
	for _, msg := range conv.Messages {
		b.WriteString(m.renderMessage(msg, bubbleWidth))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderMessage(msg *model.Message, width int) string {
	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())

	if msg.Role == model.RoleUser {
		bubble := m.theme.UserBubble.MaxWidth(width).Render(msg.Prompt)
		return label + "\n" + bubble
	}

	if msg.Pending {
		if msg.Content == "" {
			return label + "\n" + m.spinner.View() +
				m.theme.PendingText.Render(" L'agent prépare sa réponse...")
		}
		// Revealing or streaming preview: raw text, no markdown pass, so
		// the growing prefix never re-wraps earlier lines.
		return label + "\n" + m.theme.PendingText.MaxWidth(width).Render(msg.Content)
	}

	body := msg.Content
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(msg.Content); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	return label + "\n" + m.theme.AssistantBubble.MaxWidth(width).Render(body)
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) inputView() string {
	if m.exportMode {
		return m.theme.InputContainer.Render(
			m.theme.ShortcutDesc.Render("Espace sélectionne, Entrée exporte, Échap annule."))
	}
	if m.promptMode {
		return m.theme.InputContainer.Render(
			m.theme.ShortcutDesc.Render("Entrée insère le prompt, Tab change de fichier, Échap annule."))
	}
	return m.theme.InputContainer.Render(m.textarea.View())
}

func (m Model) statusView() string {
	var left string
	switch {
	case m.errText != "":
		left = m.theme.NoticeError.Render(m.errText)
	case m.ctl.Notice() != "":
		left = m.theme.NoticeWarning.Render(m.ctl.Notice())
	case m.notice != "":
		left = m.theme.NoticeSuccess.Render(m.notice)
	case m.ctl.State() == session.StateAwaitingReply:
		left = m.spinner.View() + " En attente de la réponse..."
	default:
		left = m.shortcutHelp()
	}
	return m.theme.StatusBar.Width(m.width).Render(left)
}

func (m Model) shortcutHelp() string {
	parts := make([]string, 0, 4)
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts,
			m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
