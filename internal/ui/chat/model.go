// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/restitution-tui/internal/api"
	"github.com/jeranaias/restitution-tui/internal/export"
	"github.com/jeranaias/restitution-tui/internal/model"
	"github.com/jeranaias/restitution-tui/internal/session"
	"github.com/jeranaias/restitution-tui/internal/transport"
	"github.com/jeranaias/restitution-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Config assembles the chat model's collaborators.
type Config struct {
	Client        *api.Client
	Controller    *session.Controller
	Exporter      *export.Builder
	ExportOptions export.Options
	Theme         *styles.Theme
}

// Model is the Bubble Tea model for the conversation view.
type Model struct {
	client     *api.Client
	ctl        *session.Controller
	exporter   *export.Builder
	exportOpts export.Options
	theme      *styles.Theme
	keys       KeyMap

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// sess is the in-flight delivery, nil between exchanges. Its identifier
	// authenticates incoming transport messages against the current exchange.
	sess *transport.Session

	conversations []*model.Conversation
	selected      int
	// pendingSelect names the conversation to select once the refreshed
	// list arrives, used after creating one.
	pendingSelect string

	exportMode   bool
	exportCursor int
	exportSel    map[int64]bool

	// promptMode shows the recommended-prompt picker; promptFile indexes
	// the stored document the treatment will be applied to.
	promptMode   bool
	promptCursor int
	promptFile   int
	storedFiles  []api.StoredFile

	width  int
	height int
	ready  bool

	// notice holds success messages like the export path; errText holds
	// asynchronous failures. Exchange errors go through the controller's
	// notice instead.
	notice  string
	errText string
}

// New creates the chat model.
func New(cfg Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Votre question à l'agent..."
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.Spinner

	return Model{
		client:     cfg.Client,
		ctl:        cfg.Controller,
		exporter:   cfg.Exporter,
		exportOpts: cfg.ExportOptions,
		theme:      cfg.Theme,
		keys:       DefaultKeyMap(),
		textarea:   ta,
		viewport:   viewport.New(0, 0),
		spinner:    sp,
		exportSel:  make(map[int64]bool),
	}
}

// Init starts the blink, the spinner and the initial conversation fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		loadConversations(m.client),
	)
}

// current returns the selected conversation, or nil.
func (m *Model) current() *model.Conversation {
	if m.selected < 0 || m.selected >= len(m.conversations) {
		return nil
	}
	return m.conversations[m.selected]
}

// rebuildRenderer recreates the glamour renderer for the current width.
func (m *Model) rebuildRenderer(width int) {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Renderer stays nil; the view falls back to raw text.
		m.renderer = nil
		return
	}
	m.renderer = r
}
