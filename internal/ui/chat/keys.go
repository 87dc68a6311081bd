// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings for the chat interface.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Submit     key.Binding
	Stop       key.Binding
	NextConv   key.Binding
	PrevConv   key.Binding
	NewConv    key.Binding
	ExportMode key.Binding
	Prompts    key.Binding
	Toggle     key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "pgup"),
			key.WithHelp("↑/PgUp", "défiler vers le haut"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "pgdown"),
			key.WithHelp("↓/PgDn", "défiler vers le bas"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Entrée", "envoyer"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Échap", "arrêter la génération"),
		),
		NextConv: key.NewBinding(
			key.WithKeys("ctrl+down", "tab"),
			key.WithHelp("Tab", "conversation suivante"),
		),
		PrevConv: key.NewBinding(
			key.WithKeys("ctrl+up", "shift+tab"),
			key.WithHelp("S-Tab", "conversation précédente"),
		),
		NewConv: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "nouvelle conversation"),
		),
		ExportMode: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "mode export"),
		),
		Prompts: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "prompts recommandés"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Espace", "sélectionner"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quitter"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Stop, k.ExportMode, k.Quit}
}

// FullHelp returns all bindings grouped for the help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.NextConv, k.PrevConv, k.NewConv},
		{k.Submit, k.Stop, k.ExportMode, k.Prompts, k.Toggle},
		{k.Quit},
	}
}
