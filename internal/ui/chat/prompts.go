// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	"github.com/jeranaias/restitution-tui/internal/api"
)

// =============================================================================
// RECOMMENDED PROMPTS
// =============================================================================

// promptTemplate pairs one questionnaire treatment with the label shown in
// the picker. The treatment name is sent verbatim: the agent routes on it.
type promptTemplate struct {
	Label   string
	Section string
}

// defaultPromptTemplates are the recommended treatments for a raw
// questionnaire document, in the order the picker lists them.
var defaultPromptTemplates = []promptTemplate{
	{Label: "Vérification des questions", Section: "VÉRIFICATION DES QUESTIONS"},
	{Label: "Amélioration de la formulation", Section: "AMÉLIORATION DE LA FORMULATION"},
	{Label: "Vérification des filtres", Section: "VÉRIFICATION DES FILTRES"},
	{Label: "Cohérence des modalités", Section: "COHÉRENCE DES MODALITÉS"},
	{Label: "Création de l'argumentaire CATI", Section: "CRÉATION DE L'ARGUMENTAIRE CATI"},
	{Label: "Création de la prise de congé", Section: "CRÉATION DE LA PRISE DE CONGÉ"},
}

// composePrompt builds the submission text asking for one treatment of one
// stored document.
func composePrompt(tpl promptTemplate, file api.StoredFile) string {
	return fmt.Sprintf(
		"Voici mon questionnaire en état brute %s merci de me traiter cette partie %s",
		file.Filename, tpl.Section)
}
