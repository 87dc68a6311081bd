// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"strings"
	"testing"
)

func newTestFormatter() *Formatter {
	return New(DefaultOptions())
}

func TestFormatEmptyInput(t *testing.T) {
	f := newTestFormatter()
	if got := f.Format(""); got != "" {
		t.Errorf("Format(\"\") = %q, want empty", got)
	}
}

func TestFormatZeroString(t *testing.T) {
	// "0" is real content, not an empty value.
	f := newTestFormatter()
	got := f.Format("0")
	if got != `<p class="verbatim">0</p>` {
		t.Errorf("Format(\"0\") = %q", got)
	}
}

func TestFormatDeterministic(t *testing.T) {
	f := newTestFormatter()
	input := "**Q. 1:** Quel est le bilan ?\nLes avis divergent.\n\n## Synthèse\nPoint positif."

	first := f.Format(input)
	second := f.Format(input)
	if first != second {
		t.Errorf("Format not deterministic:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestFormatIdempotentOnOwnOutput(t *testing.T) {
	f := newTestFormatter()
	inputs := []string{
		"**Q. 1:** Texte\nRéponse libre ici.",
		"## Titre\ncontenu simple",
		"```go\nfmt.Println(\"x\")\n```",
	}

	for _, input := range inputs {
		once := f.Format(input)
		twice := f.Format(once)
		if once != twice {
			t.Errorf("Format not idempotent for %q:\nonce:  %q\ntwice: %q", input, once, twice)
		}
	}
}

func TestFormatQuestionBlock(t *testing.T) {
	f := newTestFormatter()
	got := f.Format("**Q. 1:** Texte\nRéponse libre ici.")

	want := "<p><strong>Q. 1:</strong></p>\n" +
		`<p class="verbatim">Texte Réponse libre ici.</p>`
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatStructuralHeaderLines(t *testing.T) {
	f := newTestFormatter()
	got := f.Format("**Date de l'entretien :** 3 mars 2024\n**Participants :** Alice, Bruno")

	// The sanitizer escapes apostrophes in text nodes.
	want := "<p><strong>Date de l&#39;entretien :</strong> 3 mars 2024<br/>" +
		"<strong>Participants :</strong> Alice, Bruno</p>"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatForcedBreakBeforeMarkers(t *testing.T) {
	// Markers glued to the previous sentence still get their own line.
	f := newTestFormatter()
	got := f.Format("Introduction. **Q. 2:** Suite ?")

	if !strings.Contains(got, `<p class="verbatim">Introduction.</p>`) {
		t.Errorf("missing verbatim intro paragraph: %q", got)
	}
	if !strings.Contains(got, "<strong>Q. 2:</strong>") {
		t.Errorf("missing question label: %q", got)
	}
}

func TestFormatMidLineMarkerStaysVerbatim(t *testing.T) {
	// A sentence that merely mentions a question label is free text; only a
	// label opening the line is interview structure.
	f := newTestFormatter()
	got := f.Format("Voir **Q.12** pour plus de détail")

	want := `<p class="verbatim">Voir <strong>Q.12</strong> pour plus de détail</p>`
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatLabelWithValueSplits(t *testing.T) {
	f := newTestFormatter()
	got := f.Format("**Thème :** Les avis sur la restitution divergent")

	want := "<p><strong>Thème :</strong></p>\n" +
		`<p class="verbatim">Les avis sur la restitution divergent</p>`
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatRedaction(t *testing.T) {
	f := newTestFormatter()

	got := f.Format("Analyse des Réponses Fermées du questionnaire")
	if strings.Contains(strings.ToLower(got), "réponses fermées") {
		t.Errorf("redacted phrase survived: %q", got)
	}
	if !strings.Contains(got, "questionnaire") {
		t.Errorf("surrounding text lost: %q", got)
	}
}

func TestFormatEmphasis(t *testing.T) {
	f := newTestFormatter()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"triple star", "***les deux***", "<strong><em>les deux</em></strong>"},
		{"double star", "**gras**", "<strong>gras</strong>"},
		{"double underscore", "__gras__", "<strong>gras</strong>"},
		{"single star", "avant *italique* après", "<em>italique</em>"},
		{"single underscore", "avant _italique_ après", "<em>italique</em>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Format(tt.input)
			if !strings.Contains(got, tt.want) {
				t.Errorf("Format(%q) = %q, want substring %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatEmphasisDoesNotCrossLines(t *testing.T) {
	f := newTestFormatter()
	got := f.Format("un *début\nfin* deux")
	if strings.Contains(got, "<em>") {
		t.Errorf("emphasis crossed a line: %q", got)
	}
}

func TestFormatHeadings(t *testing.T) {
	f := newTestFormatter()
	tests := []struct {
		input string
		want  string
	}{
		{"# Un", "<h1>Un</h1>"},
		{"###   Titre avec espaces   ", "<h3>Titre avec espaces</h3>"},
		{"###### Six", "<h6>Six</h6>"},
		{"   ## Indenté", "<h2>Indenté</h2>"},
	}

	for _, tt := range tests {
		got := f.Format(tt.input)
		if got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	// More than six hashes never escapes the h6 cap.
	got := f.Format("####### Sept")
	if !strings.HasPrefix(got, "<h6>") {
		t.Errorf("heading level not capped: %q", got)
	}
}

func TestFormatListsBecomeParagraphs(t *testing.T) {
	f := newTestFormatter()

	got := f.Format("- premier point\n- second point")
	want := "<p>premier point</p>\n<p>second point</p>"
	if got != want {
		t.Errorf("bullets: Format() = %q, want %q", got, want)
	}

	got = f.Format("1. un\n2) deux")
	want = "<p>un</p>\n<p>deux</p>"
	if got != want {
		t.Errorf("numbered: Format() = %q, want %q", got, want)
	}
}

func TestFormatCodeBlockProtected(t *testing.T) {
	// Nothing inside a fence is touched by emphasis, heading or list stages.
	f := newTestFormatter()
	input := "avant\n\n```go\n**pas gras**\n# pas un titre\n- pas une liste\n```\n\naprès"
	got := f.Format(input)

	if !strings.Contains(got, "<pre><code>") {
		t.Fatalf("missing code container: %q", got)
	}
	if !strings.Contains(got, `<div class="code-lang">go</div>`) {
		t.Errorf("missing language label: %q", got)
	}
	if !strings.Contains(got, "**pas gras**") {
		t.Errorf("emphasis markers rewritten inside fence: %q", got)
	}
	if strings.Contains(got, "<strong>pas gras</strong>") ||
		strings.Contains(got, "<h1>pas un titre</h1>") {
		t.Errorf("markdown applied inside fence: %q", got)
	}
}

func TestFormatCodeBlockEscapesHTML(t *testing.T) {
	f := newTestFormatter()
	got := f.Format("```\n<script>alert(1)</script>\n```")

	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("code content not escaped: %q", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("live script tag in output: %q", got)
	}
}

func TestFormatInlineCode(t *testing.T) {
	f := newTestFormatter()
	got := f.Format("utiliser `go build` pour compiler")

	if !strings.Contains(got, "<code>go build</code>") {
		t.Errorf("missing inline code: %q", got)
	}
}

func TestFormatCodeSurvivesEmphasisPass(t *testing.T) {
	// Underscores in code spans must not be eaten as italic markers while
	// the code is parked aside, or the spans never come back.
	f := newTestFormatter()
	got := f.Format("le champ `nom_fichier` et _vraiment_ en italique\n\n```\nsnake_case_id = 1\n```")

	if !strings.Contains(got, "<code>nom_fichier</code>") {
		t.Errorf("inline code lost or rewritten: %q", got)
	}
	if !strings.Contains(got, "snake_case_id = 1") {
		t.Errorf("fenced code lost or rewritten: %q", got)
	}
	if !strings.Contains(got, "<em>vraiment</em>") {
		t.Errorf("italic outside code not applied: %q", got)
	}
}

func TestFormatWhitespaceNormalization(t *testing.T) {
	f := newTestFormatter()

	got := f.Format("ligne  \nsuite")
	if got != `<p class="verbatim">ligne suite</p>` {
		t.Errorf("trailing blanks: Format() = %q", got)
	}

	got = f.Format("premier\n\n\n\n\nsecond")
	want := `<p class="verbatim">premier</p>` + "\n" + `<p class="verbatim">second</p>`
	if got != want {
		t.Errorf("newline collapse: Format() = %q, want %q", got, want)
	}
}

func TestFormatHTMLInputBypassesMarkdown(t *testing.T) {
	f := newTestFormatter()
	input := `<p class="verbatim">déjà **formaté**</p>`
	got := f.Format(input)

	if got != input {
		t.Errorf("HTML input altered: %q", got)
	}
}

func TestSanitizeAllowList(t *testing.T) {
	f := newTestFormatter()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"script stripped", "<p>ok</p><script>alert(1)</script>", "<p>ok</p>"},
		{"event handler stripped", `<p onclick="evil()">texte</p>`, "<p>texte</p>"},
		{"anchor unwrapped", `<a href="http://x">lien</a>`, "lien"},
		{"image stripped", `avant<img src="x">après`, "avantaprès"},
		{"class kept", `<em class="ok">bien</em>`, `<em class="ok">bien</em>`},
		{"headings kept", "<h2>Titre</h2>", "<h2>Titre</h2>"},
		{"iframe stripped", `<iframe src="http://x"></iframe>reste`, "reste"},
		{"unknown attr stripped", `<p data-x="1">texte</p>`, "<p>texte</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	f := newTestFormatter()
	input := `<p class="verbatim">texte <strong>gras</strong></p>`

	once := f.Sanitize(input)
	if twice := f.Sanitize(once); twice != once {
		t.Errorf("Sanitize not idempotent: %q then %q", once, twice)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"<p>fragment</p>", true},
		{"<br/>", true},
		{"du texte simple", false},
		{"a < b et b > c", false},
		{"**markdown**", false},
	}

	for _, tt := range tests {
		if got := LooksLikeHTML(tt.input); got != tt.want {
			t.Errorf("LooksLikeHTML(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
