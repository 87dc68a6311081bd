// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// COMPILED PATTERNS
// =============================================================================

var (
	// Structural interview markers that must start on their own line.
	forcedBreakPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*(\*\*Date de l'entretien :\*\*)`),
		regexp.MustCompile(`\s*(\*\*Participants :\*\*)`),
		regexp.MustCompile(`\s*(\*\*Équipe :\*\*)`),
		regexp.MustCompile(`\s*(\*\*Commentaire :\*\*)`),
		regexp.MustCompile(`\s*(\*\*Q\. )`),
	}

	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
	multiNewlineRe  = regexp.MustCompile(`\n{3,}`)

	codeBlockRe  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\\n?([\\s\\S]*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`\\n]+)`")

	// Emphasis, strongest marker first. None of these cross a line.
	boldItalicStarRe  = regexp.MustCompile(`\*\*\*([^\n]+?)\*\*\*`)
	boldItalicUnderRe = regexp.MustCompile(`___([^\n]+?)___`)
	boldStarRe        = regexp.MustCompile(`\*\*([^\n]+?)\*\*`)
	boldUnderRe       = regexp.MustCompile(`__([^\n]+?)__`)
	italicStarRe      = regexp.MustCompile(`\*([^\n*]+?)\*`)
	italicUnderRe     = regexp.MustCompile(`_([^\n_]+?)_`)

	// A bold question label pushes whatever follows it to the next line.
	questionLabelRe = regexp.MustCompile(`(<strong>Q\.[^<]*?:</strong>)[ \t]*`)

	headingRe  = regexp.MustCompile(`(?m)^ {0,3}(#{1,6})[ \t]*(.+)$`)
	bulletRe   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+(.+)$`)
	numberedRe = regexp.MustCompile(`(?m)^[ \t]*[0-9]+[.)][ \t]+(.+)$`)

	blockSplitRe = regexp.MustCompile(`\n[ \t]*\n`)
	blockTagRe   = regexp.MustCompile(`(?i)^<(h[1-6]|p|div|pre)[\s>]`)
	htmlTagRe    = regexp.MustCompile(`(?i)</?[a-z][^>]*>`)

	loneLabelRe   = regexp.MustCompile(`^<strong>[^<]+:[ \t]*</strong>[ \t]*$`)
	labelRestRe   = regexp.MustCompile(`^<strong>([^<]+:[ \t]*)</strong>[ \t]*(.+)$`)
	placeholderRe = regexp.MustCompile(`^@@(?:CB|IC)[0-9]+@@$`)
)

// structuralMarkers flag a line as interview structure once emphasis has
// been applied. A marker only counts when it opens the line: a free-text
// sentence that merely mentions a label stays verbatim.
var structuralMarkers = []string{
	"<strong>Date de l'entretien",
	"<strong>Participants",
	"<strong>Équipe",
	"<strong>Q.",
	"<strong>Commentaire",
}

// =============================================================================
// FORMATTER
// =============================================================================

// Options configures a Formatter.
type Options struct {
	// RedactedPhrases are removed from the input, case-insensitively,
	// before any other processing.
	RedactedPhrases []string
}

// DefaultOptions returns the production redaction set.
func DefaultOptions() Options {
	return Options{
		RedactedPhrases: []string{"réponses fermées"},
	}
}

// Formatter converts raw reply text into sanitized HTML fragments.
// Safe for concurrent use once constructed.
type Formatter struct {
	redactions []*regexp.Regexp
}

// New creates a Formatter with the given options.
func New(opts Options) *Formatter {
	f := &Formatter{}
	for _, phrase := range opts.RedactedPhrases {
		if phrase == "" {
			continue
		}
		f.redactions = append(f.redactions, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(phrase)))
	}
	return f
}

// LooksLikeHTML reports whether the text already contains markup tags.
// Such content skips the markdown stages and goes straight to the
// sanitizer, so formatting already-formatted content is a no-op. Tags
// inside code fences or spans do not count: those are content, not markup.
func LooksLikeHTML(s string) bool {
	stripped := codeBlockRe.ReplaceAllString(s, "")
	stripped = inlineCodeRe.ReplaceAllString(stripped, "")
	return htmlTagRe.MatchString(stripped)
}

// Format converts a raw reply into a sanitized HTML fragment.
// It never fails: empty input produces an empty fragment and any other
// input, including "0", produces at least one paragraph.
func (f *Formatter) Format(raw string) string {
	if raw == "" {
		return ""
	}
	if LooksLikeHTML(raw) {
		return f.Sanitize(raw)
	}

	s := f.redact(raw)
	s = forceStructuralBreaks(s)
	s = normalizeWhitespace(s)

	var ar arena
	s = ar.extractCodeBlocks(s)
	s = ar.extractInlineCode(s)

	s = applyEmphasis(s)
	s = applyHeadings(s)
	s = flattenLists(s)
	s = assembleBlocks(s)

	s = ar.restore(s)
	return f.Sanitize(s)
}

// redact strips configured phrases before anything else sees the text.
func (f *Formatter) redact(s string) string {
	for _, re := range f.redactions {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// =============================================================================
// TEXT STAGES
// =============================================================================

// forceStructuralBreaks ensures each interview marker starts its own line,
// collapsing whatever whitespace preceded it into a single newline.
func forceStructuralBreaks(s string) string {
	for _, re := range forcedBreakPatterns {
		s = re.ReplaceAllString(s, "\n$1")
	}
	return s
}

// normalizeWhitespace removes trailing blanks and collapses runs of three
// or more newlines into a single blank line.
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = trailingSpaceRe.ReplaceAllString(s, "\n")
	s = multiNewlineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// applyEmphasis converts markdown emphasis to strong/em tags, strongest
// marker first so ** is not consumed as two singles. A bold question label
// additionally forces a line break after itself.
func applyEmphasis(s string) string {
	s = boldItalicStarRe.ReplaceAllString(s, "<strong><em>$1</em></strong>")
	s = boldItalicUnderRe.ReplaceAllString(s, "<strong><em>$1</em></strong>")
	s = boldStarRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = boldUnderRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicStarRe.ReplaceAllString(s, "<em>$1</em>")
	s = italicUnderRe.ReplaceAllString(s, "<em>$1</em>")
	s = questionLabelRe.ReplaceAllString(s, "$1\n")
	return s
}

// applyHeadings converts markdown headings, trimming the title.
func applyHeadings(s string) string {
	return headingRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := headingRe.FindStringSubmatch(m)
		tag := "h" + strconv.Itoa(len(sub[1]))
		return "<" + tag + ">" + strings.TrimSpace(sub[2]) + "</" + tag + ">"
	})
}

// flattenLists turns bullet and numbered list items into plain paragraphs.
// The export target renders lists poorly, so markers are dropped entirely.
func flattenLists(s string) string {
	s = bulletRe.ReplaceAllString(s, "<p>$1</p>")
	s = numberedRe.ReplaceAllString(s, "<p>$1</p>")
	return s
}

// =============================================================================
// BLOCK ASSEMBLY
// =============================================================================

// assembleBlocks segments the text on blank lines and classifies each
// remaining line as interview structure or free text. Structural runs join
// with <br/> inside one paragraph; free-text runs merge into a single
// justified paragraph.
func assembleBlocks(s string) string {
	var out []string
	for _, block := range blockSplitRe.Split(s, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if blockTagRe.MatchString(block) || placeholderRe.MatchString(block) {
			out = append(out, block)
			continue
		}
		out = append(out, segmentLines(strings.Split(block, "\n"))...)
	}
	return strings.Join(out, "\n")
}

func segmentLines(lines []string) []string {
	var out []string
	var structural, verbatim []string

	flushStructural := func() {
		if len(structural) > 0 {
			out = append(out, "<p>"+strings.Join(structural, "<br/>")+"</p>")
			structural = nil
		}
	}
	flushVerbatim := func() {
		if len(verbatim) > 0 {
			out = append(out, `<p class="verbatim">`+strings.Join(verbatim, " ")+"</p>")
			verbatim = nil
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case blockTagRe.MatchString(line) || placeholderRe.MatchString(line):
			flushStructural()
			flushVerbatim()
			out = append(out, line)
		case structuralLine(line):
			flushVerbatim()
			structural = append(structural, line)
		default:
			if m := labelRestRe.FindStringSubmatch(line); m != nil {
				// A generic "<strong>Label:</strong> value" line splits:
				// the label is structure, the value is free text.
				flushVerbatim()
				structural = append(structural, "<strong>"+m[1]+"</strong>")
				flushStructural()
				verbatim = append(verbatim, m[2])
				continue
			}
			flushStructural()
			verbatim = append(verbatim, line)
		}
	}
	flushStructural()
	flushVerbatim()
	return out
}

func structuralLine(line string) bool {
	if strings.HasPrefix(line, "<h") {
		return true
	}
	for _, marker := range structuralMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return loneLabelRe.MatchString(line)
}

// =============================================================================
// PLACEHOLDER ARENA
// =============================================================================

// arena holds code regions lifted out of the text so no markdown stage can
// rewrite their contents. The stand-in tokens (@@CB0@@, @@IC0@@) contain no
// underscore, asterisk or hash, so the emphasis, heading and list stages
// leave them intact.
type arena struct {
	codeBlocks []string
	inlineCode []string
}

func (a *arena) extractCodeBlocks(s string) string {
	return codeBlockRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := codeBlockRe.FindStringSubmatch(m)
		lang, code := sub[1], strings.TrimRight(sub[2], "\n")

		var b strings.Builder
		b.WriteString(`<div class="code-block">`)
		if lang != "" {
			b.WriteString(`<div class="code-lang">` + html.EscapeString(lang) + `</div>`)
		}
		b.WriteString("<pre><code>" + html.EscapeString(code) + "</code></pre></div>")

		a.codeBlocks = append(a.codeBlocks, b.String())
		return "@@CB" + strconv.Itoa(len(a.codeBlocks)-1) + "@@"
	})
}

func (a *arena) extractInlineCode(s string) string {
	return inlineCodeRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := inlineCodeRe.FindStringSubmatch(m)
		a.inlineCode = append(a.inlineCode, "<code>"+html.EscapeString(sub[1])+"</code>")
		return "@@IC" + strconv.Itoa(len(a.inlineCode)-1) + "@@"
	})
}

// restore reinjects extracted regions, inline spans first, in their
// original order.
func (a *arena) restore(s string) string {
	for i, code := range a.inlineCode {
		s = strings.Replace(s, "@@IC"+strconv.Itoa(i)+"@@", code, 1)
	}
	for i, block := range a.codeBlocks {
		s = strings.Replace(s, "@@CB"+strconv.Itoa(i)+"@@", block, 1)
	}
	return s
}
