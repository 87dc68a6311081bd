// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/jeranaias/restitution-tui/internal/format"
	"github.com/jeranaias/restitution-tui/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MimeType is what the backend-era clients served the document as;
	// it is what makes Word claim the file.
	MimeType = "application/msword"

	// DefaultFilename is the historical download name.
	DefaultFilename = "messages-selectionnes.doc"
)

// ErrNoSelection is returned when no selected message has any text.
var ErrNoSelection = errors.New("aucun message sélectionné")

// documentStylesheet is the fixed Word-facing CSS. The mso-line-height
// rule pins Word to exactly 15pt instead of treating it as a minimum.
const documentStylesheet = `body {
  font-family: 'Aptos', 'Calibri', sans-serif;
  font-size: 11pt;
  line-height: 15pt;
  mso-line-height-rule: exactly;
}
p {
  margin: 0 0 8pt 0;
  line-height: 15pt;
  mso-line-height-rule: exactly;
}
p.verbatim {
  text-align: justify;
}
h1, h2, h3, h4, h5, h6 {
  font-family: 'Aptos', 'Calibri', sans-serif;
}
h2:first-of-type {
  text-align: center;
}
pre, code {
  font-family: 'Courier New', monospace;
  font-size: 10pt;
}
div.code-block {
  margin: 8pt 0;
}
div.code-lang {
  font-size: 8pt;
  color: #666666;
}`

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures where the document lands.
type Options struct {
	// OutputDir is the directory where the file is written.
	// Default: current working directory.
	OutputDir string

	// Filename overrides the default download name.
	Filename string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool
}

// DefaultOptions returns the production export options.
func DefaultOptions() Options {
	return Options{
		OutputDir: ".",
		Filename:  DefaultFilename,
	}
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder assembles export documents. Safe for concurrent use.
type Builder struct {
	formatter *format.Formatter
}

// NewBuilder creates a Builder on the given formatter.
func NewBuilder(f *format.Formatter) *Builder {
	return &Builder{formatter: f}
}

// BuildDocument renders the selected messages into a complete document.
// Messages without text are dropped, the rest are ordered ascending by ID
// and formatted individually. The result is deterministic for a given
// selection.
func (b *Builder) BuildDocument(msgs []*model.Message) ([]byte, error) {
	selected := make([]*model.Message, 0, len(msgs))
	for _, m := range msgs {
		if strings.TrimSpace(m.DisplayText()) != "" {
			selected = append(selected, m)
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoSelection
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].ID < selected[j].ID
	})

	var doc strings.Builder
	doc.WriteString("<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	doc.WriteString(documentStylesheet)
	doc.WriteString("\n</style>\n</head>\n<body>\n")
	for _, m := range selected {
		doc.WriteString(b.formatter.Format(m.DisplayText()))
		doc.WriteString("\n")
	}
	doc.WriteString("</body>\n</html>\n")

	return []byte(doc.String()), nil
}

// WriteFile builds the document and writes it under the configured name.
// Returns the output path.
func (b *Builder) WriteFile(msgs []*model.Message, opts Options) (string, error) {
	content, err := b.BuildDocument(msgs)
	if err != nil {
		return "", err
	}

	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("création du dossier d'export: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, opts.Filename)
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("écriture du document: %w", err)
	}

	if opts.OpenAfterExport {
		// Non-fatal: the file is already on disk.
		_ = openFile(outputPath)
	}

	return outputPath, nil
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("plateforme non prise en charge: %s", runtime.GOOS)
	}
	return cmd.Start()
}
