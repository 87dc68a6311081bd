// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export builds the word-processor document for selected messages.
//
// The deliverable of a restitution session is a .doc file the consultants
// open in Word: selected exchanges, formatted, under a fixed stylesheet
// (11pt Aptos/Calibri, exact 15pt line height, justified free text). The
// document is HTML served under the application/msword MIME type, which
// Word renders with the embedded styles.
//
// # Key Types
//
//   - Builder: assembles the document from formatted fragments
//   - Options: output location and post-write behavior
//
// # Usage
//
//	b := export.NewBuilder(formatter)
//	path, err := b.WriteFile(selected, export.DefaultOptions())
package export
