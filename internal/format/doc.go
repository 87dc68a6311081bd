// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format converts restitution transcripts to safe HTML fragments.
//
// Replies arrive as loosely structured markdown: interview headers in bold
// labels, question markers, free-text answers, occasional code fences. The
// formatter turns that into the fragment the export document embeds, with
// interview structure kept line-per-line and free text merged into
// justified paragraphs.
//
// # Pipeline
//
// Format applies a fixed stage order. Code regions are lifted into a
// placeholder arena before any markdown rewriting so their contents are
// never touched by emphasis or heading stages, and restored just before
// sanitization. The final stage is always the allow-list sanitizer, which
// also runs alone when the input already looks like HTML, making Format
// idempotent on its own output.
//
// # Key Types
//
//   - Formatter: compiled pipeline with redaction options
//   - Options: configurable redacted phrases
//
// # Usage
//
//	f := format.New(format.DefaultOptions())
//	fragment := f.Format(reply)
package format
