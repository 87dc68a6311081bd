// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string helpers shared across the client.
//
// Transcript text is French and full of accented characters, so every
// truncation here counts runes, never bytes. Splitting a multi-byte
// character corrupts the UTF-8 stream and renders as garbage in the
// terminal.
//
// # Key Functions
//
//   - TruncateRunes: rune-safe truncation with ellipsis
//   - TruncateRunesNoEllipsis: rune-safe truncation, bare
//   - RuneLen: character count
//
// # Usage
//
//	title := util.TruncateRunes(prompt, 40)
package util
