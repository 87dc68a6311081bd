// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal paces the progressive display of a finished reply.
//
// Once a delivery completes, the full text is revealed a fixed number of
// runes per tick. Each tick recomputes the visible prefix from the target
// wholesale rather than appending, so a dropped or duplicated tick can
// never corrupt the display. Cancelling freezes whatever prefix is
// currently visible; it is never rolled back.
//
// The engine itself is synchronous. Tick cadence comes from Bubble Tea
// tick commands so the UI event loop stays the only writer.
package reveal
