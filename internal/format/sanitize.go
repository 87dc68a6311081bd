// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"github.com/microcosm-cc/bluemonday"
)

// sanitizePolicy is the allow-list every fragment passes through, whether
// it came out of the pipeline or arrived as pre-rendered HTML. Anything
// outside this list is stripped, not escaped.
var sanitizePolicy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"body", "div", "span", "p", "pre", "code", "br",
		"strong", "em",
		"h1", "h2", "h3", "h4", "h5", "h6",
	)
	p.AllowAttrs("class", "style").Globally()
	return p
}

// Sanitize filters a fragment through the allow-list. It is the last stage
// of Format and is idempotent.
func (f *Formatter) Sanitize(fragment string) string {
	return sanitizePolicy.Sanitize(fragment)
}
