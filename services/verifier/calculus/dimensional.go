// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package calculus

import (
	"fmt"
	"strings"
)

// unitTokens are the SI unit symbols the dimensional stub looks for.
var unitTokens = []string{"m", "s", "kg", "N", "J", "W", "A", "V", "F", "H", "T", "C", "mol"}

// CheckDimensional is a minimal unit-presence check, kept for contract
// compatibility. It reports whether any SI unit token appears as a
// substring of the stringified expression; it does not compare the found
// units against expectedUnit. Real dimensional analysis would map the
// expression into a unit registry and compare exponent vectors; that is a
// known gap, flagged in the result note.
func CheckDimensional(expr, expectedUnit string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Sprintf("internal computation fault: %v", r))
		}
	}()

	parsed, err := SafeParse(expr)
	if err != nil {
		return failure(err.Error())
	}

	rendered := parsed.String()
	hasUnits := false
	for _, tok := range unitTokens {
		if strings.Contains(rendered, tok) {
			hasUnits = true
			break
		}
	}

	return Result{
		Equivalent: hasUnits,
		Details: map[string]any{
			"expression":    rendered,
			"expected_unit": expectedUnit,
			"has_units":     hasUnits,
			"note":          "unit detection is token presence only, not dimensional analysis",
		},
	}
}
