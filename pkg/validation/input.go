// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided text that reaches the
// expression parser. Using these validators prevents interpreter-escape
// attempts (eval/exec style payloads) from being treated as math input.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches safe symbol and variable names.
// Allows: ASCII letters, digits, underscore; must not start with a digit.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// attackSubstrings are fragments of interpreter-escape payloads that have no
// legitimate reading as mathematical notation. Scanned lowercase.
var attackSubstrings = []string{
	"eval",
	"exec",
	"__import__",
	"open",
	"compile",
	"getattr",
	"globals",
}

// IsSafeIdentifier reports whether name is usable as a symbol or variable name.
func IsSafeIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// ValidateIdentifier validates a symbol or variable name.
//
// Valid identifiers:
//   - ASCII letters A-Z a-z
//   - Digits 0-9 (not in the first position)
//   - Underscores
//
// Returns an error if the name is invalid.
//
// Example:
//
//	if err := validation.ValidateIdentifier(variable); err != nil {
//	    return nil, fmt.Errorf("invalid variable: %w", err)
//	}
//	// Safe to use as a differentiation variable
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier: %q (must be letters, digits, or underscores, not starting with a digit)", name)
	}

	return nil
}

// AttackPattern scans raw text for known interpreter-escape fragments.
// Returns the first fragment found and true, or "" and false when clean.
//
// This is a diagnostic classifier, not a gate: the parser's allowlist is the
// actual security boundary. Use this to label inputs that already failed to
// parse so the caller sees "unsafe function detected" instead of a bare
// syntax error.
func AttackPattern(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	for _, frag := range attackSubstrings {
		if strings.Contains(lower, frag) {
			return frag, true
		}
	}
	return "", false
}

// BannedPunctuation reports whether raw contains punctuation that never
// appears in a well-formed expression submitted to this service. Consulted
// only after a parse failure, so decimal points inside numbers (which parse
// fine) never reach it.
func BannedPunctuation(raw string) bool {
	return strings.ContainsAny(raw, "@.-")
}
