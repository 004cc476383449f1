// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package calculus implements the symbolic/numeric answer verification core.
//
// The package exposes one checker per verification mode (derivative,
// integral, limit, algebra, dimensional, numeric probe). Every checker
// accepts untrusted strings, parses them through an allowlisted safe parser,
// attempts an exact symbolic equivalence proof, and falls back to randomized
// numeric probing when the symbolic route is inconclusive. No checker ever
// panics or returns a Go error: every failure path is converted into a
// well-formed result carrying an explanatory detail string.
package calculus

import "fmt"

// UnsafeInputError reports input rejected by the safety layer: a function
// name outside the allowlist, a symbol violating the identifier pattern, or
// raw text matching a known interpreter-escape payload.
type UnsafeInputError struct {
	Input  string
	Reason string
}

func (e *UnsafeInputError) Error() string {
	return fmt.Sprintf("unsafe input %q: %s", e.Input, e.Reason)
}

// ParseError reports syntactically malformed input that is not a security
// violation.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

// EvaluationError reports a failed numeric evaluation at one test point.
// Callers skip the point; the error never propagates past the engine.
type EvaluationError struct {
	Reason string
}

func (e *EvaluationError) Error() string {
	return "evaluation failed: " + e.Reason
}

// ComputationFault reports an unexpected failure inside the symbolic kernel,
// including recovered panics from degenerate arithmetic.
type ComputationFault struct {
	Op     string
	Detail string
}

func (e *ComputationFault) Error() string {
	return fmt.Sprintf("computation fault in %s: %s", e.Op, e.Detail)
}
