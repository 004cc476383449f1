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

// Result is the outcome of one equivalence check. Details carries both raw
// and simplified operand forms for diagnostics and, on any failure, a
// non-empty "error" string. Never mutated after an engine returns it.
type Result struct {
	Equivalent bool           `json:"equivalent"`
	Details    map[string]any `json:"details"`
}

// ProbeResult is the outcome of a numeric sanity probe.
type ProbeResult struct {
	Valid   bool           `json:"valid"`
	Details map[string]any `json:"details"`
}

func failure(msg string) Result {
	return Result{Equivalent: false, Details: map[string]any{"error": msg}}
}

func probeFailure(msg string) ProbeResult {
	return ProbeResult{Valid: false, Details: map[string]any{"error": msg}}
}

// Options carries per-call knobs shared by the engines. The zero value
// selects the defaults: 1e-10 tolerance and the process-wide time-seeded
// sampler.
type Options struct {
	Tolerance float64
	Sampler   *Sampler
}

func (o Options) tolerance() float64 {
	if o.Tolerance > 0 {
		return o.Tolerance
	}
	return defaultTolerance
}

func (o Options) sampler() *Sampler {
	if o.Sampler != nil {
		return o.Sampler
	}
	return defaultSampler
}
