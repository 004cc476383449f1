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
	"math/rand"
	"sync"
	"time"
)

const (
	sampleLow  = -10.0
	sampleHigh = 10.0
)

// Sampler draws test points uniformly from [sampleLow, sampleHigh].
// Safe for concurrent use. Construct with a fixed seed for reproducible
// verification runs; the package-level default is time-seeded.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a sampler with its own seeded generator.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

var defaultSampler = NewSampler(time.Now().UnixNano())

func (s *Sampler) uniform() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sampleLow + (sampleHigh-sampleLow)*s.rng.Float64()
}

// Points draws count independent values for a single symbol.
func (s *Sampler) Points(count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = s.uniform()
	}
	return out
}

// Assignments draws count independent assignments, each mapping every given
// symbol to a fresh value. Symbols within one assignment get independent
// draws.
func (s *Sampler) Assignments(symbols []string, count int) []map[string]float64 {
	out := make([]map[string]float64, count)
	for i := range out {
		m := make(map[string]float64, len(symbols))
		for _, name := range symbols {
			m[name] = s.uniform()
		}
		out[i] = m
	}
	return out
}
