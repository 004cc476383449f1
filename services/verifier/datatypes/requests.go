// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the request and response records for the
// verification endpoints.
//
// # Description
//
// Every verification mode accepts a small JSON body and returns the
// engine's Result unchanged, so the response side stays in the calculus
// package. The request records here carry the gin binding tags that
// enforce required fields before any expression parsing happens.
package datatypes

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// LimitPoint is the approach point of a limit request. Clients send it
// either as a string expression ("0", "pi/2") or a bare JSON number;
// both forms normalize to the string the parser consumes.
type LimitPoint string

// UnmarshalJSON accepts a JSON string or number for the approach point.
func (p *LimitPoint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = LimitPoint(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("limit point must be a string or a number")
	}
	*p = LimitPoint(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// DerivativeRequest asks whether d/dVar(Expr) matches Expected.
type DerivativeRequest struct {
	Expr      string  `json:"expr" binding:"required"`
	Var       string  `json:"var" binding:"required"`
	Expected  string  `json:"expected" binding:"required"`
	Tolerance float64 `json:"tolerance"`
}

// IntegralRequest asks whether an antiderivative of Expr matches
// Expected. ConstantFree defaults to true: additive constants on both
// sides are stripped before comparison.
type IntegralRequest struct {
	Expr         string  `json:"expr" binding:"required"`
	Var          string  `json:"var" binding:"required"`
	Expected     string  `json:"expected" binding:"required"`
	ConstantFree *bool   `json:"constant_free"`
	Tolerance    float64 `json:"tolerance"`
}

// WantsConstantFree reports the effective constant_free setting.
func (r *IntegralRequest) WantsConstantFree() bool {
	if r.ConstantFree == nil {
		return true
	}
	return *r.ConstantFree
}

// LimitRequest asks whether Expr has a finite limit as Var approaches To.
type LimitRequest struct {
	Expr      string     `json:"expr" binding:"required"`
	Var       string     `json:"var" binding:"required"`
	To        LimitPoint `json:"to" binding:"required"`
	Direction string     `json:"direction" binding:"omitempty,oneof=left right both"`
	Tolerance float64    `json:"tolerance"`
}

// EffectiveDirection reports the requested direction, defaulting to both.
func (r *LimitRequest) EffectiveDirection() string {
	if r.Direction == "" {
		return "both"
	}
	return r.Direction
}

// AlgebraRequest asks whether two expressions are equivalent.
type AlgebraRequest struct {
	Lhs       string  `json:"lhs" binding:"required"`
	Rhs       string  `json:"rhs" binding:"required"`
	Tolerance float64 `json:"tolerance"`
}

// DimensionalRequest asks whether an expression carries unit symbols.
type DimensionalRequest struct {
	Expr         string `json:"expr" binding:"required"`
	ExpectedUnit string `json:"expected_unit" binding:"required"`
}

// NumericProbeRequest asks whether an expression evaluates cleanly at
// sampled points. NumPoints defaults to 5 when omitted.
type NumericProbeRequest struct {
	Expr      string `json:"expr" binding:"required"`
	NumPoints int    `json:"num_points"`
}
