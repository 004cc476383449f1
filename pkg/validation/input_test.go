// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// Tests for input validation

package validation

import (
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		ident   string
		wantErr bool
	}{
		// Valid identifiers
		{"single letter", "x", false},
		{"word", "theta", false},
		{"with digit", "x1", false},
		{"underscore prefix", "_t", false},
		{"mixed", "dy_dx2", false},
		{"uppercase", "E", false},

		// Invalid identifiers
		{"empty", "", true},
		{"leading digit", "2x", true},
		{"dot", "x.y", true},
		{"at sign", "x@y", true},
		{"space", "x y", true},
		{"hyphen", "x-y", true},
		{"unicode", "π", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.ident)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.ident, err, tt.wantErr)
			}
		})
	}
}

func TestAttackPattern(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		frag string
		hit  bool
	}{
		{"eval call", "eval('x')", "eval", true},
		{"import dunder", "__import__('os')", "__import__", true},
		{"open call", "open('f')", "open", true},
		{"case insensitive", "EVAL('x')", "eval", true},
		{"clean polynomial", "x^2 + 2*x + 1", "", false},
		{"clean trig", "sin(x)*cos(x)", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, hit := AttackPattern(tt.raw)
			if hit != tt.hit || frag != tt.frag {
				t.Errorf("AttackPattern(%q) = (%q, %v), want (%q, %v)", tt.raw, frag, hit, tt.frag, tt.hit)
			}
		})
	}
}

func TestBannedPunctuation(t *testing.T) {
	if !BannedPunctuation("x@y") {
		t.Error("expected @ to be flagged")
	}
	if !BannedPunctuation("1.2.3") {
		t.Error("expected . to be flagged")
	}
	if BannedPunctuation("sin(") {
		t.Error("bare syntax error should not be flagged")
	}
}
