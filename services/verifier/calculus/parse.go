// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file implements the safe expression parser: untrusted text in,
// allowlist-audited symbolic tree out.
package calculus

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/njchilds90/gosymbol"

	"github.com/ApexPrepAI/apcalc/pkg/validation"
)

// =============================================================================
// Allowlist
// =============================================================================

// allowedFuncs is the fixed set of function names the parser accepts.
// Everything else is rejected regardless of syntactic validity. Read-only
// after init.
var allowedFuncs = map[string]struct{}{
	// trigonometric
	"sin": {}, "cos": {}, "tan": {}, "sec": {}, "csc": {}, "cot": {},
	"asin": {}, "acos": {}, "atan": {}, "asec": {}, "acsc": {}, "acot": {},
	"arcsin": {}, "arccos": {}, "arctan": {}, "arcsec": {}, "arccsc": {}, "arccot": {},
	// hyperbolic
	"sinh": {}, "cosh": {}, "tanh": {}, "sech": {}, "csch": {}, "coth": {},
	"asinh": {}, "acosh": {}, "atanh": {}, "asech": {}, "acsch": {}, "acoth": {},
	"arcsinh": {}, "arccosh": {}, "arctanh": {},
	// exponential / logarithmic
	"exp": {}, "log": {}, "ln": {},
	// misc elementary
	"sqrt": {}, "abs": {}, "Abs": {}, "sign": {}, "factorial": {},
	"gamma": {}, "beta": {},
	"floor": {}, "ceil": {}, "ceiling": {}, "frac": {},
	"Min": {}, "Max": {}, "re": {}, "im": {}, "conjugate": {},
	// calculus operators, evaluated and unevaluated forms
	"diff": {}, "integrate": {}, "limit": {},
	"Derivative": {}, "Integral": {}, "Limit": {},
	// special functions
	"erf": {}, "erfc": {}, "erfi": {},
	"besselj": {}, "bessely": {}, "besseli": {}, "besselk": {},
	"airyai": {}, "airybi": {}, "airyaiprime": {}, "airybiprime": {},
	// logical / relational
	"And": {}, "Or": {}, "Not": {}, "Xor": {},
	"Eq": {}, "Ne": {}, "Lt": {}, "Le": {}, "Gt": {}, "Ge": {},
	// generic constructors
	"Symbol": {}, "Function": {}, "Lambda": {}, "Piecewise": {},
}

// SafeParse turns untrusted text into a validated symbolic expression tree.
//
// # Description
//
// Two-phase parse-then-audit: the text is first parsed with a permissive
// grammar (implicit multiplication, ^ or ** as power), then the resulting
// tree is walked and every function name is checked against allowedFuncs and
// every symbol against the safe identifier pattern. When the parse itself
// fails, the raw text is re-inspected for known interpreter-escape payloads
// and banned punctuation so the caller gets a security classification
// instead of a bare syntax error.
//
// # Inputs
//
//   - raw: untrusted expression text
//
// # Outputs
//
//   - the parsed tree, or *UnsafeInputError / *ParseError
func SafeParse(raw string) (expr gosymbol.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			expr = nil
			err = classifyFailure(raw, fmt.Errorf("degenerate arithmetic: %v", r))
		}
	}()

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &ParseError{Input: raw, Reason: "empty expression"}
	}

	toks, terr := tokenize(trimmed)
	if terr != nil {
		return nil, classifyFailure(raw, terr)
	}

	p := &parser{raw: raw, toks: toks}
	tree, perr := p.parseExpr()
	if perr == nil && p.pos != len(p.toks) {
		perr = fmt.Errorf("unexpected %q", p.toks[p.pos].text)
	}
	if perr != nil {
		var unsafe *UnsafeInputError
		if errors.As(perr, &unsafe) {
			return nil, perr
		}
		return nil, classifyFailure(raw, perr)
	}

	if aerr := auditTree(raw, tree); aerr != nil {
		return nil, aerr
	}
	return tree, nil
}

// classifyFailure labels a failed parse. Attack payloads take precedence
// over banned punctuation; everything else is a plain syntax error.
func classifyFailure(raw string, cause error) error {
	if frag, hit := validation.AttackPattern(raw); hit {
		return &UnsafeInputError{Input: raw, Reason: "unsafe function detected: " + frag}
	}
	if validation.BannedPunctuation(raw) {
		return &UnsafeInputError{Input: raw, Reason: "unsafe symbol pattern"}
	}
	return &ParseError{Input: raw, Reason: cause.Error()}
}

// auditTree walks a parsed tree and enforces the allowlist. This runs even
// though the parser itself only emits allowlisted nodes: the audit is the
// security boundary, the parser is just a builder.
func auditTree(raw string, e gosymbol.Expr) error {
	switch v := e.(type) {
	case *gosymbol.Num:
		return nil
	case *gosymbol.Sym:
		if !validation.IsSafeIdentifier(v.Name()) {
			return &UnsafeInputError{Input: raw, Reason: "unsafe symbol pattern: " + v.Name()}
		}
		return nil
	case *gosymbol.Add:
		for _, t := range v.Terms() {
			if err := auditTree(raw, t); err != nil {
				return err
			}
		}
		return nil
	case *gosymbol.Mul:
		for _, f := range v.Factors() {
			if err := auditTree(raw, f); err != nil {
				return err
			}
		}
		return nil
	case *gosymbol.Pow:
		if err := auditTree(raw, v.Base()); err != nil {
			return err
		}
		return auditTree(raw, v.ExpExpr())
	case *gosymbol.Func:
		if _, ok := allowedFuncs[v.FuncName()]; !ok {
			return &UnsafeInputError{Input: raw, Reason: "unsafe function detected: " + v.FuncName()}
		}
		return auditTree(raw, v.Arg())
	}
	return &ParseError{Input: raw, Reason: fmt.Sprintf("unsupported expression node %T", e)}
}

// =============================================================================
// Tokenizer
// =============================================================================

type tokKind int

const (
	tokNum tokKind = iota
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokKind
	text string
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(s) && isDigit(s[i+1])):
			j := i
			seenDot := false
			for j < len(s) {
				if isDigit(s[j]) {
					j++
					continue
				}
				if s[j] == '.' && !seenDot && j+1 < len(s) && isDigit(s[j+1]) {
					seenDot = true
					j += 2
					continue
				}
				break
			}
			toks = append(toks, token{tokNum, s[i:j]})
			i = j
		case isLetter(c) || c == '_':
			j := i + 1
			for j < len(s) && (isLetter(s[j]) || isDigit(s[j]) || s[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, s[i:j]})
			i = j
		case c == '*':
			if i+1 < len(s) && s[i+1] == '*' {
				toks = append(toks, token{tokCaret, "^"})
				i += 2
			} else {
				toks = append(toks, token{tokStar, "*"})
				i++
			}
		case c == '+':
			toks = append(toks, token{tokPlus, "+"})
			i++
		case c == '-':
			toks = append(toks, token{tokMinus, "-"})
			i++
		case c == '/':
			toks = append(toks, token{tokSlash, "/"})
			i++
		case c == '^':
			toks = append(toks, token{tokCaret, "^"})
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", string(c))
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return toks, nil
}

// =============================================================================
// Parser
// =============================================================================

// Grammar, loosest binding first:
//
//	expr   := term  (('+' | '-') term)*
//	term   := unary (('*' | '/' | juxtaposition) operand)*
//	unary  := ('-' | '+') unary | power
//	power  := atom ('^' unary)?          right-associative
//	atom   := number | ident | ident '(' expr (',' expr)* ')' | '(' expr ')'
//
// Juxtaposition (implicit multiplication) applies when a factor is followed
// directly by an identifier or an opening parenthesis, so "2x" and "2(x+1)"
// parse. Two adjacent numbers stay a syntax error: "2 3" is ambiguous.
type parser struct {
	raw  string
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) parseExpr() (gosymbol.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.kind != tokPlus && t.kind != tokMinus) {
			break
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if t.kind == tokMinus {
			right = gosymbol.MulOf(gosymbol.N(-1), right)
		}
		left = gosymbol.AddOf(left, right)
	}
	return left, nil
}

func (p *parser) parseTerm() (gosymbol.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok {
			break
		}
		switch t.kind {
		case tokStar:
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = gosymbol.MulOf(left, right)
		case tokSlash:
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = gosymbol.MulOf(left, gosymbol.PowOf(right, gosymbol.N(-1)))
		case tokIdent, tokLParen:
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left = gosymbol.MulOf(left, right)
		default:
			return left, nil
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (gosymbol.Expr, error) {
	t, ok := p.peek()
	if ok && t.kind == tokMinus {
		p.pos++
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return gosymbol.MulOf(gosymbol.N(-1), e), nil
	}
	if ok && t.kind == tokPlus {
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (gosymbol.Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if t, ok := p.peek(); ok && t.kind == tokCaret {
		p.pos++
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return gosymbol.PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) parseAtom() (gosymbol.Expr, error) {
	t, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokNum:
		return numberExpr(t.text)
	case tokIdent:
		if n, isMore := p.peek(); isMore && n.kind == tokLParen {
			p.pos++
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return p.buildCall(t.text, args)
		}
		return symbolExpr(t.text), nil
	case tokLParen:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if c, isMore := p.next(); !isMore || c.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return e, nil
	}
	return nil, fmt.Errorf("unexpected %q", t.text)
}

// parseArgs parses a comma-separated argument list and consumes the closing
// parenthesis.
func (p *parser) parseArgs() ([]gosymbol.Expr, error) {
	var args []gosymbol.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		t, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		if t.kind == tokRParen {
			return args, nil
		}
		if t.kind != tokComma {
			return nil, fmt.Errorf("unexpected %q in argument list", t.text)
		}
	}
}

// buildCall constructs a function application. The allowlist check happens
// here, before any tree is built, so a disallowed name is rejected without
// touching the symbolic kernel.
func (p *parser) buildCall(name string, args []gosymbol.Expr) (gosymbol.Expr, error) {
	if _, ok := allowedFuncs[name]; !ok {
		return nil, &UnsafeInputError{Input: p.raw, Reason: "unsafe function detected: " + name}
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("function %s: expected 1 argument, got %d", name, len(args))
	}
	arg := args[0]

	canonical := name
	if strings.HasPrefix(canonical, "arc") {
		canonical = "a" + canonical[3:]
	}
	switch canonical {
	case "sin":
		return gosymbol.SinOf(arg), nil
	case "cos":
		return gosymbol.CosOf(arg), nil
	case "tan":
		return gosymbol.TanOf(arg), nil
	case "sec":
		return gosymbol.PowOf(gosymbol.CosOf(arg), gosymbol.N(-1)), nil
	case "csc":
		return gosymbol.PowOf(gosymbol.SinOf(arg), gosymbol.N(-1)), nil
	case "cot":
		return gosymbol.PowOf(gosymbol.TanOf(arg), gosymbol.N(-1)), nil
	case "asin":
		return gosymbol.AsinOf(arg), nil
	case "acos":
		return gosymbol.AcosOf(arg), nil
	case "atan":
		return gosymbol.AtanOf(arg), nil
	case "sinh":
		return gosymbol.SinhOf(arg), nil
	case "cosh":
		return gosymbol.CoshOf(arg), nil
	case "tanh":
		return gosymbol.TanhOf(arg), nil
	case "exp":
		return gosymbol.ExpOf(arg), nil
	case "ln", "log":
		return gosymbol.LnOf(arg), nil
	case "sqrt":
		return gosymbol.SqrtOf(arg), nil
	case "abs", "Abs":
		return gosymbol.AbsOf(arg), nil
	case "sign":
		return gosymbol.SignOf(arg), nil
	case "floor":
		return gosymbol.FloorOf(arg), nil
	case "ceil", "ceiling":
		return gosymbol.CeilOf(arg), nil
	}
	return opaqueFunc(canonical, arg)
}

// symbolExpr resolves a bare identifier. pi and E become float constants;
// other allowlisted constants (I, oo, zoo, nan) stay inert symbols that
// simply fail numeric evaluation, which downstream code treats as a skipped
// point.
func symbolExpr(name string) gosymbol.Expr {
	switch name {
	case "pi", "Pi":
		return gosymbol.NFloat(math.Pi)
	case "E":
		return gosymbol.NFloat(math.E)
	}
	return gosymbol.S(name)
}

// numberExpr builds an exact rational from decimal text.
func numberExpr(text string) (gosymbol.Expr, error) {
	e, err := gosymbol.FromJSON(map[string]interface{}{"type": "num", "value": text})
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}
	return e, nil
}

// opaqueFunc builds a function node the kernel has no constructor for.
// The node is inert: it round-trips, prints, and differentiates to an error
// path, but never evaluates, so test points touching it are skipped.
func opaqueFunc(name string, arg gosymbol.Expr) (gosymbol.Expr, error) {
	argJSON, err := gosymbol.ToJSON(arg)
	if err != nil {
		return nil, fmt.Errorf("encode argument of %s: %w", name, err)
	}
	var argMap map[string]interface{}
	if err := json.Unmarshal([]byte(argJSON), &argMap); err != nil {
		return nil, fmt.Errorf("encode argument of %s: %w", name, err)
	}
	return gosymbol.FromJSON(map[string]interface{}{"type": "func", "name": name, "arg": argMap})
}
