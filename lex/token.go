// Package lex provides the token type consumed by the combinator engine and a
// scanner that splits text into tokens using an ordered list of regular
// expression rules.
package lex

import (
	"fmt"
	"strconv"
	"strings"
)

// Position represents a location in source code.
// A zero Line means the position is unknown.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position carries line information.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Token is a typed lexeme. Start and End are optional; two tokens are
// logically equal when their Type and Value match.
type Token struct {
	Type  string
	Value string
	Start Position
	End   Position
}

// Equal compares tokens by type and value only.
func (t Token) Equal(other Token) bool {
	return t.Type == other.Type && t.Value == other.Value
}

// Describe returns the token without position information,
// e.g. `id "spam"` or `"x"` for untyped tokens.
func (t Token) Describe() string {
	if t.Type == "" {
		return strconv.Quote(t.Value)
	}
	return t.Type + " " + strconv.Quote(t.Value)
}

// Span formats the source range of the token as line:col-line:col.
// It returns the empty string when the token has no position.
func (t Token) Span() string {
	if !t.Start.IsValid() {
		return ""
	}
	if !t.End.IsValid() {
		return fmt.Sprintf("%d:%d", t.Start.Line, t.Start.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", t.Start.Line, t.Start.Column, t.End.Line, t.End.Column)
}

func (t Token) String() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", spanPrefix(t), t.Describe()))
}

func spanPrefix(t Token) string {
	if s := t.Span(); s != "" {
		return s + ":"
	}
	return ""
}

// Literals builds untyped tokens from plain values. It is the simplest input
// for grammars built from Lit parsers.
func Literals(values ...string) []Token {
	tokens := make([]Token, len(values))
	for i, v := range values {
		tokens[i] = Token{Value: v}
	}
	return tokens
}
