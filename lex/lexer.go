package lex

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule describes one token type. Rules are tried in order and the first
// pattern matching at the current offset wins.
type Rule struct {
	Type    string `toml:"type" yaml:"type"`
	Pattern string `toml:"pattern" yaml:"pattern"`
}

// Error reports input that no rule matches.
type Error struct {
	Pos  Position
	Line string // the offending source line
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot tokenize data: %d:%d: %q", e.Pos.Line, e.Pos.Column, e.Line)
}

type compiledRule struct {
	typ string
	re  *regexp.Regexp
}

// Tokenizer holds a compiled rule set. It is safe for concurrent use.
type Tokenizer struct {
	rules []compiledRule
	skip  map[string]bool
}

// NewTokenizer compiles rules. Tokens whose type is listed in skip are
// dropped from the output of Tokenize.
func NewTokenizer(rules []Rule, skip ...string) (*Tokenizer, error) {
	t := &Tokenizer{skip: make(map[string]bool)}
	for _, r := range rules {
		if r.Type == "" {
			return nil, fmt.Errorf("rule %q: missing token type", r.Pattern)
		}
		re, err := regexp.Compile(`\A(?:` + r.Pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Type, err)
		}
		t.rules = append(t.rules, compiledRule{typ: r.Type, re: re})
	}
	for _, k := range skip {
		t.skip[k] = true
	}
	return t, nil
}

// Tokenize splits input into tokens.
func (t *Tokenizer) Tokenize(filename, input string) ([]Token, error) {
	l := NewLexer(t, input, filename)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return nil, err
		}
		if t.skip[tok.Type] {
			continue
		}
		tokens = append(tokens, tok)
	}
}

// Lexer scans a single input with a Tokenizer's rules.
type Lexer struct {
	tokenizer *Tokenizer
	input     string
	filename  string
	pos       int
	line      int
	column    int
}

// NewLexer creates a lexer for the given rules and input.
func NewLexer(t *Tokenizer, input, filename string) *Lexer {
	return &Lexer{
		tokenizer: t,
		input:     input,
		filename:  filename,
		line:      1,
		column:    1,
	}
}

// Position returns the current position in the input.
func (l *Lexer) Position() Position {
	return Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

// advance consumes one rune and returns the position it started at.
func (l *Lexer) advance() Position {
	at := l.Position()
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return at
}

// NextToken returns the next token, or io.EOF once the input is exhausted.
// Columns count runes, not bytes.
func (l *Lexer) NextToken() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{}, io.EOF
	}

	rest := l.input[l.pos:]
	for _, r := range l.tokenizer.rules {
		loc := r.re.FindStringIndex(rest)
		// Zero-width matches would never advance.
		if loc == nil || loc[1] == 0 {
			continue
		}
		value := rest[:loc[1]]
		start := l.Position()
		end := start
		for i := 0; i < utf8.RuneCountInString(value); i++ {
			end = l.advance()
		}
		return Token{Type: r.typ, Value: value, Start: start, End: end}, nil
	}

	return Token{}, &Error{Pos: l.Position(), Line: l.currentLine()}
}

func (l *Lexer) currentLine() string {
	start := strings.LastIndexByte(l.input[:l.pos], '\n') + 1
	end := strings.IndexByte(l.input[l.pos:], '\n')
	if end < 0 {
		return l.input[start:]
	}
	return l.input[start : l.pos+end]
}
