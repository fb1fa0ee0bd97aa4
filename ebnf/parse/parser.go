package parse

import (
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/dhamidi/combo/combinator"
	"github.com/dhamidi/combo/lex"
	"golang.org/x/exp/ebnf"
)

// LoadGrammar reads and parses the EBNF grammar in filename.
func LoadGrammar(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()
	return ReadGrammar(filename, f)
}

// ReadGrammar parses an EBNF grammar from r.
func ReadGrammar(filename string, r io.Reader) (ebnf.Grammar, error) {
	g, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Errors splits an error returned by ebnf.Parse or ebnf.Verify, which may
// hold a list of errors, into the individual errors.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	v := reflect.ValueOf(err)
	if v.Kind() != reflect.Slice {
		return []error{err}
	}
	errs := make([]error, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if e, ok := v.Index(i).Interface().(error); ok {
			errs = append(errs, e)
		}
	}
	return errs
}

// Parser combines a compiled grammar with a tokenizer.
type Parser struct {
	root      *combinator.Parser
	tokenizer *lex.Tokenizer
}

// NewParser compiles g for the start production start.
func NewParser(g ebnf.Grammar, start string, tokenizer *lex.Tokenizer, opts ...CompileOption) (*Parser, error) {
	root, err := Compile(g, start, opts...)
	if err != nil {
		return nil, err
	}
	return &Parser{root: root, tokenizer: tokenizer}, nil
}

// Root returns the compiled grammar.
func (p *Parser) Root() *combinator.Parser {
	return p.root
}

// Parse tokenizes input and parses it into a concrete syntax tree.
func (p *Parser) Parse(filename, input string, opts ...combinator.Option) (*Node, error) {
	tokens, err := p.tokenizer.Tokenize(filename, input)
	if err != nil {
		return nil, err
	}
	return ParseTokens(p.root, tokens, opts...)
}

// ParseTokens runs a parser built by Compile over tokens.
func ParseTokens(root *combinator.Parser, tokens []lex.Token, opts ...combinator.Option) (*Node, error) {
	v, err := combinator.Parse(root, tokens, opts...)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*Node)
	if !ok {
		return nil, fmt.Errorf("parser produced %T, not a syntax tree", v)
	}
	return n, nil
}
