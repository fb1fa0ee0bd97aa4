package parse

import (
	"fmt"
	"sort"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/dhamidi/combo/combinator"
	"golang.org/x/exp/ebnf"
)

// IsRule reports whether name is a syntactic production. Following the
// convention of golang.org/x/exp/ebnf, names starting with an upper-case
// letter are syntactic; all other names are lexical and denote token types
// supplied by the tokenizer.
func IsRule(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(ch)
}

// CompileError reports a production that cannot be turned into a parser.
type CompileError struct {
	Production string
	Expr       ebnf.Expression // the offending expression, if known
	Msg        string
}

func (e *CompileError) Error() string {
	if e.Expr != nil {
		return fmt.Sprintf("%s: %s: %s", e.Expr.Pos(), e.Production, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Production, e.Msg)
}

// CompileOption configures Compile and CompileRules.
type CompileOption func(*compiler)

// WithMemo memoizes the named productions.
func WithMemo(names ...string) CompileOption {
	return func(c *compiler) {
		for _, name := range names {
			c.memo[name] = true
		}
	}
}

// Rules maps the names of the syntactic productions of a grammar to their
// parsers. Each parser produces a *Node whose Kind is the production name.
type Rules map[string]*combinator.Parser

// Names returns the rule names in sorted order.
func (r Rules) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type compiler struct {
	rules Rules
	memo  map[string]bool
}

// CompileRules compiles every syntactic production of g.
func CompileRules(g ebnf.Grammar, opts ...CompileOption) (Rules, error) {
	c := &compiler{rules: make(Rules), memo: make(map[string]bool)}
	for _, opt := range opts {
		opt(c)
	}

	for name := range g {
		if IsRule(name) {
			c.rules[name] = combinator.Forward().Named(name)
		}
	}
	for name := range c.memo {
		if _, ok := c.rules[name]; !ok {
			return nil, &CompileError{Production: name, Msg: "cannot memoize unknown production"}
		}
	}

	for _, name := range c.rules.Names() {
		prod := g[name]
		body, err := c.expr(name, prod.Expr)
		if err != nil {
			return nil, err
		}
		kind := name
		node := combinator.Map(body, func(v any) any { return build(kind, v) })
		if c.memo[name] {
			node = combinator.Memoize(node)
		}
		c.rules[name].Define(node)
	}
	return c.rules, nil
}

// Compile compiles g into a parser that matches the production start
// followed by the end of input and produces its *Node.
func Compile(g ebnf.Grammar, start string, opts ...CompileOption) (*combinator.Parser, error) {
	if !IsRule(start) {
		return nil, fmt.Errorf("start production %q is not a syntactic production", start)
	}
	if g[start] == nil {
		return nil, fmt.Errorf("start production %q is undefined", start)
	}
	rules, err := CompileRules(g, opts...)
	if err != nil {
		return nil, err
	}
	return combinator.Seq(rules[start], combinator.Eof()), nil
}

func (c *compiler) expr(prod string, x ebnf.Expression) (*combinator.Parser, error) {
	switch x := x.(type) {
	case nil:
		return combinator.Seq(), nil
	case ebnf.Alternative:
		alts := make([]*combinator.Parser, len(x))
		for i, e := range x {
			p, err := c.expr(prod, e)
			if err != nil {
				return nil, err
			}
			alts[i] = p
		}
		return combinator.Alt(alts...), nil
	case ebnf.Sequence:
		seq := make([]*combinator.Parser, len(x))
		for i, e := range x {
			p, err := c.expr(prod, e)
			if err != nil {
				return nil, err
			}
			seq[i] = p
		}
		return combinator.Seq(seq...), nil
	case *ebnf.Group:
		return c.expr(prod, x.Body)
	case *ebnf.Option:
		body, err := c.expr(prod, x.Body)
		if err != nil {
			return nil, err
		}
		return combinator.Optional(body), nil
	case *ebnf.Repetition:
		body, err := c.expr(prod, x.Body)
		if err != nil {
			return nil, err
		}
		return combinator.Many(body), nil
	case *ebnf.Name:
		if !IsRule(x.String) {
			return combinator.OfType(x.String), nil
		}
		rule, ok := c.rules[x.String]
		if !ok {
			return nil, &CompileError{Production: prod, Expr: x, Msg: fmt.Sprintf("undefined production %s", x.String)}
		}
		return rule, nil
	case *ebnf.Token:
		return combinator.Lit(unquote(x.String)), nil
	case *ebnf.Range:
		return nil, &CompileError{Production: prod, Expr: x, Msg: "character ranges are only allowed in lexical productions"}
	case *ebnf.Bad:
		return nil, &CompileError{Production: prod, Expr: x, Msg: x.Error}
	}
	return nil, &CompileError{Production: prod, Msg: fmt.Sprintf("unsupported expression %T", x)}
}

// unquote strips the quotes of a literal if the EBNF parser left them in.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0] {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}
