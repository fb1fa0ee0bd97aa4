package combinator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dhamidi/combo/lex"
)

// Kind identifies the variant of a parser node.
type Kind int

const (
	KindTok Kind = iota
	KindSeq
	KindAlt
	KindMap
	KindMany
	KindPure
	KindEof
	KindFwd
	KindMemo
)

var kindNames = [...]string{
	KindTok:  "Tok",
	KindSeq:  "Seq",
	KindAlt:  "Alt",
	KindMap:  "Map",
	KindMany: "Many",
	KindPure: "Pure",
	KindEof:  "Eof",
	KindFwd:  "Fwd",
	KindMemo: "Memo",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Parser is a node of a composed grammar. Nodes are built once and are
// immutable afterwards, except that a forward declaration is bound exactly
// once with Define. Nodes are compared by identity.
type Parser struct {
	kind     Kind
	name     string
	key      Key           // KindTok
	children []*Parser     // KindSeq, KindAlt; the inner parser of Map, Many and Memo
	fn       func(any) any // KindMap
	skip     bool          // KindMap built by Skip
	optional bool          // KindAlt built by Optional
	min      int           // KindMany
	value    any           // KindPure
	def      *Parser       // KindFwd

	mu    sync.Mutex
	check *analysis
}

// Kind reports the variant of the node.
func (p *Parser) Kind() Kind {
	return p.kind
}

// Name returns the rule name given with Named, if any.
func (p *Parser) Name() string {
	return p.name
}

// Named sets the rule name used in traces, analyzer messages and the
// "expected" part of syntax errors. It returns p.
func (p *Parser) Named(name string) *Parser {
	p.name = name
	return p
}

// Named is a convenience for p.Named(name).
func Named(p *Parser, name string) *Parser {
	return p.Named(name)
}

// Tok matches one token equal to t by type and value.
func Tok(t lex.Token) *Parser {
	return &Parser{kind: KindTok, key: Key{Type: t.Type, Value: t.Value}}
}

// OfType matches one token of the given type, whatever its value.
func OfType(typ string) *Parser {
	return &Parser{kind: KindTok, key: Key{Type: typ, AnyValue: true}}
}

// Lit matches one token with the given value, whatever its type.
func Lit(value string) *Parser {
	return &Parser{kind: KindTok, key: Key{Value: value, AnyType: true}}
}

// Seq runs parsers one after another. See Tuple for how results combine.
func Seq(parsers ...*Parser) *Parser {
	return &Parser{kind: KindSeq, children: parsers}
}

// Alt tries parsers in order from the same position; the first success wins.
func Alt(parsers ...*Parser) *Parser {
	return &Parser{kind: KindAlt, children: parsers}
}

// Map transforms the result of a successful parse.
func Map(p *Parser, f func(any) any) *Parser {
	return &Parser{kind: KindMap, children: []*Parser{p}, fn: f}
}

// Many applies p zero or more times and returns the results as []any.
func Many(p *Parser) *Parser {
	return &Parser{kind: KindMany, children: []*Parser{p}}
}

// OneOrMore applies p at least once and returns the results as []any.
func OneOrMore(p *Parser) *Parser {
	return &Parser{kind: KindMany, children: []*Parser{p}, min: 1}
}

// Optional returns p's result, or nil when p fails. It never fails.
func Optional(p *Parser) *Parser {
	return &Parser{kind: KindAlt, children: []*Parser{p, Pure(nil)}, optional: true}
}

// Skip marks p's result as Ignored so that an enclosing Seq drops it.
func Skip(p *Parser) *Parser {
	return &Parser{
		kind:     KindMap,
		children: []*Parser{p},
		fn:       func(v any) any { return Ignored{Value: v} },
		skip:     true,
	}
}

// Pure succeeds with v without consuming input.
func Pure(v any) *Parser {
	return &Parser{kind: KindPure, value: v}
}

// Eof succeeds only when no input remains. Its result is Ignored, so
// Seq(p, Eof()) yields p's result.
func Eof() *Parser {
	return &Parser{kind: KindEof}
}

// Forward returns an undefined parser usable before its definition is known.
// Bind it with Define before parsing.
func Forward() *Parser {
	return &Parser{kind: KindFwd}
}

// Memoize caches p's outcome per input position for the duration of a
// single Parse call.
func Memoize(p *Parser) *Parser {
	return &Parser{kind: KindMemo, children: []*Parser{p}}
}

// Define binds a forward declaration. Defining anything other than an
// undefined Forward is a programming error and panics with a *GrammarError.
func (p *Parser) Define(q *Parser) {
	switch {
	case p.kind != KindFwd:
		panic(&GrammarError{Rule: p.String(), Err: ErrRedefined, Detail: "not a forward declaration"})
	case p.def != nil:
		panic(&GrammarError{Rule: p.String(), Err: ErrRedefined})
	case q == nil:
		panic(&GrammarError{Rule: p.String(), Err: ErrUndefined, Detail: "defined as nil"})
	}
	p.def = q
}

// Defined reports whether a forward declaration has been bound.
// It is true for every other kind of parser.
func (p *Parser) Defined() bool {
	return p.kind != KindFwd || p.def != nil
}

// Children returns the direct sub-parsers, including the definition of a
// forward declaration.
func (p *Parser) Children() []*Parser {
	if p.kind == KindFwd {
		if p.def == nil {
			return nil
		}
		return []*Parser{p.def}
	}
	return p.children
}

// String describes the parser in an EBNF-like notation. Forward
// declarations print their name and are never expanded.
func (p *Parser) String() string {
	if p.name != "" {
		return p.name
	}
	switch p.kind {
	case KindTok:
		return p.key.String()
	case KindSeq:
		return "(" + joinParsers(p.children, " , ") + ")"
	case KindAlt:
		if p.optional {
			return "[ " + p.children[0].String() + " ]"
		}
		return "(" + joinParsers(p.children, " | ") + ")"
	case KindMap:
		if p.skip {
			return "-" + p.children[0].String()
		}
		return p.children[0].String()
	case KindMany:
		inner := p.children[0].String()
		if p.min > 0 {
			return "(" + inner + " , { " + inner + " })"
		}
		return "{ " + inner + " }"
	case KindPure:
		return fmt.Sprintf("(pure %v)", p.value)
	case KindEof:
		return "end of input"
	case KindFwd:
		return "forward"
	case KindMemo:
		return p.children[0].String()
	}
	return "?"
}

func joinParsers(ps []*Parser, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}
