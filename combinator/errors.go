package combinator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhamidi/combo/lex"
)

// Causes of a GrammarError.
var (
	ErrLeftRecursion = errors.New("left recursion")
	ErrNonHalting    = errors.New("repetition of a parser that can succeed without consuming input")
	ErrUndefined     = errors.New("undefined forward declaration")
	ErrRedefined     = errors.New("forward declaration defined twice")
	ErrAmbiguous     = errors.New("ambiguous alternatives")
)

// ErrLookaheadWithoutValidation is returned by Parse when WithLookahead is
// combined with WithoutValidation; the lookahead needs the grammar analysis.
var ErrLookaheadWithoutValidation = errors.New("combinator: WithLookahead requires grammar validation")

// GrammarError reports a defect of the grammar itself, independent of any
// input. It is meant to be fixed by the grammar author.
type GrammarError struct {
	Rule   string // the rule or parser at fault
	Err    error  // one of the Err* causes
	Detail string
}

func (e *GrammarError) Error() string {
	msg := fmt.Sprintf("grammar error: %v in %s", e.Err, e.Rule)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *GrammarError) Unwrap() error {
	return e.Err
}

// SyntaxError is returned by Parse when the input does not match. It
// describes the token at the farthest position any branch reached.
type SyntaxError struct {
	Reason   string     // the failure of the last primitive, e.g. "got unexpected token"
	State    State      // the state of the failed parse; State.Max is the reported position
	Token    *lex.Token // nil at end of input
	Expected []string   // descriptions of what would have been accepted at State.Max
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	got := "end of input"
	if e.Token != nil {
		if span := e.Token.Span(); span != "" {
			b.WriteString(span)
			b.WriteString(": ")
		}
		got = e.Token.Describe()
	}
	b.WriteString("got unexpected ")
	b.WriteString(got)
	if len(e.Expected) > 0 {
		b.WriteString(", expected: ")
		b.WriteString(strings.Join(e.Expected, " or "))
	}
	return b.String()
}

// Pos returns the source position of the unexpected token, if known.
func (e *SyntaxError) Pos() lex.Position {
	if e.Token == nil {
		return lex.Position{}
	}
	return e.Token.Start
}

// noParse is the backtracking signal. It never leaves this package.
type noParse struct {
	msg   string
	state State
}

func (e *noParse) Error() string {
	return fmt.Sprintf("%s at %s", e.msg, e.state)
}

func asNoParse(err error) (*noParse, bool) {
	np, ok := err.(*noParse)
	return np, ok
}
