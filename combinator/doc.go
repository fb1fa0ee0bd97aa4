// Package combinator builds backtracking recursive-descent parsers over a
// sequence of lex.Token values by composing small parsers into larger ones.
//
// # Overview
//
// A grammar is a graph of *Parser nodes. Leaves match single tokens, inner
// nodes sequence, choose, repeat or transform their children:
//
//	expr := combinator.Forward().Named("expr")
//	atom := combinator.Alt(
//	    combinator.OfType("number"),
//	    combinator.Seq(
//	        combinator.Skip(combinator.Lit("(")),
//	        expr,
//	        combinator.Skip(combinator.Lit(")")),
//	    ),
//	)
//	expr.Define(combinator.Seq(atom, combinator.Many(combinator.Seq(combinator.Lit("+"), atom))))
//
//	v, err := combinator.Parse(combinator.Seq(expr, combinator.Eof()), tokens)
//
// # Results
//
// Tok returns the matched lex.Token. Seq flattens the results of its
// children: a Tuple is spliced into the parent, an Ignored value is dropped,
// and a single remaining value is returned unwrapped. Many returns []any,
// Optional returns nil when its operand fails. Map is the place to build the
// caller's own tree types.
//
// # Errors
//
// Parse returns one of three error types:
//
//	*GrammarError  the grammar can never work, whatever the input
//	*SyntaxError   the input does not match; it names the token at the
//	               farthest position reached and what was expected there
//	*lex.Error     produced by the tokenizer, passed through by callers
//
// Backtracking is internal. Alt, Optional and Many recover from a failed
// branch; a GrammarError raised while parsing is never recovered.
//
// # Analysis
//
// Before the first Parse of a root node the grammar is analyzed and the
// result is cached on that node. Analysis rejects left recursion, undefined
// forward declarations and repetitions whose operand can succeed without
// consuming input, because each of them would make a parse loop forever.
// It also computes FIRST sets and reports pairs of alternatives that start
// with the same token:
//
//	report, err := combinator.Analyze(grammar, combinator.WithAmbiguity(combinator.AmbiguityFail))
//	for _, w := range report.Warnings {
//	    fmt.Println(w)
//	}
//
// # Performance
//
// Memoize caches the outcome of a node per input position within one Parse
// call, which removes repeated work when several alternatives share a prefix.
// WithLookahead lets Alt skip alternatives whose FIRST set cannot match the
// next token; it needs the grammar analysis, so it cannot be combined with
// WithoutValidation. Neither changes the result of a parse or the
// SyntaxError it returns. WithStats reports how much work was done.
//
// # Concurrency
//
// A finished grammar may be used by concurrent Parse calls. Define must be
// called before the first Parse.
package combinator
