package combinator

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dhamidi/combo/lex"
)

// chars splits s into one type-less token per byte.
func chars(s string) []lex.Token {
	return lex.Literals(strings.Split(s, "")...)
}

// plain replaces tokens in a parse result by their values so results can be
// compared with literals.
func plain(v any) any {
	switch v := v.(type) {
	case lex.Token:
		return v.Value
	case Tuple:
		out := make(Tuple, len(v))
		for i, x := range v {
			out[i] = plain(x)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = plain(x)
		}
		return out
	case Ignored:
		return Ignored{Value: plain(v.Value)}
	}
	return v
}

func mustParse(t *testing.T, p *Parser, input string) any {
	t.Helper()
	v, err := Parse(p, chars(input))
	if err != nil {
		t.Fatalf("Parse(%s, %q): %v", p, input, err)
	}
	return plain(v)
}

func TestSeqResults(t *testing.T) {
	x, y, z := Lit("x"), Lit("y"), Lit("z")

	tests := []struct {
		name   string
		parser *Parser
		input  string
		want   any
	}{
		{"ok ok ok", Seq(x, y, x), "xyx", Tuple{"x", "y", "x"}},
		{"ignored ok", Seq(Skip(x), y), "xy", "y"},
		{"ok ignored", Seq(x, Skip(y)), "xy", "x"},
		{"ignored ok ok", Seq(Skip(x), y, x), "xyx", Tuple{"y", "x"}},
		{"ok ignored ok", Seq(x, Skip(y), x), "xyx", Tuple{"x", "x"}},
		{"ok ok ignored", Seq(x, y, Skip(x)), "xyx", Tuple{"x", "y"}},
		{"ignored ignored ok", Seq(Skip(x), Skip(x), y), "xxy", "y"},
		{"ok ignored ignored", Seq(x, Skip(y), Skip(y)), "xyy", "x"},
		{"ignored ignored", Seq(Skip(x), Skip(y)), "xy", Ignored{Value: "y"}},
		{"ignored ignored ignored", Seq(Skip(x), Skip(y), Skip(z)), "xyz", Ignored{Value: "z"}},
		{"ignored optional", Seq(Skip(Optional(x)), y), "xy", "y"},
		{"ignored optional absent", Seq(Skip(Optional(x)), y), "y", "y"},
		{"optional absent", Seq(Optional(x), y), "y", Tuple{nil, "y"}},
		{"ignored optional ignored", Seq(Skip(x), Optional(y), Skip(x)), "xyx", "y"},
		{"ignored absent ignored", Seq(Skip(x), Optional(y), Skip(x)), "xx", nil},
		{"nested left", Seq(Seq(x, y), z), "xyz", Tuple{"x", "y", "z"}},
		{"nested right", Seq(x, Seq(y, z)), "xyz", Tuple{"x", "y", "z"}},
		{"empty", Seq(), "", Ignored{}},
		{"eof", Seq(x, Eof()), "x", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustParse(t, tt.parser, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMapKeepsNestedTuples(t *testing.T) {
	x, y := Lit("x"), Lit("y")
	pair := Map(Seq(x, y), func(v any) any { return []any(v.(Tuple)) })

	got := mustParse(t, Seq(pair, pair), "xyxy")
	want := Tuple{[]any{"x", "y"}, []any{"x", "y"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestOneOrMore(t *testing.T) {
	x, y := Lit("x"), Lit("y")

	got := mustParse(t, OneOrMore(Seq(x, y)), "xyxyxy")
	want := []any{Tuple{"x", "y"}, Tuple{"x", "y"}, Tuple{"x", "y"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}

	if _, err := Parse(OneOrMore(x), chars("y")); err == nil {
		t.Error("OneOrMore matched zero occurrences")
	}
}

func TestManyBacktracking(t *testing.T) {
	x, y := Lit("x"), Lit("y")

	got := mustParse(t, Seq(Many(Seq(x, y)), x, x), "xyxyxx")
	want := Tuple{[]any{Tuple{"x", "y"}, Tuple{"x", "y"}}, "x", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestManyLeavesRestUnconsumed(t *testing.T) {
	x := Tok(lex.Token{Value: "x"})

	got := mustParse(t, Many(x), "xxy")
	want := []any{"x", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}

	if got := mustParse(t, Many(x), ""); !reflect.DeepEqual(got, []any{}) {
		t.Errorf("Many over empty input = %#v, want empty list", got)
	}
}

func TestSeqFailureNamesUnexpectedAndExpected(t *testing.T) {
	_, err := Parse(Seq(Lit("x"), Lit("y")), chars("xz"))

	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("got %v, want *SyntaxError", err)
	}
	if syntax.Token == nil || syntax.Token.Value != "z" {
		t.Errorf("Token = %v, want z", syntax.Token)
	}
	if !reflect.DeepEqual(syntax.Expected, []string{`"y"`}) {
		t.Errorf("Expected = %q", syntax.Expected)
	}
	if got, want := err.Error(), `got unexpected "z", expected: "y"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if syntax.State.Max != 1 {
		t.Errorf("State.Max = %d, want 1", syntax.State.Max)
	}
}

func TestEndOfInputError(t *testing.T) {
	_, err := Parse(Seq(Lit("x"), Lit("y")), chars("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	if got, want := err.Error(), `got unexpected end of input, expected: "y"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	_, err = Parse(Seq(Lit("x"), Eof()), chars("xx"))
	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("got %v, want *SyntaxError", err)
	}
	if syntax.Reason != "should have reached end of input" {
		t.Errorf("Reason = %q", syntax.Reason)
	}
}

func TestNestedForward(t *testing.T) {
	x, y := Lit("x"), Lit("y")
	fwd := Forward()
	fwd.Define(Seq(x, Optional(fwd), y))

	v, err := Parse(Seq(fwd, Eof()), chars("xxyy"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Tuple{"x", Tuple{"x", nil, "y"}, "y"}
	if got := plain(v); !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestErrorInfo(t *testing.T) {
	tokenizer, err := lex.NewTokenizer([]lex.Rule{
		{Type: "keyword", Pattern: `(is|end)`},
		{Type: "id", Pattern: `[a-z]+`},
		{Type: "space", Pattern: `[ \t]+`},
		{Type: "nl", Pattern: `[\n\r]+`},
	}, "space")
	if err != nil {
		t.Fatalf("NewTokenizer: %v", err)
	}
	tokens, err := tokenizer.Tokenize("", "spam is eggs\neggs isnt spam\nend")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	id := OfType("id")
	keyword := func(s string) *Parser { return Tok(lex.Token{Type: "keyword", Value: s}) }
	equality := Seq(id, Skip(keyword("is")), id)
	expr := Seq(equality, Skip(OfType("nl")))
	file := Seq(Many(expr), keyword("end"))

	_, err = Parse(file, tokens)
	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("got %v, want *SyntaxError", err)
	}
	if got, want := err.Error(), `2:11-2:14: got unexpected id "spam", expected: nl`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if syntax.State.Pos != 4 || syntax.State.Max != 7 {
		t.Errorf("State = %s, want State(4, 7)", syntax.State)
	}
	if syntax.Reason != "got unexpected token" {
		t.Errorf("Reason = %q", syntax.Reason)
	}
	if pos := syntax.Pos(); pos.Line != 2 || pos.Column != 11 {
		t.Errorf("Pos() = %v, want 2:11", pos)
	}
}

func TestNamedRuleCollapsesExpected(t *testing.T) {
	value := Alt(OfType("number"), OfType("string")).Named("value")
	pair := Seq(Lit("["), value, Lit("]"))

	_, err := Parse(pair, []lex.Token{{Value: "["}, {Value: "]"}})
	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("got %v, want *SyntaxError", err)
	}
	if !reflect.DeepEqual(syntax.Expected, []string{"value"}) {
		t.Errorf("Expected = %q, want [value]", syntax.Expected)
	}
}

func TestNamedRuleKeepsDeeperExpected(t *testing.T) {
	call := Seq(OfType("id"), Lit("("), Lit(")")).Named("call")

	_, err := Parse(call, []lex.Token{{Type: "id", Value: "f"}, {Value: "("}, {Value: "x"}})
	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("got %v, want *SyntaxError", err)
	}
	if !reflect.DeepEqual(syntax.Expected, []string{`")"`}) {
		t.Errorf("Expected = %q", syntax.Expected)
	}
}

func TestAltReportsFarthestBranch(t *testing.T) {
	x, y, z := Lit("x"), Lit("y"), Lit("z")
	p := Alt(Seq(x, y, y), Seq(x, z))

	_, err := Parse(p, chars("xyz"))
	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("got %v, want *SyntaxError", err)
	}
	if syntax.State.Max != 2 || syntax.State.Pos != 0 {
		t.Errorf("State = %s, want State(0, 2)", syntax.State)
	}
	if syntax.Token == nil || syntax.Token.Value != "z" {
		t.Errorf("Token = %v, want z", syntax.Token)
	}
}

func TestAltIdempotent(t *testing.T) {
	ps := map[string]*Parser{
		"tok":  Lit("x"),
		"seq":  Seq(Lit("x"), Lit("y")),
		"many": Many(Lit("x")),
	}
	inputs := []string{"", "x", "xy", "xx", "y"}

	for name, p := range ps {
		for _, in := range inputs {
			v1, err1 := Parse(p, chars(in))
			v2, err2 := Parse(Alt(p, p), chars(in))
			if !reflect.DeepEqual(plain(v1), plain(v2)) {
				t.Errorf("%s over %q: %v vs %v", name, in, v1, v2)
			}
			if (err1 == nil) != (err2 == nil) {
				t.Errorf("%s over %q: errors differ: %v vs %v", name, in, err1, err2)
			}
		}
	}
}

func TestOptionalNeverFails(t *testing.T) {
	p := Seq(Lit("x"), Lit("y"))
	for _, in := range []string{"", "x", "xy", "yx", "z"} {
		direct, derr := Parse(p, chars(in))
		v, err := Parse(Optional(p), chars(in))
		if err != nil {
			t.Errorf("Optional over %q failed: %v", in, err)
			continue
		}
		if derr != nil && v != nil {
			t.Errorf("Optional over %q = %v, want nil", in, v)
		}
		if derr == nil && !reflect.DeepEqual(plain(v), plain(direct)) {
			t.Errorf("Optional over %q = %v, want %v", in, v, direct)
		}
	}
}

func TestMaxIsMonotone(t *testing.T) {
	x, y := Lit("x"), Lit("y")
	p := Seq(Alt(Seq(x, x, x), Seq(x, y)), Lit("z"))

	_, err := Parse(p, chars("xyq"))
	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("got %v, want *SyntaxError", err)
	}
	// The failed first branch reached position 1, the second one 2, and
	// z was attempted at 2.
	if syntax.State.Max != 2 {
		t.Errorf("State.Max = %d, want 2", syntax.State.Max)
	}
	if !reflect.DeepEqual(syntax.Expected, []string{`"z"`}) {
		t.Errorf("Expected = %q", syntax.Expected)
	}
}

func TestTokMatching(t *testing.T) {
	tokens := []lex.Token{{Type: "id", Value: "x"}}

	tests := []struct {
		name   string
		parser *Parser
		ok     bool
	}{
		{"exact", Tok(lex.Token{Type: "id", Value: "x"}), true},
		{"exact wrong type", Tok(lex.Token{Type: "kw", Value: "x"}), false},
		{"of type", OfType("id"), true},
		{"of other type", OfType("kw"), false},
		{"lit", Lit("x"), true},
		{"lit other value", Lit("y"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.parser, tokens)
			if (err == nil) != tt.ok {
				t.Errorf("err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestDefineTwicePanics(t *testing.T) {
	fwd := Forward()
	fwd.Define(Lit("x"))

	defer func() {
		r := recover()
		gerr, ok := r.(*GrammarError)
		if !ok {
			t.Fatalf("recovered %v, want *GrammarError", r)
		}
		if !errors.Is(gerr, ErrRedefined) {
			t.Errorf("err = %v, want ErrRedefined", gerr)
		}
	}()
	fwd.Define(Lit("y"))
}

func TestUndefinedForward(t *testing.T) {
	fwd := Forward().Named("expr")

	_, err := Parse(fwd, chars("x"))
	if !errors.Is(err, ErrUndefined) {
		t.Fatalf("err = %v, want ErrUndefined", err)
	}

	// Without validation the undefined rule is still not a syntax error.
	_, err = Parse(Alt(fwd, Lit("x")), chars("x"), WithoutValidation())
	if !errors.Is(err, ErrUndefined) {
		t.Fatalf("err = %v, want ErrUndefined", err)
	}
}

func TestParserString(t *testing.T) {
	x, y := Lit("x"), OfType("id")
	tests := []struct {
		parser *Parser
		want   string
	}{
		{Seq(x, y), `("x" , id)`},
		{Alt(x, y), `("x" | id)`},
		{Optional(x), `[ "x" ]`},
		{Many(x), `{ "x" }`},
		{OneOrMore(y), `(id , { id })`},
		{Skip(x), `-"x"`},
		{Tok(lex.Token{Type: "kw", Value: "if"}), `kw "if"`},
		{Eof(), "end of input"},
		{Forward().Named("expr"), "expr"},
		{Seq(x, y).Named("pair"), "pair"},
	}
	for _, tt := range tests {
		if got := tt.parser.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
