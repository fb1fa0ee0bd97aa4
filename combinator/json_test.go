package combinator

import (
	"errors"
	"reflect"
	"strconv"
	"testing"

	"github.com/dhamidi/combo/lex"
)

var jsonRules = []lex.Rule{
	{Type: "space", Pattern: `[ \t\r\n]+`},
	{Type: "string", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Type: "number", Pattern: `-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`},
	{Type: "name", Pattern: `true|false|null`},
	{Type: "op", Pattern: `[{}\[\]:,]`},
}

type member struct {
	key   string
	value any
}

// jsonGrammar builds a JSON parser that produces plain Go values.
func jsonGrammar() *Parser {
	op := func(s string) *Parser { return Skip(Tok(lex.Token{Type: "op", Value: s})) }
	name := func(s string, v any) *Parser {
		return Map(Tok(lex.Token{Type: "name", Value: s}), func(any) any { return v })
	}
	str := Map(OfType("string"), func(v any) any {
		s, _ := strconv.Unquote(v.(lex.Token).Value)
		return s
	}).Named("string")
	number := Map(OfType("number"), func(v any) any {
		f, _ := strconv.ParseFloat(v.(lex.Token).Value, 64)
		return f
	}).Named("number")

	value := Forward().Named("value")

	pair := Map(Seq(str, op(":"), value), func(v any) any {
		t := v.(Tuple)
		return member{key: t[0].(string), value: t[1]}
	})
	object := Map(
		Seq(op("{"), Optional(Seq(pair, Many(Seq(op(","), pair)))), op("}")),
		func(v any) any {
			obj := map[string]any{}
			if v == nil {
				return obj
			}
			t := v.(Tuple)
			first := t[0].(member)
			obj[first.key] = first.value
			for _, m := range t[1].([]any) {
				obj[m.(member).key] = m.(member).value
			}
			return obj
		},
	).Named("object")
	array := Map(
		Seq(op("["), Optional(Seq(value, Many(Seq(op(","), value)))), op("]")),
		func(v any) any {
			arr := []any{}
			if v == nil {
				return arr
			}
			t := v.(Tuple)
			arr = append(arr, t[0])
			return append(arr, t[1].([]any)...)
		},
	).Named("array")

	value.Define(Alt(
		name("null", nil),
		name("true", true),
		name("false", false),
		number,
		str,
		object,
		array,
	))
	return Seq(value, Eof())
}

func parseJSON(t *testing.T, input string, opts ...Option) (any, error) {
	t.Helper()
	tokenizer, err := lex.NewTokenizer(jsonRules, "space")
	if err != nil {
		t.Fatalf("NewTokenizer: %v", err)
	}
	tokens, err := tokenizer.Tokenize("", input)
	if err != nil {
		return nil, err
	}
	return Parse(jsonGrammar(), tokens, opts...)
}

func TestJSON(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{`1`, 1.0},
		{`"x\ny"`, "x\ny"},
		{`[]`, []any{}},
		{`{}`, map[string]any{}},
		{`[1, 2.5, true, null]`, []any{1.0, 2.5, true, nil}},
		{
			`{"a": [1, {"b": null}], "c": {"d": "e"}}`,
			map[string]any{
				"a": []any{1.0, map[string]any{"b": nil}},
				"c": map[string]any{"d": "e"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			for _, opts := range [][]Option{nil, {WithLookahead()}} {
				got, err := parseJSON(t, tt.input, opts...)
				if err != nil {
					t.Fatalf("parse: %v", err)
				}
				if !reflect.DeepEqual(got, tt.want) {
					t.Errorf("got %#v, want %#v", got, tt.want)
				}
			}
		})
	}
}

func TestJSONErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"a" 1}`, `1:6-1:6: got unexpected number "1", expected: op ":"`},
		{`[1,]`, `1:4-1:4: got unexpected op "]", expected: value`},
		{`[1`, `got unexpected end of input, expected: op "," or op "]"`},
		{`1 2`, `1:3-1:3: got unexpected number "2", expected: end of input`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseJSON(t, tt.input)
			var syntax *SyntaxError
			if !errors.As(err, &syntax) {
				t.Fatalf("got %v, want *SyntaxError", err)
			}
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestJSONLexicalError(t *testing.T) {
	_, err := parseJSON(t, `{"a": @}`)
	var lexErr *lex.Error
	if !errors.As(err, &lexErr) {
		t.Fatalf("got %v, want *lex.Error", err)
	}
	if lexErr.Pos.Column != 7 {
		t.Errorf("Column = %d, want 7", lexErr.Pos.Column)
	}
}
