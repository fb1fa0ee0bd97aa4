package grammarls

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const grammar = `Expr   = Term { "+" Term } .
Term   = Factor { "*" Factor } .
Factor = number | "(" Expr ")" .
Choice = "x" Term | "x" Factor .
`

func TestDiagnose(t *testing.T) {
	diags := Diagnose("test.ebnf", grammar, false)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %+v", len(diags), diags)
	}
	d := diags[0]
	if *d.Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("Severity = %v, want warning", *d.Severity)
	}
	if d.Range.Start.Line != 3 || d.Range.Start.Character != 0 || d.Range.End.Character != 6 {
		t.Errorf("Range = %+v, want line 3 columns 0-6", d.Range)
	}
	if !strings.Contains(d.Message, "LL(1) conflict") {
		t.Errorf("Message = %q", d.Message)
	}

	strict := Diagnose("test.ebnf", grammar, true)
	if len(strict) != 1 || *strict[0].Severity != protocol.DiagnosticSeverityError {
		t.Errorf("strict diagnostics = %+v", strict)
	}
}

func TestDiagnoseSyntaxError(t *testing.T) {
	diags := Diagnose("test.ebnf", "Expr = ( \"x\" .\n", false)
	if len(diags) == 0 {
		t.Fatal("no diagnostics for a broken grammar")
	}
	if *diags[0].Severity != protocol.DiagnosticSeverityError {
		t.Errorf("Severity = %v, want error", *diags[0].Severity)
	}
}

func TestHover(t *testing.T) {
	got := Hover(grammar, 1, 12) // on "Term"
	if !strings.HasPrefix(got, "**Term**") {
		t.Fatalf("Hover = %q", got)
	}
	if !strings.Contains(got, `number, "("`) {
		t.Errorf("Hover = %q, want FIRST set", got)
	}

	if got := Hover(grammar, 3, 10); got != "" {
		t.Errorf("Hover over a token type = %q, want empty", got)
	}
	if got := Hover(grammar, 1, 8); got != "" {
		t.Errorf("Hover over punctuation = %q, want empty", got)
	}
}

func TestWordAt(t *testing.T) {
	text := "A = foo_bar .\nB = x ."
	tests := []struct {
		line, col int
		want      string
	}{
		{1, 1, "A"},
		{1, 5, "foo_bar"},
		{1, 11, "foo_bar"},
		{1, 4, ""},
		{2, 5, "x"},
		{3, 1, ""},
	}
	for _, tt := range tests {
		if got := wordAt(text, tt.line, tt.col); got != tt.want {
			t.Errorf("wordAt(%d, %d) = %q, want %q", tt.line, tt.col, got, tt.want)
		}
	}
}

func TestURIToPath(t *testing.T) {
	if got := uriToPath("file:///tmp/a%20b.ebnf"); got != "/tmp/a b.ebnf" {
		t.Errorf("uriToPath = %q", got)
	}
	if got := uriToPath("untitled:1"); got != "untitled:1" {
		t.Errorf("uriToPath = %q", got)
	}
}
