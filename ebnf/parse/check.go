package parse

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"text/scanner"

	"github.com/dhamidi/combo/combinator"
	"github.com/dhamidi/combo/lex"
	"golang.org/x/exp/ebnf"
)

// Severity of a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a problem found in a grammar file.
type Diagnostic struct {
	Pos      lex.Position
	Severity Severity
	Rule     string // the production concerned, if known
	Message  string
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// CheckOptions selects the checks run by Check.
type CheckOptions struct {
	// Start, when set, is verified with ebnf.Verify if Verify is set.
	Start  string
	Verify bool
	// Strict reports LL(1) conflicts as errors.
	Strict bool
	// Options are passed to combinator.Analyze.
	Options []combinator.Option
}

// Check parses a grammar, compiles its syntactic productions and analyzes
// each of them. It collects every problem it can find instead of stopping
// at the first one; a nil result means the grammar is fine.
func Check(filename string, r io.Reader, opts CheckOptions) []Diagnostic {
	g, err := ebnf.Parse(filename, r)
	if err != nil {
		return fromErrors(err, SeverityError)
	}

	var diags []Diagnostic
	if opts.Verify && opts.Start != "" {
		if err := ebnf.Verify(g, opts.Start); err != nil {
			diags = append(diags, fromErrors(err, SeverityError)...)
		}
	}

	rules, err := CompileRules(g)
	if err != nil {
		d := Diagnostic{Severity: SeverityError, Message: err.Error()}
		var cerr *CompileError
		if errors.As(err, &cerr) {
			d.Rule = cerr.Production
			d.Message = cerr.Msg
			if cerr.Expr != nil {
				d.Pos = position(cerr.Expr.Pos())
			} else {
				d.Pos = productionPos(g, cerr.Production)
			}
		}
		return append(diags, d)
	}

	return append(diags, Analyze(g, rules, opts)...)
}

// Analyze runs combinator.Analyze on every rule and reports grammar errors
// and LL(1) conflicts at the production they belong to.
func Analyze(g ebnf.Grammar, rules Rules, opts CheckOptions) []Diagnostic {
	policy := combinator.WithAmbiguity(combinator.AmbiguityIgnore)
	analyzeOpts := append(append([]combinator.Option(nil), opts.Options...), policy)

	var diags []Diagnostic
	seen := make(map[string]bool)
	for _, name := range rules.Names() {
		report, err := combinator.Analyze(rules[name], analyzeOpts...)
		if err != nil {
			var gerr *combinator.GrammarError
			if !errors.As(err, &gerr) || seen[err.Error()] {
				continue
			}
			seen[err.Error()] = true
			rule := gerr.Rule
			if _, ok := rules[rule]; !ok {
				rule = name
			}
			diags = append(diags, Diagnostic{
				Pos:      productionPos(g, rule),
				Severity: SeverityError,
				Rule:     rule,
				Message:  err.Error(),
			})
			continue
		}

		severity := SeverityWarning
		if opts.Strict {
			severity = SeverityError
		}
		for _, w := range report.Warnings {
			if w.Rule != name {
				continue
			}
			diags = append(diags, Diagnostic{
				Pos:      productionPos(g, name),
				Severity: severity,
				Rule:     name,
				Message:  "LL(1) conflict: " + w.String(),
			})
		}
	}

	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Pos.Offset < diags[j].Pos.Offset
	})
	return diags
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func productionPos(g ebnf.Grammar, name string) lex.Position {
	if prod, ok := g[name]; ok && prod.Name != nil {
		return position(prod.Name.Pos())
	}
	return lex.Position{}
}

func position(p scanner.Position) lex.Position {
	return lex.Position{Filename: p.Filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
}

// errorPrefix matches the "file:line:col: " prefix of ebnf errors.
var errorPrefix = regexp.MustCompile(`^(?:(.*?):)?(\d+):(\d+): (.*)$`)

func fromErrors(err error, severity Severity) []Diagnostic {
	var diags []Diagnostic
	for _, e := range Errors(err) {
		d := Diagnostic{Severity: severity, Message: e.Error()}
		if m := errorPrefix.FindStringSubmatch(e.Error()); m != nil {
			line, _ := strconv.Atoi(m[2])
			col, _ := strconv.Atoi(m[3])
			d.Pos = lex.Position{Filename: m[1], Line: line, Column: col}
			d.Message = m[4]
		}
		diags = append(diags, d)
	}
	return diags
}
